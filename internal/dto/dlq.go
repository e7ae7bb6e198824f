package dto

import "time"

type DLQResponse struct {
	JobID   string    `json:"job_id"`
	Reason  string    `json:"reason"`
	MovedAt time.Time `json:"moved_at"`
}
