package supervisor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPIDs parses the PID file: plain text, one PID per line. A missing file
// means no recorded workers.
func ReadPIDs(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pid file: %w", err)
	}

	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("bad pid %q in %s", line, path)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// WritePIDs replaces the PID file contents.
func WritePIDs(path string, pids []int) error {
	var b strings.Builder
	for _, pid := range pids {
		fmt.Fprintf(&b, "%d\n", pid)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// AppendPIDs adds pids to the file, keeping any already recorded.
func AppendPIDs(path string, pids []int) error {
	existing, err := ReadPIDs(path)
	if err != nil {
		return err
	}
	return WritePIDs(path, append(existing, pids...))
}
