// Package supervisor spawns and stops the pool of worker processes.
package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Supervisor starts worker processes by re-executing the current binary and
// records their PIDs so a later `worker stop` invocation can signal them.
// Dead workers are not restarted; their jobs are reclaimed by surviving
// workers through the lease-expiry sweep.
type Supervisor struct {
	pidFile string
	log     zerolog.Logger
}

func New(pidFile string, log zerolog.Logger) *Supervisor {
	return &Supervisor{pidFile: pidFile, log: log}
}

// StartWorkers spawns count detached worker processes and appends their PIDs
// to the PID file. Each child runs the hidden `worker run` command.
func (s *Supervisor) StartWorkers(count int) ([]int, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	var pids []int
	for i := 0; i < count; i++ {
		cmd := exec.Command(exe, "worker", "run")
		detach(cmd)

		if err := cmd.Start(); err != nil {
			return pids, fmt.Errorf("start worker %d: %w", i, err)
		}
		pid := cmd.Process.Pid
		pids = append(pids, pid)
		s.log.Info().Int("pid", pid).Msg("worker started")

		// The child outlives this invocation; release it so it is not
		// reparented through us.
		if err := cmd.Process.Release(); err != nil {
			s.log.Warn().Err(err).Int("pid", pid).Msg("release worker process")
		}
	}

	if err := AppendPIDs(s.pidFile, pids); err != nil {
		return pids, err
	}
	return pids, nil
}

// StopWorkers sends the termination signal to every recorded PID and waits
// up to wait for them to exit. On Unix the signal is SIGTERM: workers finish
// their in-flight job before exiting, so no forced kill is sent. On Windows
// the process is killed outright (see terminate). PIDs still alive at the
// deadline are returned and kept in the PID file.
func (s *Supervisor) StopWorkers(wait time.Duration) (signalled, running []int, err error) {
	pids, err := ReadPIDs(s.pidFile)
	if err != nil {
		return nil, nil, err
	}
	if len(pids) == 0 {
		return nil, nil, nil
	}

	for _, pid := range pids {
		if err := terminate(pid); err != nil {
			s.log.Warn().Int("pid", pid).Msg("worker not running")
			continue
		}
		signalled = append(signalled, pid)
		s.log.Info().Int("pid", pid).Msg("sent termination signal")
	}

	deadline := time.Now().Add(wait)
	running = alivePIDs(pids)
	for len(running) > 0 && time.Now().Before(deadline) {
		time.Sleep(200 * time.Millisecond)
		running = alivePIDs(pids)
	}

	if len(running) == 0 {
		if err := os.Remove(s.pidFile); err != nil && !os.IsNotExist(err) {
			return signalled, running, fmt.Errorf("remove pid file: %w", err)
		}
		return signalled, running, nil
	}

	// Keep the stragglers on record; the operator can stop again or kill
	// them by hand.
	if err := WritePIDs(s.pidFile, running); err != nil {
		return signalled, running, err
	}
	return signalled, running, nil
}

// ActivePIDs returns the recorded worker PIDs that are still alive.
func (s *Supervisor) ActivePIDs() ([]int, error) {
	return Active(s.pidFile)
}

// Active reads pidFile and returns the recorded PIDs that are still alive.
func Active(pidFile string) ([]int, error) {
	pids, err := ReadPIDs(pidFile)
	if err != nil {
		return nil, err
	}
	return alivePIDs(pids), nil
}

func alivePIDs(pids []int) []int {
	var out []int
	for _, pid := range pids {
		if alive(pid) {
			out = append(out, pid)
		}
	}
	return out
}
