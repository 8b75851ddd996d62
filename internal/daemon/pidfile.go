package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PIDFile tracks the background review server process.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Write writes the current process's PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes the given PID to the file.
func (p *PIDFile) WritePID(pid int) error {
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o644)
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}
	return pid, nil
}

// Remove deletes the PID file.
func (p *PIDFile) Remove() error {
	return os.Remove(p.Path)
}

// Acquire records pid in the file unless another live process already owns
// it. A stale file left by a dead process is replaced.
func (p *PIDFile) Acquire(pid int) error {
	if owner, alive := p.IsRunning(); alive && owner != pid {
		return fmt.Errorf("already running (pid %d)", owner)
	}
	return p.WritePID(pid)
}

// Release removes the file if it still names pid.
func (p *PIDFile) Release(pid int) error {
	owner, err := p.Read()
	if err != nil || owner != pid {
		return nil
	}
	return p.Remove()
}
