package process

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
)

// Probe inspects live processes through the OS
type Probe interface {
	// Stopped reports whether pid is in the stopped state
	Stopped(pid int) bool
	// Usage returns resident memory and CPU usage of pid
	Usage(pid int) (*types.Usage, error)
}

// SystemProbe reads process state from /proc via gopsutil
type SystemProbe struct{}

// Stopped reports whether pid is stopped by a signal
func (SystemProbe) Stopped(pid int) bool {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	status, err := p.Status()
	if err != nil {
		return false
	}
	for _, st := range status {
		if st == process.Stop {
			return true
		}
	}
	return false
}

// Usage returns resource usage for pid
func (SystemProbe) Usage(pid int) (*types.Usage, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("inspect process %d: %w", pid, err)
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("memory info for %d: %w", pid, err)
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return nil, fmt.Errorf("cpu usage for %d: %w", pid, err)
	}

	return &types.Usage{
		RSSBytes:   mem.RSS,
		CPUPercent: cpu,
	}, nil
}
