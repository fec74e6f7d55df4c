package monitor

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSampler reads counters for the running process through gopsutil.
type ProcessSampler struct {
	proc *process.Process
}

func NewProcessSampler() (*ProcessSampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("opening process %d: %w", os.Getpid(), err)
	}
	return &ProcessSampler{proc: p}, nil
}

func (s *ProcessSampler) ProcessCPUPercent() (float64, error) {
	return s.proc.Percent(0)
}

func (s *ProcessSampler) SystemCPUPercent() (float64, error) {
	pcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("no cpu samples")
	}
	return pcts[0], nil
}

func (s *ProcessSampler) ProcessRSS() (uint64, error) {
	info, err := s.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
