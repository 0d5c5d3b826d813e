package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
	mu        *sync.Mutex
	jobs      []*gocron.Job
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	// A slow run is skipped rather than stacked.
	svc.SingletonModeAll()
	return &service{svc, &sync.Mutex{}, nil}
}

func (s *service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Stop()
}

// ScheduleEvery runs task every interval, starting one interval from now.
func (s *service) ScheduleEvery(interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	if task == nil {
		return fmt.Errorf("missing task")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scheduler.Every(interval).WaitForSchedule().Do(task)
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, job)
	return nil
}
