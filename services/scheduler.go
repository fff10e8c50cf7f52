package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          func(ctx context.Context) error
}

// Scheduler chạy mỗi job trên goroutine riêng. Một job không bao giờ chạy chồng lên chính nó.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

func (s *Scheduler) Add(jobs ...Job) {
	s.jobs = append(s.jobs, jobs...)
}

// Start khởi động các vòng lặp; tất cả dừng khi ctx bị huỷ.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			log.Printf("[scheduler] bỏ qua job %q: thiếu interval hoặc hàm chạy", job.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
		log.Printf("[scheduler] %s", job)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	delay := time.NewTimer(job.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] job %s panic: %v", job.Name, r)
		}
	}()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Printf("[scheduler] job %s lỗi sau %s: %v", job.Name, time.Since(started).Round(time.Millisecond), err)
	}
}

func (j Job) String() string {
	return fmt.Sprintf("%s every %s (first after %s)", j.Name, j.Interval, j.InitialDelay)
}
