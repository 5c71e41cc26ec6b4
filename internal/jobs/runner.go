package jobs

import (
	"context"
	"sync"
	"time"
)

type Job func(ctx context.Context) error

// Runner запускает эффекты и периодические задачи; все они останавливаются вместе с ctx.
type Runner struct {
	ctx context.Context
	wg  sync.WaitGroup
}

func New(ctx context.Context) *Runner { return &Runner{ctx: ctx} }

// Go выполняет fn один раз в отдельной горутине.
func (r *Runner) Go(name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(name, fn)
	}()
}

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// Wait ждёт завершения всех запущенных задач.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
