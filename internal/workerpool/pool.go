package workerpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pool runs jobs with a bounded number of workers and an optional request
// rate cap, so bulk operations do not hammer the API server.
type Pool struct {
	job    chan Job
	g      *errgroup.Group
	subCtx context.Context

	lim *rate.Limiter
}

type Job func(ctx context.Context) error

// New builds a pool, rps 0 means unlimited.
func New(ctx context.Context, workerNum int, rps int32) (*Pool, error) {
	if workerNum <= 0 {
		return nil, errors.New("workerpool: worker num can not less than 0")
	}
	g, subCtx := errgroup.WithContext(ctx)
	// Including the dispatching worker
	g.SetLimit(workerNum + 1)

	var lim *rate.Limiter
	if rps != 0 {
		lim = rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1)
	}

	return &Pool{job: make(chan Job), g: g, lim: lim, subCtx: subCtx}, nil
}

func (p *Pool) Start() { p.g.Go(p.work) }

func (p *Pool) work() error {
	for j := range p.job {
		job := j
		p.g.Go(func() error {
			if p.lim != nil {
				if err := p.lim.Wait(p.subCtx); err != nil {
					return fmt.Errorf("workerpool: wait token %w", err)
				}
			}

			if err := job(p.subCtx); err != nil {
				return fmt.Errorf("workerpool: execute job %w", err)
			}

			return nil
		})
	}
	return nil
}

func (p *Pool) Submit(job Job) { p.job <- job }
func (p *Pool) Done()          { close(p.job) }
func (p *Pool) Wait() error    { return p.g.Wait() }
