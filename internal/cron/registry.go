package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is a unit of scheduled maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs by unique name and runs them in registration order.
type Registry struct {
	order  []string
	byName map[string]Job
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Job{}}
}

// Register rejects nil jobs, blank names and duplicates.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Select returns a registry restricted to names, keeping registration order.
// No names selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("unknown cron job %q", name)
		}
		wanted[name] = true
	}
	selected := NewRegistry()
	for _, name := range r.order {
		if wanted[name] {
			_ = selected.Register(r.byName[name])
		}
	}
	return selected, nil
}

func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
