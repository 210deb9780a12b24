package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Job is a named unit of scheduled work. Cron holds a standard 5-field
// cron expression interpreted in the scheduler's timezone.
type Job struct {
	Name        string
	Cron        string
	Description string
	Enabled     bool
	LastRun     *time.Time
	Run         func(ctx context.Context) error
}

// Registry holds the known jobs. Jobs can be toggled and run manually
// independently of the cron schedule.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Register adds a job. Re-registering a name replaces the previous job.
func (r *Registry) Register(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Name] = job
}

// Unregister removes a job by name, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[name]; !ok {
		return false
	}
	delete(r.jobs, name)
	return true
}

// Get returns the named job, or nil when unknown.
func (r *Registry) Get(name string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[name]
}

// List returns all jobs sorted by name.
func (r *Registry) List() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetEnabled toggles a job, reporting whether it exists.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return false
	}
	job.Enabled = enabled
	return true
}

// RunJob executes the named job immediately, bypassing the Enabled flag,
// and stamps LastRun.
func (r *Registry) RunJob(ctx context.Context, name string) error {
	r.mu.Lock()
	job, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}

	start := time.Now()
	err := job.Run(ctx)

	r.mu.Lock()
	job.LastRun = &start
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("job %q: %w", name, err)
	}
	return nil
}

// runScheduled is the cron entry point: it honors the Enabled flag and
// logs failures instead of propagating them.
func (r *Registry) runScheduled(name string) {
	r.mu.Lock()
	job, ok := r.jobs[name]
	enabled := ok && job.Enabled
	r.mu.Unlock()
	if !ok {
		return
	}
	if !enabled {
		log.Printf("scheduler: job %q disabled, skipping", name)
		return
	}
	if err := r.RunJob(context.Background(), name); err != nil {
		log.Printf("scheduler: %v", err)
	}
}
