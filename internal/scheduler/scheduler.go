package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// JobStatus is a point-in-time view of one scheduled job.
type JobStatus struct {
	Name        string     `json:"name"`
	Cron        string     `json:"cron"`
	Description string     `json:"description"`
	Enabled     bool       `json:"enabled"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// Scheduler drives the registry's jobs on their cron expressions.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	entries  map[string]cron.EntryID
	running  bool
}

func New(registry *Registry, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		registry: registry,
		entries:  make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Registry() *Registry { return s.registry }

// Schedule registers the job and binds it to its cron expression.
func (s *Scheduler) Schedule(job *Job) error {
	s.registry.Register(job)
	name := job.Name
	id, err := s.cron.AddFunc(job.Cron, func() {
		s.registry.runScheduled(name)
	})
	if err != nil {
		s.registry.Unregister(name)
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

// Unschedule removes the job from both the cron runner and the registry.
func (s *Scheduler) Unschedule(name string) bool {
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	s.registry.Unregister(name)
	return true
}

func (s *Scheduler) Start() {
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	log.Printf("scheduler: started with %d job(s)", len(s.entries))
}

// Stop halts the cron runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	log.Printf("scheduler: stopped")
}

func (s *Scheduler) Running() bool { return s.running }

// Status reports every scheduled job with its next fire time.
func (s *Scheduler) Status() []JobStatus {
	out := make([]JobStatus, 0, len(s.entries))
	for _, job := range s.registry.List() {
		st := JobStatus{
			Name:        job.Name,
			Cron:        job.Cron,
			Description: job.Description,
			Enabled:     job.Enabled,
			LastRun:     job.LastRun,
		}
		if id, ok := s.entries[job.Name]; ok && s.running {
			next := s.cron.Entry(id).Next
			if !next.IsZero() {
				st.NextRun = &next
			}
		}
		out = append(out, st)
	}
	return out
}
