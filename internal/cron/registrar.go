// Package cron implements the Recurring Job Registrar: an ambient
// convenience that lets an operator register a named job template on a
// cron expression. On each trigger it calls Store.Create with the
// template's fields, so a recurring job is indistinguishable, once
// created, from any ad hoc submission — it still flows through the same
// PENDING→SCHEDULED→RUNNING→terminal lifecycle under the Engine and
// Worker Pool. Uses github.com/robfig/cron/v3 for expression parsing
// rather than a hand-rolled evaluator (see DESIGN.md).
package cron

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"jobengine/internal/job"
	"jobengine/internal/store"
)

// Template is the fixed shape repeatedly submitted on each trigger.
type Template struct {
	Name              string
	JobType           string
	Payload           map[string]interface{}
	Priority          int
	EstimatedDuration float64

	// MaxRetries is a pointer so a template can pin an explicit 0
	// instead of always falling back to the store's configured default.
	MaxRetries *int
}

// Registrar owns one *cron.Cron scheduler and submits through Store on
// every fire. It never touches the Policy or Transport directly — it
// stays a pure producer of submissions.
type Registrar struct {
	c     *cron.Cron
	store store.Store
}

func New(s store.Store) *Registrar {
	return &Registrar{
		c:     cron.New(cron.WithSeconds()),
		store: s,
	}
}

// Register adds name on expr. Returns the cron.EntryID for later
// removal, and an error if expr doesn't parse.
func (r *Registrar) Register(name, expr string, tmpl Template) (cron.EntryID, error) {
	return r.c.AddFunc(expr, func() {
		ctx := context.Background()
		_, err := r.store.Create(ctx, job.Spec{
			Name:              tmpl.Name,
			JobType:           tmpl.JobType,
			Payload:           tmpl.Payload,
			Priority:          tmpl.Priority,
			EstimatedDuration: tmpl.EstimatedDuration,
			MaxRetries:        tmpl.MaxRetries,
		})
		if err != nil {
			log.Printf("cron: submit %q failed: %v", name, err)
		}
	})
}

func (r *Registrar) Remove(id cron.EntryID) { r.c.Remove(id) }

// Start runs the scheduler loop in its own goroutine, per robfig/cron's
// own contract; it returns immediately.
func (r *Registrar) Start() { r.c.Start() }

// Stop halts the scheduler and returns immediately with a context that
// is Done once any in-flight trigger has finished.
func (r *Registrar) Stop() context.Context { return r.c.Stop() }
