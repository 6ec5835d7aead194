// Package refresh drives the two-phase update of country compliance
// records: the visible countries first, sequentially and with per-entity
// progress, then the remainder as a detached background job. After each
// phase the reference links of the refreshed records are swept through the
// link health cache.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
)

// Stage identifies which phase a progress update belongs to.
type Stage string

const (
	StageVisible    Stage = "visible"
	StageBackground Stage = "background"
	StageComplete   Stage = "complete"
)

// Progress is one progress update during a refresh. The zero value means
// "no refresh underway".
type Progress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
	Stage      Stage  `json:"stage,omitempty"`
}

// Event types published by the orchestrator.
const (
	EventProgress     = "refresh.progress"
	EventError        = "refresh.error"
	EventNotice       = "notice"
	EventLinksUpdated = "links.updated"
)

// NotifyFunc receives orchestrator events (progress updates, error and
// notice messages, link sweep completions).
type NotifyFunc func(event string, data any)

// State of the orchestrator's refresh cycle.
type State string

const (
	StateIdle       State = "idle"
	StateForeground State = "foreground-refreshing"
	StateFinalizing State = "finalizing"
	StateBackground State = "background-refreshing"
)

// Status is a snapshot of the orchestrator for the API.
type Status struct {
	State      State      `json:"state"`
	Progress   Progress   `json:"progress"`
	LastError  string     `json:"last_error,omitempty"`
	Background *JobStatus `json:"background,omitempty"`
}

// Orchestrator serializes refresh cycles. A second Refresh while one is
// running (including its background phase) is rejected with
// apperr.ErrRefreshInProgress rather than queued or merged.
type Orchestrator struct {
	provider        compliance.Provider
	links           *linkhealth.Cache
	notify          NotifyFunc
	backgroundDelay time.Duration
	logger          *slog.Logger

	mu        sync.Mutex
	state     State
	progress  Progress
	lastError string
	job       *Job
}

// New creates an Orchestrator. notify may be nil.
func New(provider compliance.Provider, links *linkhealth.Cache, notify NotifyFunc, backgroundDelay time.Duration, logger *slog.Logger) *Orchestrator {
	if notify == nil {
		notify = func(string, any) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider:        provider,
		links:           links,
		notify:          notify,
		backgroundDelay: backgroundDelay,
		logger:          logger,
		state:           StateIdle,
	}
}

// Status returns a snapshot of the current cycle.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Status{
		State:     o.state,
		Progress:  o.progress,
		LastError: o.lastError,
	}
	if o.job != nil {
		js := o.job.Status()
		s.Background = &js
	}
	return s
}

// Refresh runs the foreground phase over the visible countries, then the
// finalizing link sweep, and schedules the background phase for the
// remaining countries. It returns once the foreground result is known; the
// background phase is detached and reports through notify only.
func (o *Orchestrator) Refresh(ctx context.Context, visible []string) error {
	if err := o.begin(); err != nil {
		return err
	}

	records, err := o.foreground(ctx, visible)
	if err != nil {
		o.fail(err)
		return err
	}

	o.finalize(ctx, visible, records)

	o.scheduleBackground(visible)
	return nil
}

// begin transitions Idle -> ForegroundRefreshing, rejecting overlap.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return apperr.ErrRefreshInProgress
	}
	if o.job != nil && o.job.Running() {
		return apperr.ErrRefreshInProgress
	}
	o.state = StateForeground
	o.lastError = ""
	o.progress = Progress{}
	return nil
}

// foreground refreshes the visible countries one at a time, emitting a
// progress update after each. Sequential on purpose: it yields smooth,
// strictly ordered per-entity progress instead of one indeterminate wait.
func (o *Orchestrator) foreground(ctx context.Context, visible []string) ([]*compliance.Record, error) {
	total := len(visible)
	o.emitProgress(Progress{
		Percentage: 0,
		Message:    fmt.Sprintf("Refreshing %d countries", total),
		Stage:      StageVisible,
	})

	records := make([]*compliance.Record, 0, total)
	for i, id := range visible {
		rec, err := o.provider.Refresh(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("refresh %s: %w", id, err)
		}
		records = append(records, rec)
		o.emitProgress(Progress{
			Percentage: percent(i+1, total),
			Message:    fmt.Sprintf("Refreshed %s (%d/%d)", rec.Name, i+1, total),
			Stage:      StageVisible,
		})
	}
	return records, nil
}

// finalize emits the finalizing update, re-fetches the refreshed records for
// immediate display, and sweeps their reference links.
func (o *Orchestrator) finalize(ctx context.Context, visible []string, records []*compliance.Record) {
	o.setState(StateFinalizing)
	o.emitProgress(Progress{
		Percentage: 100,
		Message:    "Finalizing: validating reference links",
		Stage:      StageVisible,
	})

	var urls []string
	for i, id := range visible {
		rec, err := o.provider.Record(ctx, id)
		if err != nil {
			// Refresh succeeded moments ago; fall back to what it returned.
			rec = records[i]
		}
		urls = append(urls, rec.ReferenceURLs()...)
	}

	o.sweep(ctx, urls)

	o.emitProgress(Progress{
		Percentage: 100,
		Message:    "Refresh complete",
		Stage:      StageComplete,
	})
}

// scheduleBackground computes the complement set and launches the detached
// background job. The job carries its own context so closing the HTTP
// request that started the refresh does not abort it; CancelBackground is
// the explicit way to stop it.
func (o *Orchestrator) scheduleBackground(visible []string) {
	remaining, err := o.complement(visible)
	if err != nil {
		o.logger.Warn("background: listing known countries failed", slog.String("error", err.Error()))
		o.reset()
		return
	}
	if len(remaining) == 0 {
		o.reset()
		return
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := newJob(len(remaining), cancel)

	o.mu.Lock()
	o.state = StateBackground
	o.job = job
	o.mu.Unlock()

	go o.runBackground(jobCtx, job, remaining)
}

func (o *Orchestrator) runBackground(ctx context.Context, job *Job, ids []string) {
	defer o.reset()

	select {
	case <-time.After(o.backgroundDelay):
	case <-ctx.Done():
		job.finish(JobCancelled)
		return
	}

	job.start()
	o.logger.Info("background refresh started", slog.Int("countries", len(ids)))

	var urls []string
	for _, id := range ids {
		if ctx.Err() != nil {
			job.finish(JobCancelled)
			o.notify(EventNotice, map[string]string{"message": "Background refresh cancelled"})
			return
		}
		rec, err := o.provider.Refresh(ctx, id)
		if err != nil {
			job.recordFailure()
			o.logger.Warn("background refresh failed",
				slog.String("country", id), slog.String("error", err.Error()))
			continue
		}
		job.recordSuccess()
		urls = append(urls, rec.ReferenceURLs()...)
	}

	o.sweep(ctx, urls)

	done, failed := job.counts()
	if failed > 0 {
		job.finish(JobFailed)
		o.notify(EventNotice, map[string]string{
			"message": fmt.Sprintf("Background refresh finished: %d updated, %d failed", done, failed),
		})
	} else {
		job.finish(JobCompleted)
		o.notify(EventNotice, map[string]string{
			"message": fmt.Sprintf("Background refresh finished: %d countries updated", done),
		})
	}
}

// CancelBackground cancels a running background job. It reports whether a
// job was there to cancel.
func (o *Orchestrator) CancelBackground() bool {
	o.mu.Lock()
	job := o.job
	o.mu.Unlock()
	if job == nil || !job.Running() {
		return false
	}
	job.cancel()
	return true
}

// sweep re-validates links and announces the result.
func (o *Orchestrator) sweep(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	o.links.CheckBatch(ctx, urls)
	o.notify(EventLinksUpdated, map[string]int{"checked": len(urls)})
}

func (o *Orchestrator) complement(visible []string) ([]string, error) {
	all, err := o.provider.ListAllKnownIDs(context.Background())
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range all {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// fail records the error, resets progress, and returns to Idle without
// starting the background phase.
func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.state = StateIdle
	o.progress = Progress{}
	o.lastError = err.Error()
	o.mu.Unlock()
	o.logger.Error("foreground refresh failed", slog.String("error", err.Error()))
	o.notify(EventError, map[string]string{"message": err.Error()})
}

// reset returns to Idle with zeroed progress.
func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.state = StateIdle
	o.progress = Progress{}
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) emitProgress(p Progress) {
	o.mu.Lock()
	o.progress = p
	o.mu.Unlock()
	o.notify(EventProgress, p)
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
