package refresh

import (
	"context"
	"sync"
	"time"
)

// JobState is the lifecycle state of a background refresh job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// JobStatus is a snapshot of a background job.
type JobStatus struct {
	State      JobState   `json:"state"`
	Total      int        `json:"total"`
	Done       int        `json:"done"`
	Failed     int        `json:"failed"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Job tracks one detached background refresh.
type Job struct {
	mu         sync.Mutex
	state      JobState
	total      int
	done       int
	failed     int
	startedAt  time.Time
	finishedAt time.Time
	cancelFn   context.CancelFunc
}

func newJob(total int, cancel context.CancelFunc) *Job {
	return &Job{state: JobPending, total: total, cancelFn: cancel}
}

// Running reports whether the job is pending or running.
func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == JobPending || j.state == JobRunning
}

// Status returns a snapshot.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := JobStatus{
		State:  j.state,
		Total:  j.total,
		Done:   j.done,
		Failed: j.failed,
	}
	if !j.startedAt.IsZero() {
		t := j.startedAt
		s.StartedAt = &t
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		s.FinishedAt = &t
	}
	return s
}

func (j *Job) cancel() {
	j.cancelFn()
}

func (j *Job) start() {
	j.mu.Lock()
	j.state = JobRunning
	j.startedAt = time.Now().UTC()
	j.mu.Unlock()
}

func (j *Job) recordSuccess() {
	j.mu.Lock()
	j.done++
	j.mu.Unlock()
}

func (j *Job) recordFailure() {
	j.mu.Lock()
	j.failed++
	j.mu.Unlock()
}

func (j *Job) counts() (done, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done, j.failed
}

func (j *Job) finish(state JobState) {
	j.mu.Lock()
	j.state = state
	j.finishedAt = time.Now().UTC()
	j.mu.Unlock()
}
