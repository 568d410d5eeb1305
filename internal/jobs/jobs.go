// Package jobs runs screen analyses in the background on a fixed worker pool
// and keeps a bounded history of job outcomes.
package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// RunFunc executes one analysis and returns its result.
type RunFunc func(ctx context.Context) (*schema.AnalysisResult, error)

// CompletionFunc observes a finished job. Invoked outside the manager lock.
type CompletionFunc func(snapshot schema.JobSnapshot)

// job is the internal lifecycle record for one submitted analysis.
type job struct {
	id          string
	fingerprint string
	status      schema.JobStatus
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time

	run    RunFunc
	onDone CompletionFunc

	result *schema.AnalysisResult
	err    error
	done   chan struct{}
}

// Manager owns the worker pool and the job table. Job IDs are opaque and
// strictly increasing; history is FIFO-bounded and only completed jobs are
// evicted, so queued and running jobs are always observable.
type Manager struct {
	mu            sync.Mutex
	jobs          map[string]*job
	order         []string
	byFingerprint map[string]string
	globalDone    []CompletionFunc
	nextID        int64
	closed        bool

	queue        chan *job
	wg           sync.WaitGroup
	cancel       context.CancelFunc
	historyLimit int
}

// NewManager starts a manager with the given pool size and history bound.
// Non-positive arguments fall back to the documented defaults.
func NewManager(workers, historyLimit int) *Manager {
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}
	if historyLimit <= 0 {
		historyLimit = contract.DefaultHistoryLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		jobs:          make(map[string]*job),
		byFingerprint: make(map[string]string),
		queue:         make(chan *job, 256),
		cancel:        cancel,
		historyLimit:  historyLimit,
	}
	m.wg.Add(workers)
	for range workers {
		go m.worker(ctx)
	}
	return m
}

// Submit enqueues an analysis. When an incomplete job with the same
// fingerprint already exists its ID is returned instead of starting a
// duplicate; the second return reports whether the request coalesced.
func (m *Manager) Submit(fingerprint string, run RunFunc, onDone CompletionFunc) (string, bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", false, fmt.Errorf("job manager is shut down")
	}
	if existing, ok := m.byFingerprint[fingerprint]; ok {
		m.mu.Unlock()
		return existing, true, nil
	}

	m.nextID++
	j := &job{
		id:          fmt.Sprintf("job-%06d", m.nextID),
		fingerprint: fingerprint,
		status:      schema.JobQueued,
		submittedAt: time.Now(),
		run:         run,
		onDone:      onDone,
		done:        make(chan struct{}),
	}

	select {
	case m.queue <- j:
	default:
		m.mu.Unlock()
		return "", false, fmt.Errorf("job queue is full")
	}

	m.jobs[j.id] = j
	m.order = append(m.order, j.id)
	if fingerprint != "" {
		m.byFingerprint[fingerprint] = j.id
	}
	m.evictLocked()
	m.mu.Unlock()
	return j.id, false, nil
}

// OnCompletion registers a callback invoked for every job that completes
// after registration, alongside any per-submission callback.
func (m *Manager) OnCompletion(fn CompletionFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.globalDone = append(m.globalDone, fn)
	m.mu.Unlock()
}

// Status returns the lifecycle snapshot for one job. IDs this manager issued
// but has since evicted report an unknown status; IDs it never issued are a
// not-found error.
func (m *Manager) Status(jobID string) (schema.JobSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		if m.issuedLocked(jobID) {
			return schema.JobSnapshot{JobID: jobID, Status: schema.JobUnknown}, nil
		}
		return schema.JobSnapshot{}, &contract.JobNotFoundError{JobID: jobID}
	}
	return snapshotLocked(j), nil
}

// List returns snapshots for all retained jobs, newest first.
func (m *Manager) List() []schema.JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.JobSnapshot, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if j, ok := m.jobs[m.order[i]]; ok {
			out = append(out, snapshotLocked(j))
		}
	}
	return out
}

// Result blocks until the job completes or ctx is canceled, then returns the
// job's outcome.
func (m *Manager) Result(ctx context.Context, jobID string) (*schema.AnalysisResult, error) {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok {
		return nil, &contract.JobNotFoundError{JobID: jobID}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return j.result, j.err
}

// Close stops accepting jobs, cancels running work and waits for the pool.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// worker drains the queue until shutdown.
func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for j := range m.queue {
		m.mu.Lock()
		j.status = schema.JobRunning
		j.startedAt = time.Now()
		m.mu.Unlock()

		result, err := j.run(ctx)

		m.mu.Lock()
		j.result = result
		j.err = err
		j.finishedAt = time.Now()
		if err != nil {
			j.status = schema.JobFailed
		} else {
			j.status = schema.JobFinished
		}
		delete(m.byFingerprint, j.fingerprint)
		m.evictLocked()
		snapshot := snapshotLocked(j)
		callbacks := make([]CompletionFunc, 0, len(m.globalDone)+1)
		if j.onDone != nil {
			callbacks = append(callbacks, j.onDone)
		}
		callbacks = append(callbacks, m.globalDone...)
		close(j.done)
		m.mu.Unlock()

		for _, cb := range callbacks {
			m.notify(cb, snapshot)
		}
	}
}

// notify runs one completion callback; a panic in the callback is logged
// and does not propagate to the worker.
func (m *Manager) notify(cb CompletionFunc, snapshot schema.JobSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			contract.LogWarn("completion callback panicked", fmt.Errorf("job %s: %v", snapshot.JobID, r))
		}
	}()
	cb(snapshot)
}

// issuedLocked reports whether this manager has ever handed out jobID.
func (m *Manager) issuedLocked(jobID string) bool {
	seq, ok := strings.CutPrefix(jobID, "job-")
	if !ok {
		return false
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return false
	}
	return n >= 1 && n <= m.nextID
}

// evictLocked trims history to the bound, oldest completed jobs first.
// Incomplete jobs are never evicted, so history can transiently exceed the
// bound while the pool is saturated.
func (m *Manager) evictLocked() {
	for len(m.order) > m.historyLimit {
		evicted := false
		for i, id := range m.order {
			j := m.jobs[id]
			if j.status == schema.JobFinished || j.status == schema.JobFailed {
				delete(m.jobs, id)
				m.order = append(m.order[:i], m.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func snapshotLocked(j *job) schema.JobSnapshot {
	snap := schema.JobSnapshot{
		JobID:       j.id,
		Status:      j.status,
		SubmittedAt: j.submittedAt,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	return snap
}
