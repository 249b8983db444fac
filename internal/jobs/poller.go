package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

// ErrAbandoned is returned by Wait for a job cancelled before it finished.
var ErrAbandoned = errors.New("job abandoned before reaching a terminal state")

// State of a job. Succeeded and Failed are terminal.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePolling
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Result is what a terminal job surfaces to the user.
type Result struct {
	State State
	// Output and ExitStatus are set on success.
	Output     string
	ExitStatus string
	// Message is the user-facing text: program output on success, the
	// failure reason otherwise.
	Message string
	Err     error
}

// Event reports a transition or a pending poll.
type Event struct {
	JobID   string
	State   State
	Status  string
	Attempt int
	Result  *Result
}

// Options tune a job's timers and observation.
type Options struct {
	// PollInterval is the delay between a pending answer and the next poll.
	PollInterval time.Duration
	// Timeout bounds the polling phase regardless of how many polls run.
	Timeout time.Duration
	// OnEvent runs on the job's goroutine. It must not block for long.
	OnEvent func(Event)
}

func DefaultOptions() Options {
	return Options{
		PollInterval: 2 * time.Second,
		Timeout:      30 * time.Second,
	}
}

// Job drives one submission through submit, poll and a terminal state.
type Job struct {
	id     string
	client Client
	opts   Options
	sub    Submission

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	route     string
	polls     int
	result    *Result
	abandoned bool

	emitMu sync.Mutex
	log    *logrus.Entry
}

type pollOutcome struct {
	resp *StatusResponse
	err  error
}

func newJob(parent context.Context, client Client, sub Submission, opts Options) *Job {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &Job{
		id:     id,
		client: client,
		opts:   opts,
		sub:    sub,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateIdle,
		log:    logging.NewLogger("jobs").WithField("job", id),
	}
}

// Start launches a job on its own goroutine. Runner uses it to replace
// jobs; callers that manage a single job can use it directly.
func Start(ctx context.Context, client Client, sub Submission, opts Options) *Job {
	j := newJob(ctx, client, sub, opts)
	go j.run()
	return j
}

func (j *Job) ID() string { return j.id }

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Route returns the status route recorded after a successful submission.
func (j *Job) Route() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.route
}

// Polls returns how many status requests have been issued.
func (j *Job) Polls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.polls
}

// Result returns the terminal result, if the job reached one.
func (j *Job) Result() (Result, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil {
		return Result{}, false
	}
	return *j.result, true
}

// Done is closed once the job goroutine has stopped.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job stops or ctx ends.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	if res, ok := j.Result(); ok {
		return res, nil
	}
	return Result{}, ErrAbandoned
}

// Cancel abandons a job that has not finished: timers stop, the in-flight
// request is cancelled and no later answer changes state or fires OnEvent.
// An OnEvent call already running completes before Cancel returns, so
// Cancel must not be called from OnEvent. Cancelling a finished job does
// nothing.
func (j *Job) Cancel() {
	j.emitMu.Lock()
	defer j.emitMu.Unlock()

	j.mu.Lock()
	if j.state.Terminal() || j.abandoned {
		j.mu.Unlock()
		return
	}
	j.abandoned = true
	j.mu.Unlock()

	j.cancel()
	j.log.Debug("Job cancelled")
}

func (j *Job) run() {
	defer close(j.done)
	defer j.cancel()

	if !j.transition(StateSubmitting, "") {
		return
	}

	ack, err := j.client.Submit(j.ctx, j.sub)
	if j.stopped() {
		return
	}
	if err != nil {
		j.fail(cserrors.JobTransport(err))
		return
	}
	if ack == nil {
		j.fail(cserrors.JobSubmitRejected(""))
		return
	}
	if ack.Status != StatusPushSuccess {
		j.fail(cserrors.JobSubmitRejected(ack.Status))
		return
	}

	j.mu.Lock()
	j.route = ack.StatusURL
	j.mu.Unlock()

	deadline := time.NewTimer(j.opts.Timeout)
	defer deadline.Stop()

	if !j.transition(StatePolling, StatusPushSuccess) {
		return
	}

	var next *time.Timer
	var nextC <-chan time.Time
	defer func() {
		if next != nil {
			next.Stop()
		}
	}()

	// At most one poll is outstanding, so one slot is enough for an answer
	// that arrives after the loop has returned.
	results := make(chan pollOutcome, 1)
	poll := func() {
		j.mu.Lock()
		j.polls++
		j.mu.Unlock()
		go func(route string) {
			resp, err := j.client.Status(j.ctx, route)
			results <- pollOutcome{resp: resp, err: err}
		}(ack.StatusURL)
	}
	poll()

	for {
		select {
		case <-j.ctx.Done():
			j.abandon()
			return

		case <-deadline.C:
			j.fail(cserrors.JobTimeout(j.opts.Timeout.String()))
			return

		case <-nextC:
			nextC = nil
			poll()

		case out := <-results:
			if j.stopped() {
				return
			}
			if out.err != nil {
				j.fail(cserrors.JobTransport(out.err))
				return
			}
			if out.resp == nil {
				j.fail(cserrors.JobUnknownStatus(""))
				return
			}

			switch out.resp.Status {
			case StatusPending:
				j.emit(Event{State: StatePolling, Status: StatusPending, Attempt: j.Polls()})
				next = time.NewTimer(j.opts.PollInterval)
				nextC = next.C

			case StatusPopSuccess:
				res := Result{State: StateSucceeded, Message: DefaultSuccessOutput}
				if out.resp.Data != nil {
					res.Output = out.resp.Data.Response.Output
					res.ExitStatus = out.resp.Data.Response.Status
					if res.Output != "" {
						res.Message = res.Output
					}
				}
				j.finish(res)
				return

			case StatusPopIssue:
				j.fail(cserrors.JobFailed(out.resp.Message))
				return

			default:
				j.fail(cserrors.JobUnknownStatus(out.resp.Status))
				return
			}
		}
	}
}

// stopped reports whether the job was cancelled, directly or via its parent
// context, and marks it abandoned if so.
func (j *Job) stopped() bool {
	if j.ctx.Err() == nil {
		return false
	}
	j.abandon()
	return true
}

func (j *Job) abandon() {
	j.mu.Lock()
	if !j.state.Terminal() {
		j.abandoned = true
	}
	j.mu.Unlock()
}

func (j *Job) transition(to State, status string) bool {
	j.mu.Lock()
	if j.abandoned || j.state.Terminal() {
		j.mu.Unlock()
		return false
	}
	j.state = to
	j.mu.Unlock()

	j.log.WithField("state", to).Debug("Job state changed")
	j.emit(Event{State: to, Status: status})
	return true
}

func (j *Job) fail(err *cserrors.Error) {
	j.finish(Result{State: StateFailed, Message: err.Message, Err: err})
}

func (j *Job) finish(res Result) {
	j.mu.Lock()
	if j.abandoned || j.state.Terminal() {
		j.mu.Unlock()
		return
	}
	j.state = res.State
	j.result = &res
	attempt := j.polls
	j.mu.Unlock()

	entry := j.log.WithFields(logrus.Fields{"state": res.State, "polls": attempt})
	if res.Err != nil {
		entry.WithError(res.Err).Info("Job failed")
	} else {
		entry.Info("Job succeeded")
	}
	j.emit(Event{State: res.State, Attempt: attempt, Result: &res})
}

// emit delivers ev unless the job has been abandoned. Emissions are
// serialized so observers see events in order.
func (j *Job) emit(ev Event) {
	if j.opts.OnEvent == nil {
		return
	}
	j.emitMu.Lock()
	defer j.emitMu.Unlock()

	j.mu.Lock()
	abandoned := j.abandoned
	j.mu.Unlock()
	if abandoned {
		return
	}

	ev.JobID = j.id
	j.opts.OnEvent(ev)
}

// Runner owns at most one live job, the way one editor instance does:
// submitting again abandons the previous job.
type Runner struct {
	client Client
	opts   Options

	mu      sync.Mutex
	current *Job
}

func NewRunner(client Client, opts Options) *Runner {
	return &Runner{client: client, opts: opts}
}

// Submit cancels any unfinished job and starts a new one.
func (r *Runner) Submit(ctx context.Context, sub Submission) *Job {
	r.mu.Lock()
	prev := r.current
	job := Start(ctx, r.client, sub, r.opts)
	r.current = job
	r.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return job
}

// Current returns the most recently submitted job, or nil.
func (r *Runner) Current() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Close abandons the current job, if it is still running.
func (r *Runner) Close() {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()

	if current != nil {
		current.Cancel()
	}
}
