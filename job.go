// Copyright 2015 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bigrquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zsedo/bigrquery/internal"
	"github.com/Zsedo/bigrquery/internal/trace"
	gax "github.com/googleapis/gax-go/v2"
	bq "google.golang.org/api/bigquery/v2"
)

// A Job represents an operation which has been submitted to BigQuery for
// processing.
type Job struct {
	c         *Client
	projectID string
	jobID     string

	isQuery     bool
	destination *Table

	lastStatus *JobStatus
}

// JobFromID creates a Job which refers to an existing BigQuery job. The job
// need not have been created by this package. For example, the job may have
// been created in the BigQuery console.
func (c *Client) JobFromID(ctx context.Context, id string) (*Job, error) {
	j, err := c.service.getJob(ctx, c.projectID, id)
	if err != nil {
		return nil, err
	}
	j.c = c
	if j.destination != nil {
		j.destination.c = c
	}
	return j, nil
}

// ID returns the job's ID.
func (j *Job) ID() string { return j.jobID }

// DestinationTable returns the table the job writes its result rows to, if
// the service has assigned one.
func (j *Job) DestinationTable() *Table { return j.destination }

// LastStatus returns the most recently retrieved status of the job, without
// contacting the service. It is nil until Status or Wait has been called.
func (j *Job) LastStatus() *JobStatus { return j.lastStatus }

// State is one of a sequence of states that a Job progresses through as it
// is processed.
type State int

const (
	// StateUnspecified is the zero value of State.
	StateUnspecified State = iota
	// StatePending means the job has been created and is waiting to be
	// scheduled.
	StatePending
	// StateRunning means the job is executing.
	StateRunning
	// StateDone means the job finished successfully.
	StateDone
	// StateError means the job finished and failed. A job never moves out
	// of StateError.
	StateError
)

var stateNames = map[State]string{
	StateUnspecified: "Unspecified",
	StatePending:     "Pending",
	StateRunning:     "Running",
	StateDone:        "Done",
	StateError:       "Error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether a job in state s has stopped executing, either
// successfully or with an error.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// JobStatus contains the current State of a job, and errors encountered
// while processing that job.
type JobStatus struct {
	State State

	// Err is the final error result of the job. It is set only when State
	// is StateError.
	Err *Error

	// All errors encountered during the running of the job.
	Errors []*Error

	// Statistics about the job.
	Statistics *JobStatistics
}

// JobStatistics contains statistics about a job.
type JobStatistics struct {
	CreationTime time.Time
	StartTime    time.Time
	EndTime      time.Time

	// TotalBytesProcessed is the number of bytes the query reads. For a
	// dry run it is an estimate of what running the query would read.
	TotalBytesProcessed int64

	// TotalBytesBilled is the number of bytes the query was billed for.
	TotalBytesBilled int64

	// CacheHit reports whether the query results were served from cache.
	CacheHit bool
}

func setJobRef(job *bq.Job, jobID, projectID string) {
	if jobID == "" {
		return
	}
	// We don't check whether projectID is empty; the server will return an
	// error when it encounters the resulting JobReference.
	job.JobReference = &bq.JobReference{
		JobId:     jobID,
		ProjectId: projectID,
	}
}

// DefaultMaxWait is how long Wait polls for job completion before giving up,
// when WaitConfig.MaxWait is zero.
const DefaultMaxWait = 30 * time.Minute

func defaultWaitBackoff() gax.Backoff {
	return gax.Backoff{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}

// For testing.
var pollSleep internal.SleepFunc = gax.Sleep

// WaitConfig controls how Wait polls for job completion.
type WaitConfig struct {
	// Backoff governs the pauses between status checks. Fields left at
	// their zero values take defaults: an initial pause of 500ms, doubling
	// up to a maximum of 30s.
	Backoff gax.Backoff

	// MaxAttempts caps the number of status checks; zero or a negative
	// value means no cap.
	MaxAttempts int

	// MaxWait bounds the total time Wait keeps polling. Zero means
	// DefaultMaxWait; a negative value means to wait forever.
	MaxWait time.Duration
}

// Status retrieves the current status of the job from BigQuery. The check is
// made once and never retried; if it cannot be completed, Status fails with
// a *PollingError.
func (j *Job) Status(ctx context.Context) (*JobStatus, error) {
	js, err := j.c.service.jobStatus(ctx, j.projectID, j.jobID)
	if err != nil {
		return nil, &PollingError{JobID: j.jobID, err: err}
	}
	j.lastStatus = js
	return js, nil
}

// Wait blocks until the job reaches a terminal state, checking the job's
// status periodically according to conf.
//
// A job that ran and failed is a normal Wait result: the returned JobStatus
// has State StateError and carries the job's errors. The error return covers
// trouble observing the job instead. It is a *PollingError if a status check
// failed, a *WaitTimeoutError if the attempt or time budget ran out first,
// or ctx.Err() if ctx was canceled between checks.
func (j *Job) Wait(ctx context.Context, conf WaitConfig) (js *JobStatus, err error) {
	ctx = trace.StartSpan(ctx, "github.com/Zsedo/bigrquery.Job.Wait")
	defer func() { trace.EndSpan(ctx, err) }()

	bo := defaultWaitBackoff()
	if conf.Backoff.Initial > 0 {
		bo.Initial = conf.Backoff.Initial
	}
	if conf.Backoff.Max > 0 {
		bo.Max = conf.Backoff.Max
	}
	if conf.Backoff.Multiplier > 0 {
		bo.Multiplier = conf.Backoff.Multiplier
	}
	maxWait := conf.MaxWait
	if maxWait == 0 {
		maxWait = DefaultMaxWait
	}
	waitCtx := ctx
	if maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}

	start := time.Now()
	attempts := 0
	var last *JobStatus
	err = internal.Poll(waitCtx, bo, conf.MaxAttempts, func() (bool, error) {
		attempts++
		s, err := j.Status(waitCtx)
		if err != nil {
			return true, err
		}
		last = s
		return s.State.Terminal(), nil
	}, pollSleep)
	if err == nil {
		return last, nil
	}

	lastState := StateUnspecified
	if last != nil {
		lastState = last.State
	}
	var pe *internal.PollExhaustedError
	if errors.As(err, &pe) {
		return nil, &WaitTimeoutError{
			JobID:     j.jobID,
			LastState: lastState,
			Attempts:  pe.Attempts,
			Elapsed:   time.Since(start),
		}
	}
	// Distinguish our own time budget expiring from the caller's context
	// ending: only the former is a timeout.
	if waitCtx.Err() != nil && ctx.Err() == nil {
		return nil, &WaitTimeoutError{
			JobID:     j.jobID,
			LastState: lastState,
			Attempts:  attempts,
			Elapsed:   time.Since(start),
		}
	}
	return nil, err
}

// Cancel requests that a job be cancelled. This method returns without
// waiting for cancellation to take effect. To check whether the job was
// cancelled, use Status or Wait.
//
// Cancelled jobs may still incur costs.
func (j *Job) Cancel(ctx context.Context) error {
	return j.c.service.cancelJob(ctx, j.projectID, j.jobID)
}
