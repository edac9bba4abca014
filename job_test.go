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
	"testing"
	"time"

	"github.com/Zsedo/bigrquery/internal/testutil"
	gax "github.com/googleapis/gax-go/v2"
	bq "google.golang.org/api/bigquery/v2"
)

// jobServiceStub services status requests from an in-memory sequence of
// statuses. It panics when asked for more statuses than it was given, so
// tests can pin down the exact number of checks made.
type jobServiceStub struct {
	statuses  []*JobStatus // returned in order by jobStatus
	statusErr error        // if set, jobStatus fails with this error
	calls     int

	service
}

func (s *jobServiceStub) jobStatus(ctx context.Context, projectID, jobID string) (*JobStatus, error) {
	if s.statusErr != nil {
		s.calls++
		return nil, s.statusErr
	}
	st := s.statuses[s.calls]
	s.calls++
	return st, nil
}

// fixPollSleep replaces the pause between status checks with a counter.
// Call the returned function to undo.
func fixPollSleep(counter *int) func() {
	prev := pollSleep
	pollSleep = func(ctx context.Context, _ time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		*counter++
		return nil
	}
	return func() { pollSleep = prev }
}

func stubbedJob(s service) *Job {
	c := &Client{projectID: "project-id", service: s}
	return &Job{c: c, projectID: "project-id", jobID: "job-id", isQuery: true}
}

func TestJobWait(t *testing.T) {
	s := &jobServiceStub{
		statuses: []*JobStatus{
			{State: StatePending},
			{State: StateRunning},
			{State: StateRunning},
			{State: StateDone},
		},
	}
	j := stubbedJob(s)

	var sleeps int
	defer fixPollSleep(&sleeps)()

	status, err := j.Wait(context.Background(), WaitConfig{})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status.State != StateDone {
		t.Errorf("state: got %s, want %s", status.State, StateDone)
	}
	if got, want := s.calls, 4; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
	// One pause between each pair of checks, none after the last.
	if got, want := sleeps, 3; got != want {
		t.Errorf("pauses: got %d, want %d", got, want)
	}
}

func TestJobWaitJobFailure(t *testing.T) {
	s := &jobServiceStub{
		statuses: []*JobStatus{
			{State: StateRunning},
			{
				State:  StateError,
				Err:    &Error{Reason: "invalidQuery", Message: "bad syntax"},
				Errors: []*Error{{Reason: "invalidQuery", Message: "bad syntax"}},
			},
		},
	}
	j := stubbedJob(s)

	var sleeps int
	defer fixPollSleep(&sleeps)()

	// A job that ran and failed is a normal Wait result, not an error.
	status, err := j.Wait(context.Background(), WaitConfig{})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status.State != StateError {
		t.Fatalf("state: got %s, want %s", status.State, StateError)
	}
	if status.Err == nil || status.Err.Reason != "invalidQuery" {
		t.Errorf("status.Err: got %v, want the job's error result", status.Err)
	}
	if got, want := s.calls, 2; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
}

func TestJobWaitStatusCheckFails(t *testing.T) {
	boom := errors.New("boom")
	s := &jobServiceStub{statusErr: boom}
	j := stubbedJob(s)

	var sleeps int
	defer fixPollSleep(&sleeps)()

	_, err := j.Wait(context.Background(), WaitConfig{})
	var pe *PollingError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T (%v), want *PollingError", err, err)
	}
	if pe.JobID != "job-id" {
		t.Errorf("JobID: got %q, want %q", pe.JobID, "job-id")
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause not in chain: %v", err)
	}
	// A failed check ends the wait immediately; it is not reissued.
	if got, want := s.calls, 1; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
}

func TestJobWaitMaxAttempts(t *testing.T) {
	s := &jobServiceStub{
		statuses: []*JobStatus{
			{State: StatePending},
			{State: StateRunning},
		},
	}
	j := stubbedJob(s)

	var sleeps int
	defer fixPollSleep(&sleeps)()

	_, err := j.Wait(context.Background(), WaitConfig{MaxAttempts: 2})
	var te *WaitTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("got %T (%v), want *WaitTimeoutError", err, err)
	}
	if te.Attempts != 2 {
		t.Errorf("Attempts: got %d, want 2", te.Attempts)
	}
	if te.LastState != StateRunning {
		t.Errorf("LastState: got %s, want %s", te.LastState, StateRunning)
	}
	if got, want := s.calls, 2; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
	if got, want := sleeps, 1; got != want {
		t.Errorf("pauses: got %d, want %d", got, want)
	}
}

func TestJobWaitMaxWait(t *testing.T) {
	s := &jobServiceStub{statuses: []*JobStatus{{State: StatePending}}}
	j := stubbedJob(s)

	prev := pollSleep
	pollSleep = func(ctx context.Context, _ time.Duration) error {
		// Only the expiry of the wait budget can end this pause.
		<-ctx.Done()
		return ctx.Err()
	}
	defer func() { pollSleep = prev }()

	_, err := j.Wait(context.Background(), WaitConfig{MaxWait: 10 * time.Millisecond})
	var te *WaitTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("got %T (%v), want *WaitTimeoutError", err, err)
	}
	if te.LastState != StatePending {
		t.Errorf("LastState: got %s, want %s", te.LastState, StatePending)
	}
	if got, want := s.calls, 1; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
}

func TestJobWaitCancellation(t *testing.T) {
	s := &jobServiceStub{statuses: []*JobStatus{{State: StatePending}}}
	j := stubbedJob(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	prev := pollSleep
	pollSleep = func(ctx context.Context, _ time.Duration) error {
		// Cancel the caller's context during the pause.
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	defer func() { pollSleep = prev }()

	_, err := j.Wait(ctx, WaitConfig{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	var te *WaitTimeoutError
	if errors.As(err, &te) {
		t.Error("cancellation reported as a timeout")
	}
	if got, want := s.calls, 1; got != want {
		t.Errorf("status checks: got %d, want %d", got, want)
	}
}

func TestJobWaitBackoffPauses(t *testing.T) {
	s := &jobServiceStub{
		statuses: []*JobStatus{
			{State: StatePending},
			{State: StatePending},
			{State: StatePending},
			{State: StateDone},
		},
	}
	j := stubbedJob(s)

	var pauses []time.Duration
	prev := pollSleep
	pollSleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	defer func() { pollSleep = prev }()

	_, err := j.Wait(context.Background(), WaitConfig{
		Backoff: gax.Backoff{Initial: 100 * time.Millisecond, Max: 200 * time.Millisecond, Multiplier: 2},
	})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(pauses) != 3 {
		t.Fatalf("pauses: got %d, want 3", len(pauses))
	}
	for i, p := range pauses {
		if p <= 0 || p > 200*time.Millisecond {
			t.Errorf("pause %d: got %v, want in (0, 200ms]", i, p)
		}
	}
}

func TestJobStatus(t *testing.T) {
	s := &jobServiceStub{statuses: []*JobStatus{{State: StateRunning}}}
	j := stubbedJob(s)

	if j.LastStatus() != nil {
		t.Fatalf("LastStatus before any check: got %v, want nil", j.LastStatus())
	}
	st, err := j.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateRunning {
		t.Errorf("state: got %s, want %s", st.State, StateRunning)
	}
	if j.LastStatus() != st {
		t.Error("LastStatus not updated by Status")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, test := range []struct {
		s    State
		want bool
	}{
		{StateUnspecified, false},
		{StatePending, false},
		{StateRunning, false},
		{StateDone, true},
		{StateError, true},
	} {
		if got := test.s.Terminal(); got != test.want {
			t.Errorf("%s.Terminal(): got %t, want %t", test.s, got, test.want)
		}
	}
}

func TestSetJobRef(t *testing.T) {
	job := &bq.Job{}
	setJobRef(job, "", "project-id")
	if job.JobReference != nil {
		t.Error("empty job ID: JobReference set; the service should assign the ID")
	}
	setJobRef(job, "job-id", "project-id")
	want := &bq.JobReference{JobId: "job-id", ProjectId: "project-id"}
	if diff := testutil.Diff(job.JobReference, want); diff != "" {
		t.Errorf("-got, +want:\n%s", diff)
	}
}

type getJobServiceStub struct {
	service
}

func (s *getJobServiceStub) getJob(ctx context.Context, projectID, jobID string) (*Job, error) {
	return &Job{
		projectID:   projectID,
		jobID:       jobID,
		isQuery:     true,
		destination: &Table{ProjectID: "p", DatasetID: "d", TableID: "t"},
	}, nil
}

func TestJobFromID(t *testing.T) {
	c := &Client{projectID: "project-id", service: &getJobServiceStub{}}
	j, err := c.JobFromID(context.Background(), "job-id")
	if err != nil {
		t.Fatalf("JobFromID: %v", err)
	}
	if j.ID() != "job-id" {
		t.Errorf("ID: got %q, want %q", j.ID(), "job-id")
	}
	if j.c != c {
		t.Error("client not attached to job")
	}
	if d := j.DestinationTable(); d == nil || d.c != c {
		t.Error("client not attached to destination table")
	}
}
