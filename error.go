// Copyright 2025 Google LLC
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
	"fmt"
	"time"

	bq "google.golang.org/api/bigquery/v2"
)

// An Error contains detailed information about an error reported by the
// service while running a job.
type Error struct {
	// Mirrors bq.ErrorProto, but drops DebugInfo.
	Location, Message, Reason string
}

func (e Error) Error() string {
	return fmt.Sprintf("{Location: %q; Message: %q; Reason: %q}", e.Location, e.Message, e.Reason)
}

func bqToError(ep *bq.ErrorProto) *Error {
	if ep == nil {
		return nil
	}
	return &Error{
		Location: ep.Location,
		Message:  ep.Message,
		Reason:   ep.Reason,
	}
}

// A SubmissionError reports that the service refused to accept a new job.
// Submission is never retried: a rejected request may nevertheless have
// created the job on the service.
type SubmissionError struct {
	err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("bigrquery: submitting job: %v", e.err)
}

func (e *SubmissionError) Unwrap() error { return e.err }

// A PollingError reports a failed status check for a running job. It is
// distinct from the job itself failing; see JobExecutionError for that.
type PollingError struct {
	// JobID identifies the job whose status could not be determined.
	JobID string

	err error
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("bigrquery: job %q: checking status: %v", e.JobID, e.err)
}

func (e *PollingError) Unwrap() error { return e.err }

// A JobExecutionError reports a job that reached a terminal error state on
// the service. The job consumed resources but produced no readable result.
type JobExecutionError struct {
	// JobID identifies the failed job.
	JobID string

	// Reason is the error that caused the job to fail.
	Reason *Error

	// Errors lists all errors encountered while the job ran. Not every
	// entry is fatal.
	Errors []*Error
}

func (e *JobExecutionError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("bigrquery: job %q failed", e.JobID)
	}
	return fmt.Sprintf("bigrquery: job %q failed: %v", e.JobID, e.Reason)
}

func (e *JobExecutionError) Unwrap() error {
	if e.Reason == nil {
		return nil
	}
	return e.Reason
}

// A FetchError reports a result page that could not be retrieved. Rows
// delivered before the failure remain valid.
type FetchError struct {
	// Table identifies the table being read, in
	// projectID:datasetID.tableID form.
	Table string

	// Page is the 1-based number of the page that failed.
	Page int

	// PageToken is the token the failed request carried. It may be
	// empty for the first page.
	PageToken string

	err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("bigrquery: reading %s: page %d: %v", e.Table, e.Page, e.err)
}

func (e *FetchError) Unwrap() error { return e.err }

// A WaitTimeoutError reports that Wait gave up before the job reached a
// terminal state. The job keeps running on the service; only the wait is
// abandoned.
type WaitTimeoutError struct {
	// JobID identifies the job that was being waited on.
	JobID string

	// LastState is the most recently observed state of the job.
	LastState State

	// Attempts is the number of status checks made.
	Attempts int

	// Elapsed is the total time spent waiting.
	Elapsed time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("bigrquery: job %q: gave up waiting after %d status checks in %s (last state %s)",
		e.JobID, e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastState)
}
