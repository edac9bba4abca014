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

	"github.com/Zsedo/bigrquery/internal/trace"
)

// Read fetches the contents of the table.
func (t *Table) Read(ctx context.Context, conf ReadConfig) *RowIterator {
	return t.read(ctx, conf)
}

func (t *Table) read(ctx context.Context, conf ReadConfig) *RowIterator {
	rtc := &readTableConf{
		projectID: t.ProjectID,
		datasetID: t.DatasetID,
		tableID:   t.TableID,
	}
	pageSize := conf.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > 0 {
		rtc.paging.setRecordsPerRequest = true
		rtc.paging.recordsPerRequest = pageSize
	}
	it := newRowIterator(ctx, t.c.service, rtc, conf)
	it.src = t.FullyQualifiedName()
	return it
}

// Read fetches the results of a query job from its destination table.
//
// Read fails if the job is not a query job, or if it is known not to have
// finished successfully. If the job's state has not been observed yet, Read
// checks the status once; it does not wait, so call Wait first for a job
// that may still be running. A job that ran and failed yields a
// *JobExecutionError: such a job has no result rows at all.
func (j *Job) Read(ctx context.Context, conf ReadConfig) (ri *RowIterator, err error) {
	ctx = trace.StartSpan(ctx, "github.com/Zsedo/bigrquery.Job.Read")
	defer func() { trace.EndSpan(ctx, err) }()

	if !j.isQuery {
		return nil, errors.New("bigrquery: cannot read from a non-query job")
	}
	if j.destination == nil {
		return nil, errors.New("bigrquery: query job has no destination table to read")
	}
	status := j.lastStatus
	if status == nil || !status.State.Terminal() {
		status, err = j.Status(ctx)
		if err != nil {
			return nil, err
		}
	}
	switch status.State {
	case StateDone:
		// Results are ready.
	case StateError:
		return nil, &JobExecutionError{JobID: j.jobID, Reason: status.Err, Errors: status.Errors}
	default:
		return nil, fmt.Errorf("bigrquery: job %q is not done (state %s); Wait for it before reading", j.jobID, status.State)
	}
	return j.destination.read(ctx, conf), nil
}
