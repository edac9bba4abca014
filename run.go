// Copyright 2017 Google LLC
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

	"github.com/Zsedo/bigrquery/internal/trace"
	"google.golang.org/api/iterator"
)

// RunConfig bundles the polling and fetching configuration used by
// Query.Exec.
type RunConfig struct {
	// Wait controls the polling for job completion.
	Wait WaitConfig

	// Read controls the fetching of result rows.
	Read ReadConfig
}

// A RowSet holds the result of executing a query: the rows that were
// fetched, together with how they were obtained.
type RowSet struct {
	// Schema describes the columns of Rows.
	Schema Schema

	// Rows holds the fetched rows.
	Rows [][]Value

	// TotalRows is the total number of rows in the result, as reported by
	// the service. It exceeds len(Rows) when the fetch was truncated.
	TotalRows uint64

	// Truncated reports whether fetching stopped at the page cap with
	// rows still unread.
	Truncated bool

	// JobID identifies the query job that produced the result.
	JobID string

	// Statistics are the statistics of the completed job.
	Statistics *JobStatistics
}

// Exec submits the query, waits for it to finish, and fetches its result
// rows. It is shorthand for Run, then Job.Wait, then Job.Read.
//
// A job that ran and failed yields a *JobExecutionError and no rows. A page
// fetch that fails part-way returns the rows of the pages already fetched
// along with a *FetchError, so partial results are not lost.
func (q *Query) Exec(ctx context.Context, conf RunConfig) (rs *RowSet, err error) {
	ctx = trace.StartSpan(ctx, "github.com/Zsedo/bigrquery.Query.Exec")
	defer func() { trace.EndSpan(ctx, err) }()

	job, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	status, err := job.Wait(ctx, conf.Wait)
	if err != nil {
		return nil, err
	}
	if status.State == StateError {
		return nil, &JobExecutionError{JobID: job.ID(), Reason: status.Err, Errors: status.Errors}
	}
	it, err := job.Read(ctx, conf.Read)
	if err != nil {
		return nil, err
	}

	rs = &RowSet{
		JobID:      job.ID(),
		Statistics: status.Statistics,
	}
	for {
		var row []Value
		nerr := it.Next(&row)
		if nerr == iterator.Done {
			break
		}
		if nerr != nil {
			err = nerr
			break
		}
		rs.Rows = append(rs.Rows, row)
	}
	rs.Schema = it.Schema
	rs.TotalRows = it.TotalRows
	rs.Truncated = it.Truncated()
	return rs, err
}
