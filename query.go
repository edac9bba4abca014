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

	"github.com/Zsedo/bigrquery/internal/trace"
	bq "google.golang.org/api/bigquery/v2"
)

// QueryPriority specifies a priority with which a query is to be executed.
type QueryPriority string

const (
	// BatchPriority specifies that the query should be scheduled with the
	// batch priority. BigQuery queues each batch query on your behalf, and
	// starts the query as soon as idle resources are available, usually
	// within a few minutes.
	BatchPriority QueryPriority = "BATCH"
	// InteractivePriority specifies that the query should be scheduled
	// with interactive priority, which means that the query is executed as
	// soon as possible. Interactive queries count towards your concurrent
	// rate limit and your daily limit. It is the default priority.
	InteractivePriority QueryPriority = "INTERACTIVE"
)

// QueryConfig holds the configuration for a query job.
type QueryConfig struct {
	// Dst is the table into which the results of the query will be written.
	// If this field is nil, the service writes the results to an ephemeral
	// table of its choosing.
	Dst *Table

	// The query to execute. See https://cloud.google.com/bigquery/query-reference for details.
	Q string

	// DefaultProjectID and DefaultDatasetID specify the dataset to use for unqualified table names in the query.
	// If DefaultProjectID is set, DefaultDatasetID must also be set.
	DefaultProjectID string
	DefaultDatasetID string

	// CreateDisposition specifies the circumstances under which the destination table will be created.
	// The default is CreateIfNeeded.
	CreateDisposition TableCreateDisposition

	// WriteDisposition specifies how existing data in the destination table is treated.
	// The default is WriteEmpty.
	WriteDisposition TableWriteDisposition

	// Priority specifies the priority with which to schedule the query.
	// The default priority is InteractivePriority.
	Priority QueryPriority

	// UseStandardSQL causes the query to use standard SQL. The default is
	// the legacy SQL dialect, which is also what the service assumes when
	// the field is unset.
	UseStandardSQL bool
}

func (q *QueryConfig) toBQ() *bq.JobConfigurationQuery {
	conf := &bq.JobConfigurationQuery{
		Query:             q.Q,
		CreateDisposition: string(q.CreateDisposition),
		WriteDisposition:  string(q.WriteDisposition),
		Priority:          string(q.Priority),
	}
	if q.DefaultProjectID != "" || q.DefaultDatasetID != "" {
		conf.DefaultDataset = &bq.DatasetReference{
			ProjectId: q.DefaultProjectID,
			DatasetId: q.DefaultDatasetID,
		}
	}
	if q.Dst != nil && !q.Dst.implicitTable() {
		conf.DestinationTable = q.Dst.toBQ()
	}
	if q.UseStandardSQL {
		// UseLegacySql defaults to true on the service, so a false value
		// must be sent explicitly.
		useLegacySQL := false
		conf.UseLegacySql = &useLegacySQL
		conf.ForceSendFields = append(conf.ForceSendFields, "UseLegacySql")
	}
	return conf
}

// A Query queries data from a BigQuery table. Use Client.Query to create a
// Query whose Run method can be called.
type Query struct {
	QueryConfig

	// JobID is the ID to use for the query job. If this field is empty,
	// the service chooses an ID; callers find it via Job.ID. Setting a
	// JobID makes submission idempotent, at the price of inventing a
	// unique ID per query.
	JobID string

	client *Client
}

// Query creates a query with string q.
// The returned Query may optionally be further configured before its Run
// method is called.
func (c *Client) Query(q string) *Query {
	return &Query{
		QueryConfig: QueryConfig{Q: q},
		client:      c,
	}
}

// Run initiates a query job.
//
// A failed submission is reported as a *SubmissionError and is never
// reissued: a rejected request may nevertheless have created the job on
// the service, and resubmitting could run the query twice.
func (q *Query) Run(ctx context.Context) (j *Job, err error) {
	ctx = trace.StartSpan(ctx, "github.com/Zsedo/bigrquery.Query.Run")
	defer func() { trace.EndSpan(ctx, err) }()

	job := &bq.Job{
		Configuration: &bq.JobConfiguration{
			Query: q.QueryConfig.toBQ(),
		},
	}
	setJobRef(job, q.JobID, q.client.projectID)
	j, err = q.client.service.insertJob(ctx, q.client.projectID, job)
	if err != nil {
		return nil, &SubmissionError{err: err}
	}
	j.c = q.client
	if j.destination != nil {
		j.destination.c = q.client
	}
	return j, nil
}

// DryRun validates the query and estimates what running it would cost,
// without executing it. No job is created: there is no job ID to poll and
// no result rows to read, only statistics.
func (q *Query) DryRun(ctx context.Context) (js *JobStatistics, err error) {
	ctx = trace.StartSpan(ctx, "github.com/Zsedo/bigrquery.Query.DryRun")
	defer func() { trace.EndSpan(ctx, err) }()

	job := &bq.Job{
		Configuration: &bq.JobConfiguration{
			DryRun: true,
			Query:  q.QueryConfig.toBQ(),
		},
	}
	js, err = q.client.service.dryRunJob(ctx, q.client.projectID, job)
	if err != nil {
		return nil, &SubmissionError{err: err}
	}
	return js, nil
}
