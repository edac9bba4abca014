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
	"fmt"
	"time"

	"github.com/Zsedo/bigrquery/internal/trace"
	"golang.org/x/sync/errgroup"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"
)

// service provides an internal abstraction to isolate the generated
// BigQuery API; most of this package uses this interface instead.
// The single implementation, *restService, contains all the knowledge
// of the generated BigQuery API.
//
// None of these methods retry on their own. Callers decide whether an
// operation may be safely reissued; in particular job insertion is never
// reissued because a failed response does not prove the job was not created.
type service interface {
	// Jobs
	insertJob(ctx context.Context, projectID string, job *bq.Job) (*Job, error)
	dryRunJob(ctx context.Context, projectID string, job *bq.Job) (*JobStatistics, error)
	getJob(ctx context.Context, projectID, jobID string) (*Job, error)
	jobStatus(ctx context.Context, projectID, jobID string) (*JobStatus, error)
	cancelJob(ctx context.Context, projectID, jobID string) error

	// Tables
	readTabledata(ctx context.Context, conf *readTableConf, pageToken string) (*readDataResult, error)
	tableMetadata(ctx context.Context, projectID, datasetID, tableID string) (*TableMetadata, error)

	// Listing
	listDatasets(ctx context.Context, projectID string, pageSize int64, pageToken string, all bool) ([]*Dataset, string, error)
	listTables(ctx context.Context, projectID, datasetID string, pageSize int64, pageToken string) ([]*Table, string, error)
}

type restService struct {
	s *bq.Service
}

func newRestService(ctx context.Context, opts ...option.ClientOption) (*restService, error) {
	bqs, err := bq.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("constructing bigquery service: %v", err)
	}
	return &restService{s: bqs}, nil
}

func (s *restService) insertJob(ctx context.Context, projectID string, job *bq.Job) (j *Job, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.jobs.insert")
	defer func() { trace.EndSpan(ctx, err) }()

	call := s.s.Jobs.Insert(projectID, job).Context(ctx)
	setClientHeader(call.Header())
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	j = &Job{
		projectID: projectID,
		jobID:     res.JobReference.JobId,
	}
	if c := res.Configuration; c != nil && c.Query != nil {
		j.isQuery = true
		// The service resolves the destination, assigning an ephemeral
		// table when the request left it unset.
		j.destination = bqToTable(c.Query.DestinationTable, nil)
	}
	return j, nil
}

func (s *restService) dryRunJob(ctx context.Context, projectID string, job *bq.Job) (js *JobStatistics, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.jobs.insert")
	defer func() { trace.EndSpan(ctx, err) }()

	call := s.s.Jobs.Insert(projectID, job).Context(ctx)
	setClientHeader(call.Header())
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	// A dry run validates and estimates; no job is created and there is
	// nothing to poll or read.
	return jobStatisticsFromProto(res.Statistics), nil
}

func (s *restService) getJob(ctx context.Context, projectID, jobID string) (j *Job, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.jobs.get")
	defer func() { trace.EndSpan(ctx, err) }()

	call := s.s.Jobs.Get(projectID, jobID).
		Fields("configuration", "jobReference").
		Context(ctx)
	setClientHeader(call.Header())
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	j = &Job{
		projectID: projectID,
		jobID:     jobID,
	}
	if c := res.Configuration; c != nil && c.Query != nil {
		j.isQuery = true
		j.destination = bqToTable(c.Query.DestinationTable, nil)
	}
	return j, nil
}

func (s *restService) jobStatus(ctx context.Context, projectID, jobID string) (js *JobStatus, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.jobs.get")
	defer func() { trace.EndSpan(ctx, err) }()

	call := s.s.Jobs.Get(projectID, jobID).
		Fields("status", "statistics"). // Only fetch what we need.
		Context(ctx)
	setClientHeader(call.Header())
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	st, err := jobStatusFromProto(res.Status)
	if err != nil {
		return nil, err
	}
	st.Statistics = jobStatisticsFromProto(res.Statistics)
	return st, nil
}

func (s *restService) cancelJob(ctx context.Context, projectID, jobID string) (err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.jobs.cancel")
	defer func() { trace.EndSpan(ctx, err) }()

	// Jobs.Cancel returns a job entity, but the only interesting piece of
	// data it may contain, the job status, is unreliable: the service
	// says to keep polling Jobs.Get to see whether the cancel took.
	call := s.s.Jobs.Cancel(projectID, jobID).
		Fields(). // We don't need any of the response data.
		Context(ctx)
	setClientHeader(call.Header())
	_, err = call.Do()
	return err
}

var stateMap = map[string]State{
	"PENDING": StatePending,
	"RUNNING": StateRunning,
	"DONE":    StateDone,
}

func jobStatusFromProto(status *bq.JobStatus) (*JobStatus, error) {
	state, ok := stateMap[status.State]
	if !ok {
		return nil, fmt.Errorf("bigrquery: unexpected job state: %q", status.State)
	}
	newStatus := &JobStatus{State: state}
	// The service reports a failed job as DONE with an error result
	// attached; surface that as a state of its own.
	if state == StateDone && status.ErrorResult != nil {
		newStatus.State = StateError
		newStatus.Err = bqToError(status.ErrorResult)
		for _, ep := range status.Errors {
			newStatus.Errors = append(newStatus.Errors, bqToError(ep))
		}
	}
	return newStatus, nil
}

func jobStatisticsFromProto(s *bq.JobStatistics) *JobStatistics {
	if s == nil {
		return nil
	}
	js := &JobStatistics{
		CreationTime:        unixMillisToTime(s.CreationTime),
		StartTime:           unixMillisToTime(s.StartTime),
		EndTime:             unixMillisToTime(s.EndTime),
		TotalBytesProcessed: s.TotalBytesProcessed,
	}
	if q := s.Query; q != nil {
		js.TotalBytesBilled = q.TotalBytesBilled
		js.CacheHit = q.CacheHit
	}
	return js
}

// unixMillisToTime converts a millisecond timestamp into a time.Time.
func unixMillisToTime(m int64) time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.Unix(0, m*1e6)
}

// readTableConf contains the parameters for reading a table. Its schema
// field is populated as a side effect of the first fetch, so that
// subsequent pages skip the metadata lookup.
type readTableConf struct {
	projectID, datasetID, tableID string
	paging                        pagingConf
	schema                        Schema // lazily initialized when the first page of data is fetched.
}

func (conf *readTableConf) fetch(ctx context.Context, s service, token string) (*readDataResult, error) {
	return s.readTabledata(ctx, conf, token)
}

type pagingConf struct {
	recordsPerRequest    int64
	setRecordsPerRequest bool
	startIndex           uint64
}

type readDataResult struct {
	pageToken string
	rows      [][]Value
	totalRows uint64
	schema    Schema
}

func (s *restService) readTabledata(ctx context.Context, conf *readTableConf, pageToken string) (res *readDataResult, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.tabledata.list")
	defer func() { trace.EndSpan(ctx, err) }()

	// Prepare the request for one page of table data.
	req := s.s.Tabledata.List(conf.projectID, conf.datasetID, conf.tableID)
	setClientHeader(req.Header())
	if pageToken != "" {
		req.PageToken(pageToken)
	} else {
		req.StartIndex(conf.paging.startIndex)
	}
	if conf.paging.setRecordsPerRequest {
		req.MaxResults(conf.paging.recordsPerRequest)
	}

	// Fetch the table schema concurrently with the first page, if we do
	// not have it yet.
	g, gctx := errgroup.WithContext(ctx)
	if conf.schema == nil {
		g.Go(func() error {
			t, err := s.s.Tables.Get(conf.projectID, conf.datasetID, conf.tableID).
				Fields("schema").
				Context(gctx).
				Do()
			if err != nil {
				return err
			}
			if t.Schema != nil {
				conf.schema = bqToSchema(t.Schema)
			}
			return nil
		})
	}
	var list *bq.TableDataList
	g.Go(func() error {
		var err error
		list, err = req.Context(gctx).Do()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res = &readDataResult{
		pageToken: list.PageToken,
		totalRows: uint64(list.TotalRows),
		schema:    conf.schema,
	}
	res.rows, err = convertRows(list.Rows, conf.schema)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *restService) tableMetadata(ctx context.Context, projectID, datasetID, tableID string) (md *TableMetadata, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.tables.get")
	defer func() { trace.EndSpan(ctx, err) }()

	call := s.s.Tables.Get(projectID, datasetID, tableID).Context(ctx)
	setClientHeader(call.Header())
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	return bqToTableMetadata(res), nil
}

func bqToTableMetadata(t *bq.Table) *TableMetadata {
	return &TableMetadata{
		Name:             t.FriendlyName,
		Description:      t.Description,
		Schema:           bqToSchema(t.Schema),
		NumBytes:         t.NumBytes,
		NumRows:          t.NumRows,
		Type:             t.Type,
		CreationTime:     unixMillisToTime(t.CreationTime),
		LastModifiedTime: unixMillisToTime(int64(t.LastModifiedTime)),
	}
}

func (s *restService) listDatasets(ctx context.Context, projectID string, pageSize int64, pageToken string, all bool) (datasets []*Dataset, token string, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.datasets.list")
	defer func() { trace.EndSpan(ctx, err) }()

	req := s.s.Datasets.List(projectID).
		Context(ctx).
		PageToken(pageToken).
		All(all)
	setClientHeader(req.Header())
	if pageSize > 0 {
		req.MaxResults(pageSize)
	}
	res, err := req.Do()
	if err != nil {
		return nil, "", err
	}
	for _, d := range res.Datasets {
		datasets = append(datasets, &Dataset{
			ProjectID: d.DatasetReference.ProjectId,
			DatasetID: d.DatasetReference.DatasetId,
		})
	}
	return datasets, res.NextPageToken, nil
}

func (s *restService) listTables(ctx context.Context, projectID, datasetID string, pageSize int64, pageToken string) (tables []*Table, token string, err error) {
	ctx = trace.StartSpan(ctx, "bigrquery.tables.list")
	defer func() { trace.EndSpan(ctx, err) }()

	req := s.s.Tables.List(projectID, datasetID).
		Context(ctx).
		PageToken(pageToken)
	setClientHeader(req.Header())
	if pageSize > 0 {
		req.MaxResults(pageSize)
	}
	res, err := req.Do()
	if err != nil {
		return nil, "", err
	}
	for _, t := range res.Tables {
		tables = append(tables, bqToTable(t.TableReference, nil))
	}
	return tables, res.NextPageToken, nil
}
