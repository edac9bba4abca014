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
	"testing"
	"time"

	"github.com/Zsedo/bigrquery/internal/testutil"
	bq "google.golang.org/api/bigquery/v2"
)

func TestJobStatusFromProto(t *testing.T) {
	for _, test := range []struct {
		in   *bq.JobStatus
		want *JobStatus
	}{
		{&bq.JobStatus{State: "PENDING"}, &JobStatus{State: StatePending}},
		{&bq.JobStatus{State: "RUNNING"}, &JobStatus{State: StateRunning}},
		{&bq.JobStatus{State: "DONE"}, &JobStatus{State: StateDone}},
		{
			// A failed job is DONE with an error result attached.
			&bq.JobStatus{
				State:       "DONE",
				ErrorResult: &bq.ErrorProto{Reason: "invalidQuery", Message: "bad syntax"},
				Errors: []*bq.ErrorProto{
					{Reason: "invalidQuery", Message: "bad syntax"},
					{Reason: "accessDenied", Message: "no table"},
				},
			},
			&JobStatus{
				State: StateError,
				Err:   &Error{Reason: "invalidQuery", Message: "bad syntax"},
				Errors: []*Error{
					{Reason: "invalidQuery", Message: "bad syntax"},
					{Reason: "accessDenied", Message: "no table"},
				},
			},
		},
		{
			// An error result on a job that is still running is not final.
			&bq.JobStatus{
				State:       "RUNNING",
				ErrorResult: &bq.ErrorProto{Reason: "backendError"},
			},
			&JobStatus{State: StateRunning},
		},
	} {
		got, err := jobStatusFromProto(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if diff := testutil.Diff(got, test.want); diff != "" {
			t.Errorf("%+v: -got, +want:\n%s", test.in, diff)
		}
	}
}

func TestJobStatusFromProtoUnknownState(t *testing.T) {
	if _, err := jobStatusFromProto(&bq.JobStatus{State: "SIDEWAYS"}); err == nil {
		t.Error("got nil, want error")
	}
}

func TestJobStatisticsFromProto(t *testing.T) {
	got := jobStatisticsFromProto(&bq.JobStatistics{
		CreationTime:        1408452095220,
		StartTime:           1408452095520,
		EndTime:             1408452095720,
		TotalBytesProcessed: 123,
		Query: &bq.JobStatistics2{
			CacheHit:         true,
			TotalBytesBilled: 456,
		},
	})
	want := &JobStatistics{
		CreationTime:        time.Unix(0, 1408452095220*1e6),
		StartTime:           time.Unix(0, 1408452095520*1e6),
		EndTime:             time.Unix(0, 1408452095720*1e6),
		TotalBytesProcessed: 123,
		TotalBytesBilled:    456,
		CacheHit:            true,
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Errorf("-got, +want:\n%s", diff)
	}

	if got := jobStatisticsFromProto(nil); got != nil {
		t.Errorf("nil statistics: got %+v, want nil", got)
	}
}

func TestUnixMillisToTime(t *testing.T) {
	if got := unixMillisToTime(0); !got.IsZero() {
		t.Errorf("got %v, want the zero time", got)
	}
	got := unixMillisToTime(1408452095220)
	want := time.Unix(1408452095, 220*1e6)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBQToTableMetadata(t *testing.T) {
	aTime := time.Date(2017, 1, 26, 0, 0, 0, 0, time.Local)
	aTimeMillis := aTime.UnixNano() / 1e6
	for _, test := range []struct {
		in   *bq.Table
		want *TableMetadata
	}{
		{&bq.Table{}, &TableMetadata{}},
		{
			&bq.Table{
				CreationTime:     aTimeMillis,
				LastModifiedTime: uint64(aTimeMillis),
				FriendlyName:     "fname",
				Description:      "desc",
				NumBytes:         123,
				NumRows:          7,
				Type:             "TABLE",
				Schema: &bq.TableSchema{
					Fields: []*bq.TableFieldSchema{
						{Name: "name", Type: "STRING", Mode: "REQUIRED"},
					},
				},
			},
			&TableMetadata{
				Name:             "fname",
				Description:      "desc",
				NumBytes:         123,
				NumRows:          7,
				Type:             "TABLE",
				CreationTime:     aTime,
				LastModifiedTime: aTime,
				Schema: Schema{
					{Name: "name", Type: StringFieldType, Required: true},
				},
			},
		},
	} {
		got := bqToTableMetadata(test.in)
		if diff := testutil.Diff(got, test.want); diff != "" {
			t.Errorf("%+v: -got, +want:\n%s", test.in, diff)
		}
	}
}
