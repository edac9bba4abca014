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

/*
Package bigrquery runs BigQuery queries as asynchronous jobs and fetches
their results page by page.

The following assumes a basic familiarity with BigQuery concepts.
See https://cloud.google.com/bigquery/docs.

# Creating a Client

To start working with this package, create a client:

	ctx := context.Background()
	client, err := bigrquery.NewClient(ctx, projectID)
	if err != nil {
		// TODO: Handle error.
	}

# Querying

Queries run as jobs. Create a Query and call its Run method to submit the
job; submission is never reissued on failure, because a rejected request may
nevertheless have created the job on the service:

	q := client.Query(`
	SELECT year, SUM(number)
	FROM [bigquery-public-data:usa_names.usa_1910_2013]
	WHERE name = "William"
	GROUP BY year
	ORDER BY year
	`)
	job, err := q.Run(ctx)
	if err != nil {
		// TODO: Handle error.
	}

Get the job's ID, a printable string. You can save this string to retrieve
the results at a later time, even in another process, using JobFromID.

Jobs move through the states Pending, Running and then either Done or
Error. Job.Wait polls the job's status, pausing between checks with a
growing backoff, until the job reaches one of the two terminal states or
Wait's attempt or time budget runs out:

	status, err := job.Wait(ctx, bigrquery.WaitConfig{})
	if err != nil {
		// TODO: Handle error.
	}
	if status.State == bigrquery.StateError {
		// The job itself failed; status.Err says why.
	}

A job that ran and failed is a normal Wait result, reported through the
returned status. Wait's error return covers trouble observing the job
instead: a failed status check, an exhausted budget, or a canceled context.

# Reading result rows

Job.Read returns a RowIterator over the job's result rows, which the
service delivers in pages. ReadConfig sets the page size and caps the
number of pages; when the cap is reached with rows still unread, iteration
ends normally, the iterator records that it was truncated, and a warning is
logged.

	it, err := job.Read(ctx, bigrquery.ReadConfig{})
	if err != nil {
		// TODO: Handle error.
	}
	for {
		var row []bigrquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			// TODO: Handle error.
		}
		fmt.Println(row)
	}

Query.Exec combines Run, Wait and Read, collecting all rows into a RowSet.
If a page fetch fails part-way, Exec returns the rows fetched so far along
with a *FetchError.

# Dry runs

Query.DryRun validates a query and estimates the bytes it would process
without executing it. A dry run creates no job, so there is nothing to poll
and nothing to read:

	stats, err := q.DryRun(ctx)
	if err != nil {
		// TODO: Handle error.
	}
	fmt.Printf("would process %d bytes\n", stats.TotalBytesProcessed)

# Errors

Each phase of a query's life reports failure with its own error type:
*SubmissionError when the job could not be submitted, *PollingError when a
status check failed, *WaitTimeoutError when Wait gave up, *JobExecutionError
when the job itself failed, and *FetchError when a page of results could not
be fetched. All of them unwrap to the underlying cause, so errors.As can
recover a *googleapi.Error for HTTP details.
*/
package bigrquery // import "github.com/Zsedo/bigrquery"
