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

	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

const (
	// DefaultPageSize is the number of rows requested per page when
	// ReadConfig.PageSize is zero.
	DefaultPageSize int64 = 10000

	// DefaultMaxPages is the cap on fetched pages when ReadConfig.MaxPages
	// is zero.
	DefaultMaxPages = 10
)

// ReadConfig controls how result rows are fetched.
type ReadConfig struct {
	// PageSize is the number of rows to request from the service in each
	// page. Zero means DefaultPageSize; a negative value lets the service
	// choose.
	PageSize int64

	// MaxPages caps how many pages are fetched before iteration stops.
	// Zero means DefaultMaxPages; a negative value removes the cap.
	//
	// When the cap is reached with rows still unread, the iterator ends
	// as if the data were exhausted, records that it was truncated, and
	// logs a warning unless DisableTruncationWarning is set.
	MaxPages int

	// DisableTruncationWarning suppresses the warning logged when
	// iteration stops at the page cap with rows still unread.
	DisableTruncationWarning bool

	// Quiet suppresses per-page progress logging.
	Quiet bool

	// Logger receives progress and truncation messages. If nil, nothing
	// is logged.
	Logger logrus.FieldLogger
}

// A pageFetcher returns one page of rows from the service, starting at the
// given page token.
type pageFetcher interface {
	fetch(ctx context.Context, s service, token string) (*readDataResult, error)
}

// A RowIterator provides access to the result rows of a table read.
type RowIterator struct {
	// Schema describes the columns of the rows. It is set after the first
	// call to Next.
	Schema Schema

	// TotalRows is the total number of rows in the result, as reported by
	// the service. It is set after the first call to Next and is not
	// reduced by the page cap.
	TotalRows uint64

	ctx     context.Context
	service service
	pf      pageFetcher
	src     string // name of the source table, for error reports

	maxPages int
	warn     bool
	quiet    bool
	logger   logrus.FieldLogger

	nextToken string
	pages     int  // number of pages fetched so far
	truncated bool // set when iteration stopped at the page cap with rows left
	done      bool // set when there is no more data to be fetched
	rows      [][]Value
	err       error
}

func newRowIterator(ctx context.Context, s service, pf pageFetcher, conf ReadConfig) *RowIterator {
	maxPages := conf.MaxPages
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}
	return &RowIterator{
		ctx:      ctx,
		service:  s,
		pf:       pf,
		maxPages: maxPages,
		warn:     !conf.DisableTruncationWarning,
		quiet:    conf.Quiet,
		logger:   conf.Logger,
	}
}

// Next loads the next row into dst, which must implement ValueLoader or be
// a *[]Value. It returns iterator.Done when there are no more rows, either
// because the data is exhausted or because the page cap was reached. Rows
// fetched before a failure remain readable; the failure is reported once
// they are consumed, and on every call after that.
func (it *RowIterator) Next(dst interface{}) error {
	if it.err != nil {
		return it.err
	}
	for len(it.rows) == 0 && !it.done {
		if err := it.fetchRows(); err != nil {
			it.err = err
			return it.err
		}
	}
	if len(it.rows) == 0 {
		it.err = iterator.Done
		return it.err
	}
	row := it.rows[0]
	it.rows = it.rows[1:]
	return loadRow(dst, row)
}

// fetchRows fetches one page of rows from the service, unless the page cap
// has been reached.
func (it *RowIterator) fetchRows() error {
	if it.maxPages > 0 && it.pages >= it.maxPages {
		// There is more data, but no pages left to fetch it with.
		it.truncated = true
		it.done = true
		if it.warn {
			it.warnTruncated()
		}
		return nil
	}
	res, err := it.pf.fetch(it.ctx, it.service, it.nextToken)
	if err != nil {
		return &FetchError{
			Table:     it.src,
			Page:      it.pages + 1,
			PageToken: it.nextToken,
			err:       err,
		}
	}
	it.pages++
	it.nextToken = res.pageToken
	it.done = res.pageToken == ""
	it.rows = res.rows
	if res.schema != nil {
		it.Schema = res.schema
	}
	if res.totalRows > 0 {
		it.TotalRows = res.totalRows
	}
	if !it.quiet && it.logger != nil {
		it.logger.WithFields(logrus.Fields{
			"page": it.pages,
			"rows": len(res.rows),
		}).Info("fetched result page")
	}
	return nil
}

func (it *RowIterator) warnTruncated() {
	if it.logger == nil {
		return
	}
	it.logger.WithFields(logrus.Fields{
		"table": it.src,
		"pages": it.pages,
	}).Warn("reached the page cap with rows unread; results are truncated")
}

// Truncated reports whether iteration stopped at the page cap with rows
// still unread on the service.
func (it *RowIterator) Truncated() bool { return it.truncated }

// PageCount returns the number of pages fetched so far.
func (it *RowIterator) PageCount() int { return it.pages }
