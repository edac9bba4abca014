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

// Command bqr runs a BigQuery query job and prints its result rows.
//
// The query is taken from the first argument, or from stdin when no
// argument is given. Environment variables prefixed with BQR_ provide
// defaults for most flags; flags take precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/Zsedo/bigrquery"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bqr: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		project     string
		dataset     string
		destination string
		pageSize    int64
		maxPages    int
		create      string
		write       string
		standardSQL bool
		dryRun      bool
		timeout     time.Duration
		format      string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "bqr [query]",
		Short: "Run a BigQuery query and print its rows",
		Long: `bqr submits a query job, waits for it to finish and prints the
result rows as CSV or JSON lines. The query is read from the first
argument, or from stdin when no argument is given.

Interrupting bqr cancels the wait and makes a best effort to cancel
the job on the service.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Apply precedence: flag > environment > built-in default.
			if !cmd.Flags().Changed("project") && cfg.Project != "" {
				project = cfg.Project
			}
			if !cmd.Flags().Changed("dataset") && cfg.Dataset != "" {
				dataset = cfg.Dataset
			}
			if !cmd.Flags().Changed("destination") && cfg.Destination != "" {
				destination = cfg.Destination
			}
			if !cmd.Flags().Changed("page-size") && cfg.PageSize != 0 {
				pageSize = cfg.PageSize
			}
			if !cmd.Flags().Changed("max-pages") && cfg.MaxPages != 0 {
				maxPages = cfg.MaxPages
			}
			if !cmd.Flags().Changed("create") && cfg.Create != "" {
				create = cfg.Create
			}
			if !cmd.Flags().Changed("write") && cfg.Write != "" {
				write = cfg.Write
			}
			if !cmd.Flags().Changed("standard-sql") && cfg.StandardSQL {
				standardSQL = true
			}
			if !cmd.Flags().Changed("timeout") && cfg.Timeout != 0 {
				timeout = cfg.Timeout
			}
			if !cmd.Flags().Changed("format") && cfg.Format != "" {
				format = cfg.Format
			}
			if !cmd.Flags().Changed("quiet") && cfg.Quiet {
				quiet = true
			}

			w, err := newRowWriter(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			createDisp, err := parseCreateDisposition(create)
			if err != nil {
				return err
			}
			writeDisp, err := parseWriteDisposition(write)
			if err != nil {
				return err
			}
			sql, err := queryText(cmd, args)
			if err != nil {
				return err
			}

			log := logrus.New()
			log.SetOutput(cmd.ErrOrStderr())
			log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

			ctx := cmd.Context()
			if project == "" {
				project = bigrquery.DetectProjectID
			}
			client, err := bigrquery.NewClient(ctx, project)
			if err != nil {
				return err
			}
			defer client.Close()

			q := client.Query(sql)
			q.CreateDisposition = createDisp
			q.WriteDisposition = writeDisp
			q.UseStandardSQL = standardSQL
			if dataset != "" {
				q.DefaultProjectID = client.Project()
				q.DefaultDatasetID = dataset
			}
			if destination != "" {
				dst, err := parseTableRef(destination, client.Project())
				if err != nil {
					return err
				}
				q.Dst = dst
			}

			if dryRun {
				stats, err := q.DryRun(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: the query would process %d bytes\n", stats.TotalBytesProcessed)
				return nil
			}

			job, err := q.Run(ctx)
			if err != nil {
				return err
			}
			if !quiet {
				log.WithField("job", job.ID()).Info("job submitted")
			}
			status, err := job.Wait(ctx, bigrquery.WaitConfig{MaxWait: timeout})
			if err != nil {
				if ctx.Err() != nil {
					cancelJob(log, job)
				}
				return err
			}

			it, err := job.Read(ctx, bigrquery.ReadConfig{
				PageSize: pageSize,
				MaxPages: maxPages,
				Quiet:    quiet,
				Logger:   log,
			})
			if err != nil {
				return err
			}
			n, err := writeRows(it, w)
			if err != nil {
				if n > 0 {
					log.WithField("rows", n).Warn("printed a partial result")
				}
				return err
			}
			if !quiet {
				fields := logrus.Fields{"rows": n}
				if st := status.Statistics; st != nil {
					fields["bytes_processed"] = st.TotalBytesProcessed
				}
				log.WithFields(fields).Info("query finished")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project to run jobs in (default: detected from credentials)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "default dataset for unqualified table names in the query")
	cmd.Flags().StringVar(&destination, "destination", "", "destination table as [project:]dataset.table (default: an ephemeral table)")
	cmd.Flags().Int64Var(&pageSize, "page-size", 0, "rows per result page (default 10000)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum result pages to fetch, negative for all (default 10)")
	cmd.Flags().StringVar(&create, "create", "if-needed", "create disposition of the destination table (if-needed, never)")
	cmd.Flags().StringVar(&write, "write", "empty", "write disposition of the destination table (empty, truncate, append)")
	cmd.Flags().BoolVar(&standardSQL, "standard-sql", false, "use standard SQL instead of legacy SQL")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the query and report its cost without running it")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up waiting for the job after this long (default 30m)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv, json)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")

	return cmd
}

// queryText returns the SQL to run: the positional argument if present,
// otherwise everything on stdin.
func queryText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading query from stdin: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("no query given: pass it as an argument or on stdin")
	}
	return s, nil
}

// cancelJob asks the service to stop a job whose wait was interrupted. The
// job would keep running server-side otherwise.
func cancelJob(log logrus.FieldLogger, job *bigrquery.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := job.Cancel(ctx); err != nil {
		log.WithError(err).Warn("could not cancel the running job")
		return
	}
	log.WithField("job", job.ID()).Info("job cancelled")
}

// writeRows drains the iterator into w, returning the number of rows
// written. On a fetch failure the rows already buffered are flushed before
// the error is returned.
func writeRows(it *bigrquery.RowIterator, w rowWriter) (int, error) {
	n := 0
	wroteHeader := false
	for {
		var row []bigrquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			if ferr := w.flush(); ferr != nil {
				return n, ferr
			}
			return n, err
		}
		if !wroteHeader {
			// The column names are known once the first page has arrived.
			if err := w.writeSchema(it.Schema); err != nil {
				return n, err
			}
			wroteHeader = true
		}
		if err := w.writeRow(row); err != nil {
			return n, err
		}
		n++
	}
	if !wroteHeader && len(it.Schema) > 0 {
		// An empty result still gets its header.
		if err := w.writeSchema(it.Schema); err != nil {
			return n, err
		}
	}
	if err := w.flush(); err != nil {
		return n, err
	}
	return n, nil
}
