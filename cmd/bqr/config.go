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

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Zsedo/bigrquery"
)

// config holds the environment-supplied defaults for the bqr command.
// Flags take precedence over these values.
type config struct {
	Project     string        `env:"BQR_PROJECT"`
	Dataset     string        `env:"BQR_DATASET"`
	Destination string        `env:"BQR_DESTINATION"`
	PageSize    int64         `env:"BQR_PAGE_SIZE"`
	MaxPages    int           `env:"BQR_MAX_PAGES"`
	Create      string        `env:"BQR_CREATE"`
	Write       string        `env:"BQR_WRITE"`
	StandardSQL bool          `env:"BQR_STANDARD_SQL"`
	Timeout     time.Duration `env:"BQR_TIMEOUT"`
	Format      string        `env:"BQR_FORMAT"`
	Quiet       bool          `env:"BQR_QUIET"`
}

// loadConfig reads the BQR_ environment variables, after loading an
// optional .env file from the working directory.
func loadConfig() (config, error) {
	// A missing .env file is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func parseCreateDisposition(s string) (bigrquery.TableCreateDisposition, error) {
	switch s {
	case "", "if-needed":
		return bigrquery.CreateIfNeeded, nil
	case "never":
		return bigrquery.CreateNever, nil
	}
	return "", fmt.Errorf("unknown create disposition %q: use if-needed or never", s)
}

func parseWriteDisposition(s string) (bigrquery.TableWriteDisposition, error) {
	switch s {
	case "", "empty":
		return bigrquery.WriteEmpty, nil
	case "truncate":
		return bigrquery.WriteTruncate, nil
	case "append":
		return bigrquery.WriteAppend, nil
	}
	return "", fmt.Errorf("unknown write disposition %q: use empty, truncate or append", s)
}

// parseTableRef parses a table reference of the form
// "project:dataset.table" or "dataset.table". When the project part is
// absent, defaultProject is used.
func parseTableRef(s, defaultProject string) (*bigrquery.Table, error) {
	project := defaultProject
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		project, rest = s[:i], s[i+1:]
	}
	i := strings.IndexByte(rest, '.')
	if i < 0 || project == "" || rest[:i] == "" || rest[i+1:] == "" {
		return nil, fmt.Errorf("malformed table reference %q: want [project:]dataset.table", s)
	}
	return &bigrquery.Table{ProjectID: project, DatasetID: rest[:i], TableID: rest[i+1:]}, nil
}
