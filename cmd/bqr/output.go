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
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Zsedo/bigrquery"
)

// A rowWriter renders result rows in some output format.
type rowWriter interface {
	// writeSchema is called once, before the first row.
	writeSchema(schema bigrquery.Schema) error
	writeRow(row []bigrquery.Value) error
	flush() error
}

// newRowWriter returns a writer for the requested format, "csv" or "json".
func newRowWriter(format string, w io.Writer) (rowWriter, error) {
	switch format {
	case "csv":
		return &csvRowWriter{w: csv.NewWriter(w)}, nil
	case "json":
		return &jsonRowWriter{enc: json.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown output format %q: use csv or json", format)
}

// csvRowWriter writes rows as CSV records, preceded by a header of column
// names.
type csvRowWriter struct {
	w *csv.Writer
}

func (cw *csvRowWriter) writeSchema(schema bigrquery.Schema) error {
	return cw.w.Write(schema.Names())
}

func (cw *csvRowWriter) writeRow(row []bigrquery.Value) error {
	record := make([]string, len(row))
	for i, v := range row {
		record[i] = formatValue(v)
	}
	return cw.w.Write(record)
}

func (cw *csvRowWriter) flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

// formatValue renders a single cell for CSV output. NULL becomes the empty
// string, bytes are base64 and timestamps are RFC 3339.
func formatValue(v bigrquery.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// jsonRowWriter writes each row as a JSON object keyed by column name, one
// object per line.
type jsonRowWriter struct {
	enc   *json.Encoder
	names []string
}

func (jw *jsonRowWriter) writeSchema(schema bigrquery.Schema) error {
	jw.names = schema.Names()
	return nil
}

func (jw *jsonRowWriter) writeRow(row []bigrquery.Value) error {
	obj := make(map[string]interface{}, len(row))
	for i, v := range row {
		// Results read without a schema fall back to positional names.
		name := fmt.Sprintf("f%d", i)
		if i < len(jw.names) {
			name = jw.names[i]
		}
		obj[name] = v
	}
	return jw.enc.Encode(obj)
}

func (jw *jsonRowWriter) flush() error { return nil }
