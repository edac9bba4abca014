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

	"github.com/Zsedo/bigrquery/internal/testutil"
	bq "google.golang.org/api/bigquery/v2"
)

func bqTableFieldSchema(desc, name, typ, mode string) *bq.TableFieldSchema {
	return &bq.TableFieldSchema{
		Description: desc,
		Name:        name,
		Mode:        mode,
		Type:        typ,
	}
}

func fieldSchema(desc, name, typ string, repeated, required bool) *FieldSchema {
	return &FieldSchema{
		Description: desc,
		Name:        name,
		Repeated:    repeated,
		Required:    required,
		Type:        FieldType(typ),
	}
}

func TestBQToSchema(t *testing.T) {
	for _, test := range []struct {
		in   *bq.TableSchema
		want Schema
	}{
		{nil, nil},
		{&bq.TableSchema{}, nil},
		{
			&bq.TableSchema{
				Fields: []*bq.TableFieldSchema{
					bqTableFieldSchema("desc", "name", "STRING", ""),
				},
			},
			Schema{fieldSchema("desc", "name", "STRING", false, false)},
		},
		{
			&bq.TableSchema{
				Fields: []*bq.TableFieldSchema{
					bqTableFieldSchema("", "a", "INTEGER", "REQUIRED"),
					bqTableFieldSchema("", "b", "FLOAT", "NULLABLE"),
					bqTableFieldSchema("", "c", "TIMESTAMP", "REPEATED"),
				},
			},
			Schema{
				fieldSchema("", "a", "INTEGER", false, true),
				fieldSchema("", "b", "FLOAT", false, false),
				fieldSchema("", "c", "TIMESTAMP", true, false),
			},
		},
		{
			&bq.TableSchema{
				Fields: []*bq.TableFieldSchema{
					{
						Description: "An outer schema wrapping a nested schema",
						Name:        "outer",
						Mode:        "REQUIRED",
						Type:        "RECORD",
						Fields: []*bq.TableFieldSchema{
							bqTableFieldSchema("inner field", "inner", "STRING", ""),
						},
					},
				},
			},
			Schema{
				&FieldSchema{
					Description: "An outer schema wrapping a nested schema",
					Name:        "outer",
					Required:    true,
					Type:        RecordFieldType,
					Schema: Schema{
						fieldSchema("inner field", "inner", "STRING", false, false),
					},
				},
			},
		},
	} {
		got := bqToSchema(test.in)
		if diff := testutil.Diff(got, test.want); diff != "" {
			t.Errorf("%+v: -got, +want:\n%s", test.in, diff)
		}
	}
}

func TestSchemaNames(t *testing.T) {
	s := Schema{
		fieldSchema("", "title", "STRING", false, false),
		fieldSchema("", "year", "INTEGER", false, false),
		fieldSchema("", "cast", "STRING", true, false),
	}
	got := s.Names()
	want := []string{"title", "year", "cast"}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Errorf("-got, +want:\n%s", diff)
	}
	if got := (Schema{}).Names(); len(got) != 0 {
		t.Errorf("empty schema names: got %v, want none", got)
	}
}
