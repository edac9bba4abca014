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
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	bq "google.golang.org/api/bigquery/v2"
)

// Value stores the contents of a single cell from a result row.
type Value interface{}

// ValueLoader stores a slice of Values representing a result row from a
// Read operation. See RowIterator.Next for more information.
type ValueLoader interface {
	Load(v []Value) error
}

// ValueList converts a []Value to implement ValueLoader.
type ValueList []Value

// Load stores a sequence of values in a ValueList.
func (vs *ValueList) Load(v []Value) error {
	*vs = append(*vs, v...)
	return nil
}

// loadRow stores row into dst. dst may be a *[]Value or implement
// ValueLoader.
func loadRow(dst interface{}, row []Value) error {
	switch dst := dst.(type) {
	case ValueLoader:
		return dst.Load(row)
	case *[]Value:
		*dst = row
		return nil
	}
	return fmt.Errorf("bigrquery: cannot convert row to type %T", dst)
}

func convertRows(rows []*bq.TableRow, schema Schema) ([][]Value, error) {
	var rs [][]Value
	for _, r := range rows {
		row, err := convertRow(r, schema)
		if err != nil {
			return nil, err
		}
		rs = append(rs, row)
	}
	return rs, nil
}

func convertRow(r *bq.TableRow, schema Schema) ([]Value, error) {
	if len(schema) != len(r.F) {
		return nil, errors.New("bigrquery: schema length does not match row length")
	}
	var values []Value
	for i, cell := range r.F {
		fs := schema[i]
		v, err := convertValue(cell.V, fs.Type, fs.Schema)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func convertValue(val interface{}, typ FieldType, schema Schema) (Value, error) {
	switch val := val.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return convertRepeatedRecord(val, typ, schema)
	case map[string]interface{}:
		return convertNestedRecord(val, schema)
	case string:
		return convertBasicType(val, typ)
	default:
		return nil, fmt.Errorf("bigrquery: got value %v; expected a value of type %s", val, typ)
	}
}

func convertRepeatedRecord(vals []interface{}, typ FieldType, schema Schema) (Value, error) {
	var values []Value
	for _, cell := range vals {
		// Each cell contains a single entry, keyed by "v".
		val := cell.(map[string]interface{})["v"]
		v, err := convertValue(val, typ, schema)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func convertNestedRecord(val map[string]interface{}, schema Schema) (Value, error) {
	record := val["f"].([]interface{})
	if len(record) != len(schema) {
		return nil, errors.New("bigrquery: schema length does not match record length")
	}
	var values []Value
	for i, cell := range record {
		// Each cell contains a single entry, keyed by "v".
		val := cell.(map[string]interface{})["v"]
		fs := schema[i]
		v, err := convertValue(val, fs.Type, fs.Schema)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// convertBasicType returns val as an interface with a concrete type
// specified by typ.
func convertBasicType(val string, typ FieldType) (Value, error) {
	switch typ {
	case StringFieldType:
		return val, nil
	case BytesFieldType:
		return base64.StdEncoding.DecodeString(val)
	case IntegerFieldType:
		return strconv.ParseInt(val, 10, 64)
	case FloatFieldType:
		return strconv.ParseFloat(val, 64)
	case BooleanFieldType:
		return strconv.ParseBool(val)
	case TimestampFieldType:
		// The service returns timestamps as floating point seconds
		// since the epoch.
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		return Value(time.Unix(0, int64(f*1e9)).UTC()), nil
	case DateFieldType:
		return time.Parse("2006-01-02", val)
	default:
		return nil, fmt.Errorf("bigrquery: unrecognized type: %s", typ)
	}
}
