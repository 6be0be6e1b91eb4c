// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// IDColumn is the primary key column every enrolled table carries.
const IDColumn = "id"

// Row is a single record snapshot: column name to column value.
//
// Rows are compared and hashed by their sorted key order, so two rows with
// the same field set are equal regardless of how the underlying map was
// populated.
type Row map[string]any

// ID returns the record identifier stored under [IDColumn] as a string.
func (r Row) ID() string {
	v, ok := r[IDColumn]
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case []byte:
		return string(id)
	default:
		return fmt.Sprint(id)
	}
}

// Keys returns the column names of the row in ascending order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DecodeRow parses a JSON object into a Row. Integral JSON numbers are
// decoded as int64 so that snapshots round-trip into integer columns.
func DecodeRow(data []byte) (Row, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("error decoding row snapshot: %w", err)
	}

	row := make(Row, len(raw))
	for k, v := range raw {
		row[k] = normalizeJSONValue(v)
	}
	return row, nil
}

// UnmarshalJSON implements [json.Unmarshaler] using [DecodeRow].
func (r *Row) UnmarshalJSON(data []byte) error {
	row, err := DecodeRow(data)
	if err != nil {
		return err
	}
	*r = row
	return nil
}

func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, inner := range val {
			val[k] = normalizeJSONValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normalizeJSONValue(inner)
		}
		return val
	default:
		return v
	}
}
