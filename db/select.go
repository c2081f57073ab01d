package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/circleci/sample-app/closer"
)

// SelectMaps runs query and returns each row as a map of column name to value. The result is
// never nil, a query matching no rows gives an empty slice.
//
// Text returned as bytes is converted to a string, json or jsonb columns are returned as
// json.RawMessage so they encode as JSON rather than as a quoted string, and bytea columns stay
// []byte so binary values survive encoding.
func SelectMaps(ctx context.Context, q Querier, query string, args ...interface{}) (_ []map[string]any, err error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer closer.ErrorHandler(rows, &err)

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, mapError(err)
	}

	result := []map[string]any{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, mapError(err)
		}
		if len(vals) != len(cols) {
			return nil, fmt.Errorf("scanned %d values for %d columns", len(vals), len(cols))
		}

		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c.Name()] = normalise(c.DatabaseTypeName(), vals[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func normalise(dbType string, v any) any {
	switch dbType {
	case "JSON", "JSONB":
		var raw []byte
		switch t := v.(type) {
		case []byte:
			raw = append([]byte(nil), t...)
		case string:
			raw = []byte(t)
		}
		if raw != nil && json.Valid(raw) {
			return json.RawMessage(raw)
		}
	case "BYTEA":
		// binary values stay as bytes, which encode as base64
		if b, ok := v.([]byte); ok {
			return append([]byte(nil), b...)
		}
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
