package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"cleansed/internal/table"
)

// wrapperKeys are the conventional envelope keys under which a record array
// may be nested, checked in order.
var wrapperKeys = []string{"records", "data", "items", "results", "rows"}

// ParseJSON reads a JSON file into a table. Accepted shapes: a bare array of
// objects, an object wrapping an array under a conventional key, or a single
// bare object (one-row table). Nested objects are flattened into
// underscore-joined column names. An empty file yields an empty table.
func ParseJSON(path string) (*table.Table, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return table.New()
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}

	records, err := extractRecords(root)
	if err != nil {
		return nil, err
	}
	return recordsToTable(records)
}

func extractRecords(root any) ([]map[string]any, error) {
	switch v := root.(type) {
	case []any:
		return coerceRecordList(v)
	case map[string]any:
		for _, key := range wrapperKeys {
			if wrapped, ok := v[key]; ok {
				if list, ok := wrapped.([]any); ok {
					return coerceRecordList(list)
				}
				return nil, fmt.Errorf("%w: %q does not hold an array", ErrMalformed, key)
			}
		}
		// single bare object becomes a one-row table
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported JSON shape %T", ErrMalformed, root)
	}
}

func coerceRecordList(list []any) ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformed, i)
		}
		records = append(records, obj)
	}
	return records, nil
}

// recordsToTable flattens each record and builds the column union in
// first-seen order.
func recordsToTable(records []map[string]any) (*table.Table, error) {
	var columns []string
	seen := make(map[string]bool)
	flat := make([]map[string]any, 0, len(records))

	for _, record := range records {
		row := make(map[string]any)
		flattenInto(row, "", record)
		for _, key := range flatKeysInOrder(record) {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		flat = append(flat, row)
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, row := range flat {
		t.AppendRow(row)
	}
	return t, nil
}

// flattenInto writes record fields into row, joining nested object keys
// with underscores. Arrays are kept as their JSON text.
func flattenInto(row map[string]any, prefix string, record map[string]any) {
	for key, value := range record {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}
		switch v := value.(type) {
		case map[string]any:
			flattenInto(row, name, v)
		case []any:
			encoded, err := json.Marshal(v)
			if err != nil {
				row[name] = fmt.Sprintf("%v", v)
			} else {
				row[name] = string(encoded)
			}
		default:
			row[name] = v
		}
	}
}

// flatKeysInOrder returns the flattened key names of a record in the order
// encoding/json exposes them. Go maps do not preserve JSON key order, so the
// order is stable per run but not source order; sorting keeps it
// deterministic.
func flatKeysInOrder(record map[string]any) []string {
	row := make(map[string]any)
	flattenInto(row, "", record)
	return sortedKeys(row)
}
