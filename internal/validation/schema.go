// Package validation checks rows against a declarative schema and computes
// a four-factor quality score over the final table.
package validation

import (
	"fmt"
	"sort"
	"time"

	"cleansed/internal/table"
	"cleansed/internal/typeinfer"
)

// Field types accepted by schema rules.
const (
	FieldString   = "string"
	FieldNumber   = "number"
	FieldBoolean  = "boolean"
	FieldDateTime = "datetime"
)

// FieldRule declares the constraints for one column.
type FieldRule struct {
	Required bool     `json:"required,omitempty"`
	Type     string   `json:"type,omitempty" validate:"omitempty,oneof=string number boolean datetime"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Schema maps column names to their rules.
type Schema map[string]FieldRule

// ValidateSchema reports whether every row satisfies the schema.
func ValidateSchema(t *table.Table, schema Schema) bool {
	return len(ValidationErrors(t, schema)) == 0
}

// ValidationErrors returns one message per violated rule, ordered by row
// and then by field name. Type checks are permissive coercions: any value
// parseable as a number counts as a number, any recognized boolean token as
// a boolean.
func ValidationErrors(t *table.Table, schema Schema) []string {
	if t == nil || len(schema) == 0 {
		return nil
	}
	fields := make([]string, 0, len(schema))
	for field := range schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []string
	for row := 0; row < t.NumRows(); row++ {
		for _, field := range fields {
			rule := schema[field]
			if !t.HasColumn(field) {
				if row == 0 && rule.Required {
					errs = append(errs, fmt.Sprintf("required column '%s' not found", field))
				}
				continue
			}
			v := t.Value(field, row)
			if table.IsNull(v) {
				if rule.Required {
					errs = append(errs, fmt.Sprintf("row %d: '%s' is required but missing", row, field))
				}
				continue
			}
			errs = append(errs, checkField(row, field, v, rule)...)
		}
	}
	return errs
}

func checkField(row int, field string, v any, rule FieldRule) []string {
	var errs []string
	switch rule.Type {
	case FieldNumber:
		f, ok := table.AsFloat(v)
		if !ok {
			return []string{fmt.Sprintf("row %d: '%s' expected a number, got '%s'", row, field, table.AsString(v))}
		}
		if rule.Min != nil && f < *rule.Min {
			errs = append(errs, fmt.Sprintf("row %d: '%s' value %s below minimum %v", row, field, table.AsString(v), *rule.Min))
		}
		if rule.Max != nil && f > *rule.Max {
			errs = append(errs, fmt.Sprintf("row %d: '%s' value %s above maximum %v", row, field, table.AsString(v), *rule.Max))
		}
	case FieldBoolean:
		if _, ok := table.AsBool(v); !ok {
			errs = append(errs, fmt.Sprintf("row %d: '%s' expected a boolean, got '%s'", row, field, table.AsString(v)))
		}
	case FieldDateTime:
		if !isDateTime(v) {
			errs = append(errs, fmt.Sprintf("row %d: '%s' expected a datetime, got '%s'", row, field, table.AsString(v)))
		}
	}
	// FieldString and untyped rules accept any non-null value.
	return errs
}

func isDateTime(v any) bool {
	switch x := v.(type) {
	case time.Time:
		return true
	case string:
		_, ok := typeinfer.ParseDateTime(x)
		return ok
	default:
		return false
	}
}
