package pipeline

import (
	"cleansed/internal/filter"
	"cleansed/internal/missing"
	"cleansed/internal/table"
	"cleansed/internal/typeinfer"
	"cleansed/internal/validation"
)

// Options is the per-job cleaning configuration supplied by the caller.
// The zero value runs a minimal pipeline: parse, normalize, write.
type Options struct {
	Normalize        bool                             `json:"normalize"`
	RemoveDuplicates bool                             `json:"remove_duplicates"`
	RemoveOutliers   bool                             `json:"remove_outliers"`
	OutlierColumns   []string                         `json:"outlier_columns,omitempty"`
	Filters          map[string]filter.Predicate      `json:"filters,omitempty"`
	ValidationRules  validation.Schema                `json:"validation_rules,omitempty"`
	OutputFormat     string                           `json:"output_format,omitempty" validate:"omitempty,oneof=csv json"`
	EnforceTypes     bool                             `json:"enforce_types"`
	TypeMap          map[string]table.Kind            `json:"type_map,omitempty"`
	AutoDetectTypes  bool                             `json:"auto_detect_types"`
	RangeRules       map[string]typeinfer.RangeRule   `json:"range_rules,omitempty"`
	HandleMissing    bool                             `json:"handle_missing_data"`
	MissingStrategy  map[string]missing.Strategy      `json:"missing_data_strategy,omitempty"`
	DefaultStrategy  missing.Strategy                 `json:"default_missing_strategy,omitempty"`
	FlagMissing      bool                             `json:"flag_missing_data"`
	DetectQuality    bool                             `json:"detect_data_quality_issues"`
}

// DefaultOptions enables the standard cleaning passes.
func DefaultOptions() Options {
	return Options{
		Normalize:        true,
		RemoveDuplicates: true,
		AutoDetectTypes:  true,
		DetectQuality:    true,
		OutputFormat:     "csv",
	}
}
