// Package pipeline sequences the cleaning stages over one job's table,
// reporting progress at fixed checkpoints and recording errors per the
// taxonomy: parse problems abort the run, validation problems accumulate,
// column problems stay inside their stage's report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleansed/internal/exporter"
	"cleansed/internal/filter"
	"cleansed/internal/missing"
	"cleansed/internal/noise"
	"cleansed/internal/normalize"
	"cleansed/internal/parsers"
	"cleansed/internal/table"
	"cleansed/internal/typeinfer"
	"cleansed/internal/validation"
)

// Stage names, used in error context and metrics labels.
const (
	StageParse    = "parse"
	StageNormal   = "normalize"
	StageTypes    = "enforce_types"
	StageMissing  = "handle_missing"
	StageFilter   = "filter"
	StageNoise    = "reduce_noise"
	StageValidate = "validate"
	StageWrite    = "write_output"
)

// Progress checkpoints per stage. Advisory telemetry only.
var checkpoints = map[string]float64{
	StageParse:    0.20,
	StageNormal:   0.30,
	StageTypes:    0.40,
	StageMissing:  0.50,
	StageFilter:   0.55,
	StageNoise:    0.65,
	StageValidate: 0.80,
	StageWrite:    0.90,
}

// Notifier receives job snapshots as the run progresses. Implemented by
// the websocket hub; a nil notifier disables broadcasting.
type Notifier interface {
	JobUpdated(view View)
}

// Runner drives the fixed stage sequence for one job at a time. A Runner
// is safe for concurrent use; each job owns its table exclusively.
type Runner struct {
	writer   *exporter.Writer
	notifier Notifier
	logger   *slog.Logger
}

// NewRunner creates a pipeline runner writing artifacts through the given
// exporter.
func NewRunner(writer *exporter.Writer, notifier Notifier, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		writer:   writer,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// Run executes the full stage sequence for a job. Fatal stage errors mark
// the job failed and persist a best-effort error report; cancellation is
// honored at every stage boundary.
func (r *Runner) Run(ctx context.Context, job *Job) {
	logger := r.logger.With(slog.String("job_id", job.ID), slog.String("file", job.FileName))
	start := time.Now()

	if err := job.Start(); err != nil {
		logger.Warn("job not startable", slog.String("error", err.Error()))
		return
	}
	r.notify(job)
	logger.InfoContext(ctx, "pipeline run started")

	summary := make(map[string]any)
	opts := job.Options

	defer func() {
		jobDuration.Observe(time.Since(start).Seconds())
		jobsTotal.WithLabelValues(string(job.GetStatus())).Inc()
	}()

	// parse
	kind, err := parsers.DetectKind(job.FilePath)
	if err != nil {
		r.fail(ctx, job, classifyParseError(err))
		return
	}
	if kind == parsers.FileKindMarkdown {
		r.runMarkdown(ctx, job, summary, start)
		return
	}
	t, err := r.parse(job, kind)
	if err != nil {
		r.fail(ctx, job, err)
		return
	}
	rowsBefore := t.NumRows()
	summary["rows_parsed"] = rowsBefore
	summary["columns_parsed"] = t.NumColumns()
	if !r.checkpoint(job, StageParse) {
		return
	}

	// normalize
	if opts.Normalize {
		if err := normalize.StandardizeColumns(t); err != nil {
			r.fail(ctx, job, NewStageError(StageNormal, err))
			return
		}
		summary["values_nulled"] = normalize.NormalizeValues(t)
	}
	if !r.checkpoint(job, StageNormal) {
		return
	}

	// type enforcement and range validation
	typeErrors := 0
	if opts.EnforceTypes || opts.AutoDetectTypes {
		report := typeinfer.EnforceTypes(t, opts.TypeMap, opts.AutoDetectTypes, typeinfer.DefaultConfidence)
		typeErrors = len(report.Errors)
		for _, msg := range report.Errors {
			job.AppendError(fmt.Sprintf("[%s] %s: %s", ErrorTypeColumn, StageTypes, msg))
		}
		summary["columns_type_enforced"] = report.ColumnsEnforced
	}
	if len(opts.RangeRules) > 0 {
		before := t.NumRows()
		var violations []typeinfer.RangeViolation
		t, violations = typeinfer.ValidateRanges(t, opts.RangeRules)
		summary["range_violations"] = violations
		rowsRemoved.WithLabelValues(StageTypes).Add(float64(before - t.NumRows()))
	}
	if !r.checkpoint(job, StageTypes) {
		return
	}

	// missing data
	if opts.HandleMissing || opts.FlagMissing {
		missingOpts := missing.Options{
			Strategies: opts.MissingStrategy,
			Default:    opts.DefaultStrategy,
		}
		if opts.FlagMissing && len(opts.MissingStrategy) == 0 {
			missingOpts.Strategies = flagAll(t)
		}
		var report missing.Report
		t, report = missing.Handle(t, missingOpts)
		summary["missing_data"] = report
		rowsRemoved.WithLabelValues(StageMissing).Add(float64(report.RowsDropped))
	}
	if !r.checkpoint(job, StageMissing) {
		return
	}

	// filters
	if len(opts.Filters) > 0 {
		before := t.NumRows()
		t = filter.Apply(t, opts.Filters)
		summary["rows_filtered"] = before - t.NumRows()
		rowsRemoved.WithLabelValues(StageFilter).Add(float64(before - t.NumRows()))
	}
	if !r.checkpoint(job, StageFilter) {
		return
	}

	// noise reduction
	if opts.RemoveDuplicates {
		var report noise.DedupeReport
		t, report = noise.RemoveDuplicates(t)
		summary["duplicates_removed"] = report.RemovedExact + report.RemovedFuzzy
		rowsRemoved.WithLabelValues(StageNoise).Add(float64(report.RemovedExact + report.RemovedFuzzy))
	}
	if opts.RemoveOutliers {
		var report noise.OutlierReport
		t, report = noise.RemoveOutliers(t, opts.OutlierColumns)
		summary["outliers_removed"] = report.OriginalRows - report.FinalRows
		rowsRemoved.WithLabelValues(StageNoise).Add(float64(report.OriginalRows - report.FinalRows))
	}
	if !r.checkpoint(job, StageNoise) {
		return
	}

	// validation and quality score
	schemaProvided := len(opts.ValidationRules) > 0
	validationErrs := 0
	if schemaProvided {
		errs := validation.ValidationErrors(t, opts.ValidationRules)
		validationErrs = len(errs)
		for _, msg := range errs {
			job.AppendError(fmt.Sprintf("[%s] %s", ErrorTypeValidation, msg))
		}
		summary["validation_errors"] = validationErrs
	}
	if opts.DetectQuality {
		score := validation.Score(t, validation.QualityInputs{
			TypeErrors:       typeErrors,
			ValidationErrors: validationErrs,
			SchemaProvided:   schemaProvided,
			SchemaPassed:     schemaProvided && validationErrs == 0,
		})
		summary["quality_score"] = score
		logger.InfoContext(ctx, "quality score computed",
			slog.Float64("overall", score.Overall),
			slog.String("grade", score.Grade))
	}
	summary["profile"] = profileTable(t)
	if !r.checkpoint(job, StageValidate) {
		return
	}

	// write output
	outputPath, err := r.writer.WriteTable(job.ID, opts.OutputFormat, t)
	if err != nil {
		r.fail(ctx, job, NewStageError(StageWrite, err))
		return
	}
	if !r.checkpoint(job, StageWrite) {
		return
	}

	view := job.Snapshot()
	if path, err := r.writer.WriteErrorReport(job.ID, job.FileName, view.Errors); err != nil {
		logger.WarnContext(ctx, "error report not written", slog.String("error", err.Error()))
	} else if path != "" {
		summary["error_report"] = path
	}
	summary["processing_time_seconds"] = time.Since(start).Seconds()

	job.Complete(&Result{
		RowsBefore: rowsBefore,
		RowsAfter:  t.NumRows(),
		OutputPath: outputPath,
		Errors:     view.Errors,
		Summary:    summary,
		Metadata:   job.Metadata,
	})
	r.notify(job)
	logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("rows_before", rowsBefore),
		slog.Int("rows_after", t.NumRows()),
		slog.Duration("elapsed", time.Since(start)))
}

func (r *Runner) parse(job *Job, kind parsers.FileKind) (*table.Table, error) {
	var t *table.Table
	var err error
	switch kind {
	case parsers.FileKindCSV:
		t, err = parsers.ParseCSV(job.FilePath)
	case parsers.FileKindJSON:
		t, err = parsers.ParseJSON(job.FilePath)
	case parsers.FileKindExcel:
		t, err = parsers.ParseExcel(job.FilePath)
	default:
		err = fmt.Errorf("%w: unsupported file kind %q", parsers.ErrMalformed, kind)
	}
	if err != nil {
		return nil, classifyParseError(err)
	}
	return t, nil
}

// runMarkdown handles the prose path: normalize the text, write it out,
// done. No tabular stages apply.
func (r *Runner) runMarkdown(ctx context.Context, job *Job, summary map[string]any, start time.Time) {
	text, err := parsers.ParseMarkdown(job.FilePath)
	if err != nil {
		r.fail(ctx, job, classifyParseError(err))
		return
	}
	if !r.checkpoint(job, StageParse) {
		return
	}
	outputPath, err := r.writer.WriteText(job.ID, text)
	if err != nil {
		r.fail(ctx, job, NewStageError(StageWrite, err))
		return
	}
	summary["text_bytes"] = len(text)
	summary["processing_time_seconds"] = time.Since(start).Seconds()
	job.Complete(&Result{
		OutputPath: outputPath,
		Errors:     job.Snapshot().Errors,
		Summary:    summary,
		Metadata:   job.Metadata,
	})
	r.notify(job)
}

// checkpoint advances progress after a stage and reports whether the run
// should continue. Cancellation is only observed here, at stage
// boundaries.
func (r *Runner) checkpoint(job *Job, stage string) bool {
	if job.Cancelled() {
		r.logger.Info("run stopped by cancellation",
			slog.String("job_id", job.ID),
			slog.String("after_stage", stage))
		r.notify(job)
		return false
	}
	job.SetProgress(checkpoints[stage])
	r.notify(job)
	return true
}

func (r *Runner) fail(ctx context.Context, job *Job, err error) {
	stage := StageParse
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Stage != "" {
		stage = stageErr.Stage
	}
	stageFailures.WithLabelValues(stage).Inc()
	job.Fail(err)
	r.logger.ErrorContext(ctx, "pipeline run failed",
		slog.String("job_id", job.ID),
		slog.String("stage", stage),
		slog.String("error", err.Error()))

	view := job.Snapshot()
	if _, reportErr := r.writer.WriteErrorReport(job.ID, job.FileName, view.Errors); reportErr != nil {
		r.logger.Warn("error report not written", slog.String("error", reportErr.Error()))
	}
	r.notify(job)
}

func (r *Runner) notify(job *Job) {
	if r.notifier != nil {
		r.notifier.JobUpdated(job.Snapshot())
	}
}

// flagAll builds a flag strategy for every column with missing values.
func flagAll(t *table.Table) map[string]missing.Strategy {
	strategies := make(map[string]missing.Strategy)
	for _, col := range t.Columns() {
		if t.ColumnMissing(col) > 0 {
			strategies[col] = missing.Flag
		}
	}
	return strategies
}
