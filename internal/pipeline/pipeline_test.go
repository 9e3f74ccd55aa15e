package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleansed/internal/exporter"
	"cleansed/internal/validation"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// captureNotifier records every snapshot the runner broadcasts.
type captureNotifier struct {
	mu    sync.Mutex
	views []View
}

func (n *captureNotifier) JobUpdated(view View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.views = append(n.views, view)
}

func (n *captureNotifier) last(t *testing.T) View {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.views)
	return n.views[len(n.views)-1]
}

func TestRunnerEndToEnd(t *testing.T) {
	input := writeInput(t, "people.csv", "Name,Age\nalice,30\nbob,25\nalice,30\n")
	outDir := t.TempDir()
	notifier := &captureNotifier{}
	runner := NewRunner(exporter.NewWriter(outDir), notifier, nil)

	job := NewJob("people.csv", input, DefaultOptions())
	runner.Run(context.Background(), job)

	require.Equal(t, JobStatusCompleted, job.GetStatus())
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.RowsBefore)
	assert.Equal(t, 2, job.Result.RowsAfter, "exact duplicate removed")
	assert.Equal(t, 1.0, job.Progress)
	assert.Empty(t, job.Errors)

	data, err := os.ReadFile(job.Result.OutputPath)
	require.NoError(t, err, "cleaned artifact exists at the reported path")
	assert.Contains(t, string(data), "name,age", "headers normalized")

	assert.Contains(t, job.Result.Summary, "quality_score")
	profile, ok := job.Result.Summary["profile"].(Profile)
	require.True(t, ok)
	assert.Equal(t, 2, profile.Rows)
	assert.Equal(t, []string{"age"}, profile.NumericColumns)
	assert.Zero(t, profile.DuplicateRows)

	assert.Equal(t, JobStatusCompleted, notifier.last(t).Status)
}

func TestRunnerMissingFile(t *testing.T) {
	runner := NewRunner(exporter.NewWriter(t.TempDir()), nil, nil)
	job := NewJob("ghost.csv", filepath.Join(t.TempDir(), "ghost.csv"), DefaultOptions())
	runner.Run(context.Background(), job)

	assert.Equal(t, JobStatusFailed, job.GetStatus())
	require.NotEmpty(t, job.Errors)
	assert.Contains(t, job.Errors[0], "not_found")
}

func TestRunnerUnsupportedExtension(t *testing.T) {
	input := writeInput(t, "archive.zip", "not a table")
	runner := NewRunner(exporter.NewWriter(t.TempDir()), nil, nil)
	job := NewJob("archive.zip", input, Options{})
	runner.Run(context.Background(), job)

	assert.Equal(t, JobStatusFailed, job.GetStatus())
}

func TestRunnerSkipsCancelledJob(t *testing.T) {
	input := writeInput(t, "people.csv", "a,b\n1,2\n")
	runner := NewRunner(exporter.NewWriter(t.TempDir()), nil, nil)
	job := NewJob("people.csv", input, Options{})
	require.NoError(t, job.Cancel())

	runner.Run(context.Background(), job)
	assert.Equal(t, JobStatusCancelled, job.GetStatus())
	assert.Nil(t, job.Result)
}

func TestRunnerMarkdownPath(t *testing.T) {
	input := writeInput(t, "doc.md", "# Title\r\n\r\n\r\n\r\nBody text\r\n")
	runner := NewRunner(exporter.NewWriter(t.TempDir()), nil, nil)
	job := NewJob("doc.md", input, Options{})
	runner.Run(context.Background(), job)

	require.Equal(t, JobStatusCompleted, job.GetStatus())
	require.NotNil(t, job.Result)
	assert.True(t, strings.HasSuffix(job.Result.OutputPath, ".txt"))

	data, err := os.ReadFile(job.Result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text\n", string(data))
}

func TestRunnerValidationErrorsAccumulate(t *testing.T) {
	input := writeInput(t, "people.csv", "name,age\nalice,200\nbob,25\n")
	writer := exporter.NewWriter(t.TempDir())
	runner := NewRunner(writer, nil, nil)

	maxAge := 120.0
	opts := DefaultOptions()
	opts.ValidationRules = validation.Schema{
		"age": {Type: validation.FieldNumber, Max: &maxAge},
	}

	job := NewJob("people.csv", input, opts)
	runner.Run(context.Background(), job)

	// validation failures accumulate on the job without failing the run
	require.Equal(t, JobStatusCompleted, job.GetStatus())
	require.Len(t, job.Result.Errors, 1)
	assert.Contains(t, job.Result.Errors[0], "validation_failure")
	assert.Contains(t, job.Result.Errors[0], "above maximum")

	report, err := os.ReadFile(writer.ErrorReportPath(job.ID))
	require.NoError(t, err, "error report written alongside the artifact")
	assert.Contains(t, string(report), "above maximum")
}

func TestJobQueue(t *testing.T) {
	t.Run("only pending jobs can be enqueued", func(t *testing.T) {
		queue := NewJobQueue(1, NewMemoryJobStore(), nil, nil)
		job := NewJob("f.csv", "", Options{})
		require.NoError(t, job.Start())
		assert.Error(t, queue.Enqueue(job))
	})

	t.Run("full queue fails the job", func(t *testing.T) {
		// one worker, buffer of two, workers never started
		queue := NewJobQueue(1, NewMemoryJobStore(), nil, nil)
		require.NoError(t, queue.Enqueue(NewJob("a.csv", "", Options{})))
		require.NoError(t, queue.Enqueue(NewJob("b.csv", "", Options{})))

		overflow := NewJob("c.csv", "", Options{})
		assert.Error(t, queue.Enqueue(overflow))
		assert.Equal(t, JobStatusFailed, overflow.GetStatus())
	})

	t.Run("workers process enqueued jobs", func(t *testing.T) {
		input := writeInput(t, "people.csv", "name,age\nalice,30\nbob,25\n")
		store := NewMemoryJobStore()
		runner := NewRunner(exporter.NewWriter(t.TempDir()), nil, nil)
		queue := NewJobQueue(2, store, runner, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		queue.Start(ctx)

		job := NewJob("people.csv", input, DefaultOptions())
		require.NoError(t, store.Create(job))
		require.NoError(t, queue.Enqueue(job))

		require.Eventually(t, func() bool {
			return job.GetStatus() == JobStatusCompleted
		}, 5*time.Second, 10*time.Millisecond)

		require.NoError(t, queue.Stop(time.Second))
	})
}
