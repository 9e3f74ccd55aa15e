// Package http exposes the cleaning pipeline over a JSON API: upload a
// file, start processing, poll status, fetch results and artifacts.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "cleansed/internal/errors"
	"cleansed/internal/exporter"
	"cleansed/internal/pipeline"
	"cleansed/internal/validation"
)

const maxUploadBytes = 100 << 20 // 100 MiB

var validate = validator.New()

// JobsHandler serves the job lifecycle endpoints.
type JobsHandler struct {
	store     pipeline.JobStore
	queue     *pipeline.JobQueue
	writer    *exporter.Writer
	uploads   *validation.UploadValidator
	uploadDir string
	logger    *slog.Logger
}

// NewJobsHandler creates the handler.
func NewJobsHandler(store pipeline.JobStore, queue *pipeline.JobQueue, writer *exporter.Writer, uploadDir string, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		store:     store,
		queue:     queue,
		writer:    writer,
		uploads:   validation.NewUploadValidator(maxUploadBytes, logger),
		uploadDir: uploadDir,
		logger:    logger.With(slog.String("handler", "jobs")),
	}
}

// Ingest accepts a multipart upload, stores the file and creates a pending
// job. Processing does not start until the process endpoint is called.
func (h *JobsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	if err := h.uploads.ValidateUpload(header.Filename, header.Size); err != nil {
		render.Render(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT", err.Error(), nil))
		return
	}

	job := pipeline.NewJob(header.Filename, "", pipeline.DefaultOptions())
	dst := filepath.Join(h.uploadDir, job.ID+"_"+filepath.Base(header.Filename))
	job.FilePath = dst

	out, err := os.Create(dst)
	if err != nil {
		render.Render(w, r, apierrors.InternalWithError(err))
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dst)
		render.Render(w, r, apierrors.InternalWithError(err))
		return
	}

	if err := h.store.Create(job); err != nil {
		os.Remove(dst)
		render.Render(w, r, apierrors.InternalWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "file ingested",
		slog.String("job_id", job.ID),
		slog.String("file", header.Filename),
		slog.Int64("bytes", header.Size))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, job.Snapshot())
}

// ProcessRequest overrides the job's cleaning options.
type ProcessRequest struct {
	Options *pipeline.Options `json:"options,omitempty"`
}

// Bind implements render.Binder.
func (p *ProcessRequest) Bind(r *http.Request) error {
	if p.Options == nil {
		return nil
	}
	if err := validate.Struct(p.Options); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Process enqueues a pending job for the pipeline.
func (h *JobsHandler) Process(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}

	var req ProcessRequest
	if r.ContentLength > 0 {
		if err := render.Bind(r, &req); err != nil {
			render.Render(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}
	if req.Options != nil {
		job.Options = *req.Options
	}

	if err := h.queue.Enqueue(job); err != nil {
		if strings.Contains(err.Error(), "queue is full") {
			render.Render(w, r, apierrors.ErrQueueFull)
			return
		}
		render.Render(w, r, apierrors.NewWithDetails(http.StatusConflict, "JOB_NOT_STARTABLE", err.Error(), nil))
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job.Snapshot())
}

// Status returns the job snapshot.
func (h *JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, job.Snapshot())
}

// Result returns the result payload of a completed job.
func (h *JobsHandler) Result(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	view := job.Snapshot()
	if view.Status != pipeline.JobStatusCompleted || view.Result == nil {
		render.Render(w, r, apierrors.ErrResultNotReady)
		return
	}
	render.JSON(w, r, view.Result)
}

// Download streams the cleaned artifact.
func (h *JobsHandler) Download(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	view := job.Snapshot()
	if view.Status != pipeline.JobStatusCompleted || view.Result == nil {
		render.Render(w, r, apierrors.ErrResultNotReady)
		return
	}
	path := view.Result.OutputPath
	if _, err := os.Stat(path); err != nil {
		render.Render(w, r, apierrors.ErrFileNotFound)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// Errors streams the plain-text error report.
func (h *JobsHandler) Errors(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	path := h.writer.ErrorReportPath(job.ID)
	if _, err := os.Stat(path); err != nil {
		render.Render(w, r, apierrors.ErrFileNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}

// Cancel cancels a pending or processing job.
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	if err := job.Cancel(); err != nil {
		render.Render(w, r, apierrors.ErrJobNotCancellable)
		return
	}
	render.JSON(w, r, job.Snapshot())
}

// Delete removes a job and its files.
func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	view := job.Snapshot()
	if err := h.store.Delete(job.ID); err != nil {
		render.Render(w, r, apierrors.ErrJobNotFound)
		return
	}
	// best-effort file cleanup
	if job.FilePath != "" {
		os.Remove(job.FilePath)
	}
	if view.Result != nil && view.Result.OutputPath != "" {
		os.Remove(view.Result.OutputPath)
	}
	os.Remove(h.writer.ErrorReportPath(job.ID))

	h.logger.InfoContext(r.Context(), "job deleted", slog.String("job_id", job.ID))
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

// List returns jobs, optionally filtered by status.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := pipeline.JobFilter{
		Status: pipeline.JobStatus(r.URL.Query().Get("status")),
	}
	jobs := h.store.List(filter)
	views := make([]pipeline.View, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.Snapshot())
	}
	render.JSON(w, r, map[string]any{"jobs": views, "count": len(views)})
}

func (h *JobsHandler) jobFromURL(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	id := chi.URLParam(r, "job_id")
	job, err := h.store.Get(id)
	if err != nil {
		render.Render(w, r, apierrors.ErrJobNotFound)
		return nil, false
	}
	return job, true
}
