package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStore(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		store := NewMemoryJobStore()
		job := NewJob("a.csv", "", Options{})
		require.NoError(t, store.Create(job))

		got, err := store.Get(job.ID)
		require.NoError(t, err)
		assert.Same(t, job, got)
	})

	t.Run("duplicate create rejected", func(t *testing.T) {
		store := NewMemoryJobStore()
		job := NewJob("a.csv", "", Options{})
		require.NoError(t, store.Create(job))
		assert.Error(t, store.Create(job))
	})

	t.Run("get and delete unknown ids", func(t *testing.T) {
		store := NewMemoryJobStore()
		_, err := store.Get("nope")
		assert.Error(t, err)
		assert.Error(t, store.Delete("nope"))
	})

	t.Run("delete removes the job", func(t *testing.T) {
		store := NewMemoryJobStore()
		job := NewJob("a.csv", "", Options{})
		require.NoError(t, store.Create(job))
		require.NoError(t, store.Delete(job.ID))
		_, err := store.Get(job.ID)
		assert.Error(t, err)
	})
}

func TestMemoryJobStoreCleanup(t *testing.T) {
	store := NewMemoryJobStore()

	expired := NewJob("old.csv", "", Options{})
	expired.Complete(&Result{})
	past := time.Now().Add(-48 * time.Hour)
	expired.CompletedAt = &past

	fresh := NewJob("fresh.csv", "", Options{})
	fresh.Complete(&Result{})

	running := NewJob("running.csv", "", Options{})
	require.NoError(t, running.Start())

	for _, job := range []*Job{expired, fresh, running} {
		require.NoError(t, store.Create(job))
	}

	removed := store.CleanupOldJobs(24 * time.Hour)
	require.Len(t, removed, 1)
	assert.Equal(t, "old.csv", removed[0].FileName)

	_, err := store.Get(expired.ID)
	assert.Error(t, err)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err, "recent terminal jobs kept")
	_, err = store.Get(running.ID)
	assert.NoError(t, err, "non-terminal jobs never purged")
}

func TestMemoryJobStoreList(t *testing.T) {
	store := NewMemoryJobStore()
	base := time.Now()

	oldest := NewJob("oldest.csv", "", Options{})
	oldest.CreatedAt = base.Add(-2 * time.Hour)
	middle := NewJob("middle.csv", "", Options{})
	middle.CreatedAt = base.Add(-1 * time.Hour)
	newest := NewJob("newest.csv", "", Options{})
	newest.CreatedAt = base
	require.NoError(t, newest.Start())

	for _, job := range []*Job{oldest, middle, newest} {
		require.NoError(t, store.Create(job))
	}

	t.Run("newest first", func(t *testing.T) {
		jobs := store.List(JobFilter{})
		require.Len(t, jobs, 3)
		assert.Equal(t, "newest.csv", jobs[0].FileName)
		assert.Equal(t, "middle.csv", jobs[1].FileName)
		assert.Equal(t, "oldest.csv", jobs[2].FileName)
	})

	t.Run("status filter", func(t *testing.T) {
		jobs := store.List(JobFilter{Status: JobStatusProcessing})
		require.Len(t, jobs, 1)
		assert.Equal(t, "newest.csv", jobs[0].FileName)
	})

	t.Run("since filter", func(t *testing.T) {
		jobs := store.List(JobFilter{Since: base.Add(-90 * time.Minute)})
		assert.Len(t, jobs, 2)
	})

	t.Run("limit", func(t *testing.T) {
		jobs := store.List(JobFilter{Limit: 1})
		require.Len(t, jobs, 1)
		assert.Equal(t, "newest.csv", jobs[0].FileName)
	})
}
