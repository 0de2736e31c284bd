package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/jobs"
)

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	done := make(chan string, 1)
	handler := func(ctx context.Context, job jobs.Job) error {
		done <- job.GetID()
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.EmbedBatchJob{BatchSize: 50}
	if err := q.PublishEmbedBatch(context.Background(), job); err != nil {
		t.Fatalf("PublishEmbedBatch() error = %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish did not assign a job ID")
	}

	select {
	case id := <-done:
		if id != job.JobID {
			t.Errorf("handled job %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was never handled")
	}

	// The completed state is written after the handler returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		saved, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if saved.Status == jobs.JobStatusCompleted {
			if saved.CompletedAt == nil {
				t.Error("completed job has no CompletedAt")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", saved.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0
	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.EmbedBatchJob{BatchSize: 10, MaxRetries: 2}
	if err := q.PublishEmbedBatch(context.Background(), job); err != nil {
		t.Fatalf("PublishEmbedBatch() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		saved, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if saved.Status == jobs.JobStatusCompleted {
			if saved.RetryCount != 1 {
				t.Errorf("retry count = %d, want 1", saved.RetryCount)
			}
			break
		}
		if saved.Status == jobs.JobStatusFailed {
			t.Fatalf("job failed permanently: %s", saved.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", saved.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := q.PublishEmbedBatch(context.Background(), &jobs.EmbedBatchJob{}); err == nil {
		t.Error("publish after close expected error")
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := NewStore()
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		job := &jobs.EmbedBatchJob{
			JobID:     id,
			Status:    jobs.JobStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.SaveJob(context.Background(), job); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", id, err)
		}
	}

	list, err := store.ListJobs(context.Background(), jobs.JobFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(list) != 2 || list[0].JobID != "c" || list[1].JobID != "b" {
		t.Errorf("unexpected order: %v", list)
	}
}
