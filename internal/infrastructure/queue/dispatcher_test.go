package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (r *recordingRepo) InsertEvent(_ context.Context, e *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *recordingRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerRecordOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []string{domain.AuditActionCreate, domain.AuditActionUpdate, domain.AuditActionUpdate, domain.AuditActionDelete}
	for i, a := range actions {
		d.Enqueue(domain.AuditEvent{ID: strconv.Itoa(i), Resource: "cars", ResourceID: "42", Action: a})
	}
	for i := 0; i < 20; i++ {
		d.Enqueue(domain.AuditEvent{ID: "other-" + strconv.Itoa(i), Resource: "laws", ResourceID: strconv.Itoa(i), Action: domain.AuditActionCreate})
	}

	cancel()
	d.Wait()

	var got []string
	total := 0
	for _, e := range repo.snapshot() {
		total++
		if e.Resource == "cars" {
			got = append(got, e.ID)
		}
	}
	if total != len(actions)+20 {
		t.Fatalf("expected %d persisted events, got %d", len(actions)+20, total)
	}
	want := []string{"0", "1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

// ctxAwareRepo fails like a driver would once its context is cancelled.
type ctxAwareRepo struct {
	recordingRepo
}

func (r *ctxAwareRepo) InsertEvent(ctx context.Context, e *domain.AuditEvent) error {
	time.Sleep(time.Millisecond)
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.recordingRepo.InsertEvent(ctx, e)
}

func TestDispatcher_ShutdownStoresEverythingQueued(t *testing.T) {
	const queued = 200
	repo := &ctxAwareRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < queued; i++ {
		d.Enqueue(domain.AuditEvent{ID: strconv.Itoa(i), Resource: "cars", ResourceID: "7", Action: domain.AuditActionUpdate})
	}
	cancel()
	d.Wait()

	got := repo.snapshot()
	if len(got) != queued {
		t.Fatalf("expected %d persisted events after shutdown, got %d", queued, len(got))
	}
	for i, e := range got {
		if e.ID != strconv.Itoa(i) {
			t.Fatalf("event %d out of order: %s", i, e.ID)
		}
	}
}

func TestDispatcher_SameKeySameShard(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	a := d.shardIndex("cars:1")
	for i := 0; i < 10; i++ {
		if d.shardIndex("cars:1") != a {
			t.Fatal("shard index must be deterministic")
		}
	}
	if idx := d.shardIndex("users:99"); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	for i := 0; i < channelBuffer+5; i++ {
		d.Enqueue(domain.AuditEvent{ID: strconv.Itoa(i), Resource: "cars", ResourceID: "1"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if n := len(repo.snapshot()); n != channelBuffer {
		t.Fatalf("expected %d persisted events, got %d", channelBuffer, n)
	}
}

func TestDispatcher_RepositoryFailureDoesNotStopWorker(t *testing.T) {
	repo := &recordingRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(domain.AuditEvent{ID: "1", Resource: "cars", ResourceID: "1"})
	d.Enqueue(domain.AuditEvent{ID: "2", Resource: "cars", ResourceID: "1"})

	cancel()
	d.Wait()

	if n := len(repo.snapshot()); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}
}
