package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicvote/contexts/participation/voter-signup/adapters/memory"
	"civicvote/contexts/participation/voter-signup/domain/entities"
)

// flakySender fails delivery to one specific number.
type flakySender struct {
	badPhone string
	sent     []string
}

func (s *flakySender) Send(_ context.Context, phone string, _ string) error {
	if phone == s.badPhone {
		return errors.New("undeliverable")
	}
	s.sent = append(s.sent, phone)
	return nil
}

func enqueue(t *testing.T, store *memory.Store, id, phone string) {
	t.Helper()
	err := store.Enqueue(context.Background(), entities.Notification{
		NotificationID: id,
		ElectionID:     "el-1",
		VoterID:        "v-" + id,
		Phone:          phone,
		Body:           "Thank you! Your vote has been successfully recorded.",
		Status:         entities.NotificationPending,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enqueue(%s): %v", id, err)
	}
}

func TestRunOnceSkipsFailedRowAndContinues(t *testing.T) {
	store := memory.NewStore()
	enqueue(t, store, "n1", "6125550101")
	enqueue(t, store, "n2", "0000000000")
	enqueue(t, store, "n3", "6125550103")

	sender := &flakySender{badPhone: "0000000000"}
	relay := SMSRelay{Outbox: store, Sender: sender, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("delivered %v, want the two good numbers", sender.sent)
	}

	byID := make(map[string]entities.Notification)
	for _, row := range store.Notifications() {
		byID[row.NotificationID] = row
	}
	for _, id := range []string{"n1", "n3"} {
		row := byID[id]
		if row.Status != entities.NotificationSent {
			t.Fatalf("%s status = %q, want sent", id, row.Status)
		}
		if row.SentAt == nil || row.Attempts != 1 {
			t.Fatalf("%s = %+v, want one recorded attempt with a sent time", id, row)
		}
	}
	failed := byID["n2"]
	if failed.Status != entities.NotificationFailed {
		t.Fatalf("n2 status = %q, want failed", failed.Status)
	}
	if failed.LastError == "" {
		t.Fatal("n2 carries no failure reason")
	}

	// A failed row stays out of the next batch.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("second cycle re-delivered: %v", sender.sent)
	}
}

func TestRunOnceHonorsBatchSize(t *testing.T) {
	store := memory.NewStore()
	enqueue(t, store, "n1", "6125550101")
	enqueue(t, store, "n2", "6125550102")
	enqueue(t, store, "n3", "6125550103")

	sender := &flakySender{}
	relay := SMSRelay{Outbox: store, Sender: sender, Clock: store, BatchSize: 2}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("first cycle delivered %d, want 2", len(sender.sent))
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("after two cycles delivered %d, want 3", len(sender.sent))
	}
}
