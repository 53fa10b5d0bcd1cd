package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xiaot623/medintake/internal/domain"
)

// testSessionStoreContract exercises behaviour every SessionStore shares.
func testSessionStoreContract(t *testing.T, s SessionStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.GetSession(ctx, "Dana"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	sess, created, err := s.GetOrCreateSession(ctx, "Dana")
	if err != nil {
		t.Fatalf("GetOrCreateSession failed: %v", err)
	}
	if !created || sess.Stage != domain.StageGreeting || len(sess.MessageHistory) != 0 {
		t.Fatalf("unexpected new session: created=%v %+v", created, sess)
	}
	if len(sess.CollectedInfo) != 3 {
		t.Fatalf("expected 3 collected info keys, got %d", len(sess.CollectedInfo))
	}

	// Mutating the returned copy must not leak into the store.
	sess.Stage = domain.StageTreatment
	again, created, err := s.GetOrCreateSession(ctx, "Dana")
	if err != nil {
		t.Fatalf("GetOrCreateSession failed: %v", err)
	}
	if created || again.Stage != domain.StageGreeting {
		t.Fatalf("unexpected existing session: created=%v stage=%s", created, again.Stage)
	}

	sess.AppendMessage(domain.RoleUser, "שלום", time.Now())
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	got, err := s.GetSession(ctx, "Dana")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Stage != domain.StageTreatment || len(got.MessageHistory) != 1 || got.MessageHistory[0].Content != "שלום" {
		t.Fatalf("unexpected saved session: %+v", got)
	}

	// user ids are case-sensitive
	if _, err := s.GetSession(ctx, "dana"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for different case, got %v", err)
	}

	if err := s.DeleteSession(ctx, "Dana"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if err := s.DeleteSession(ctx, "Dana"); err != nil {
		t.Fatalf("second DeleteSession failed: %v", err)
	}
	if _, err := s.GetSession(ctx, "Dana"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}
