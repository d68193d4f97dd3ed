package shares_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/documents/documentstest"
	"github.com/docvault/docvault/internal/mailer"
	"github.com/docvault/docvault/internal/shares"
	"github.com/docvault/docvault/internal/storage"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+": "+body)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, cfg *config.ShareConfig) (shares.Manager, *documentstest.Fake, *fakeMailer) {
	t.Helper()

	store, err := storage.New(context.Background(), &config.StorageConfig{
		Driver:   config.StorageDriverFilesystem,
		BasePath: t.TempDir(),
	}, testLogger())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	if cfg == nil {
		cfg = &config.ShareConfig{}
	}

	docs := documentstest.New(store)
	mail := &fakeMailer{}
	mgr := shares.NewManager(docs, store, mail, cfg, "http://localhost:8080", testLogger())
	return mgr, docs, mail
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func createDocument(t *testing.T, docs *documentstest.Fake, owner string) *documents.Document {
	t.Helper()

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		OwnerID:   owner,
		Filename:  "shared.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 4,
		Data:      []byte("data"),
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestGenerateProducesOpaqueToken(t *testing.T) {
	mgr, docs, _ := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")

	link, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(link.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(link.Token))
	}
	if link.ExpiresAt != nil {
		t.Error("zero ttl should produce no expiry")
	}
	if !strings.HasSuffix(link.URL, "/"+link.Token) {
		t.Errorf("url %q does not end with token", link.URL)
	}

	second, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if second.Token == link.Token {
		t.Error("regeneration reused the previous token")
	}
}

func TestGenerateRespectsMaxTTL(t *testing.T) {
	cfg := &config.ShareConfig{MaxTTL: "1h"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	mgr, docs, _ := setup(t, cfg)

	doc := createDocument(t, docs, "alice")

	_, err := mgr.Generate(context.Background(), doc.ID, "alice", 2*time.Hour)
	if !errors.Is(err, shares.ErrTTLTooLong) {
		t.Errorf("got %v, want ErrTTLTooLong", err)
	}

	if _, err := mgr.Generate(context.Background(), doc.ID, "alice", 30*time.Minute); err != nil {
		t.Errorf("Generate within cap: %v", err)
	}
}

func TestGenerateForbiddenForNonOwner(t *testing.T) {
	mgr, docs, _ := setup(t, nil)

	doc := createDocument(t, docs, "alice")

	_, err := mgr.Generate(context.Background(), doc.ID, "mallory", 0)
	if !errors.Is(err, documents.ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestAccessReturnsPublicProjection(t *testing.T) {
	mgr, docs, _ := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	link, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	view, err := mgr.Access(ctx, link.Token)
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if view.Filename != "shared.pdf" {
		t.Errorf("filename = %q", view.Filename)
	}

	_, data, err := mgr.Download(ctx, link.Token)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(data, []byte("data")) {
		t.Errorf("content = %q", data)
	}
}

func TestAccessUnknownToken(t *testing.T) {
	mgr, _, _ := setup(t, nil)

	_, err := mgr.Access(context.Background(), "nope")
	if !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAccessExpiredTokenLazily(t *testing.T) {
	mgr, docs, _ := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")

	token := "expiredtoken"
	past := time.Now().Add(-time.Minute)
	if err := docs.SetShare(ctx, doc.ID, &token, &past); err != nil {
		t.Fatalf("SetShare: %v", err)
	}

	_, err := mgr.Access(ctx, token)
	if !errors.Is(err, shares.ErrExpired) {
		t.Errorf("got %v, want ErrExpired", err)
	}

	// Expiry never auto-revokes; the token remains on the record.
	stored, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.ShareToken == nil {
		t.Error("expired token was revoked")
	}
}

func TestAccessTrashedDocument(t *testing.T) {
	mgr, docs, _ := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	link, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	now := time.Now()
	if err := docs.SetTrashed(ctx, doc.ID, true, &now); err != nil {
		t.Fatalf("SetTrashed: %v", err)
	}

	_, err = mgr.Access(ctx, link.Token)
	if !errors.Is(err, shares.ErrTrashed) {
		t.Errorf("got %v, want ErrTrashed", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	mgr, docs, _ := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	link, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := mgr.Revoke(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := mgr.Revoke(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}

	if _, err := mgr.Access(ctx, link.Token); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after revoke", err)
	}
}

func TestSendByEmail(t *testing.T) {
	mgr, docs, mail := setup(t, nil)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")

	if _, err := mgr.SendByEmail(ctx, doc.ID, "alice", "bob@example.com"); !errors.Is(err, shares.ErrNotShared) {
		t.Fatalf("got %v, want ErrNotShared before generating", err)
	}

	link, err := mgr.Generate(ctx, doc.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := mgr.SendByEmail(ctx, doc.ID, "alice", "bob@example.com"); err != nil {
		t.Fatalf("SendByEmail: %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0], link.URL) {
		t.Errorf("message %q does not contain link", mail.sent[0])
	}
}
