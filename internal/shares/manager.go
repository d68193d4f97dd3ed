// Package shares manages public share links: opaque token generation,
// lazy expiry enforcement, and unauthenticated read access.
package shares

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/mailer"
	"github.com/docvault/docvault/internal/storage"
	"github.com/google/uuid"
)

// tokenBytes sizes the random token. 32 bytes yields a 64-character hex
// string, well beyond guessing range.
const tokenBytes = 32

// Link describes an active share link.
type Link struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PublicDocument is the read-only projection exposed to unauthenticated
// share access. Owner identity, flags, and version history stay private.
type PublicDocument struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager defines share link operations.
type Manager interface {
	// Generate creates a share link for an owned document. A ttl of zero
	// means the link never expires. Regenerating replaces any prior link.
	Generate(ctx context.Context, id uuid.UUID, ownerID string, ttl time.Duration) (*Link, error)

	// Access resolves a token to its document, enforcing expiry and trash
	// state at access time.
	Access(ctx context.Context, token string) (*PublicDocument, error)

	// Download returns the shared document's content bytes.
	Download(ctx context.Context, token string) (*PublicDocument, []byte, error)

	// Revoke removes the share link. Revoking an unshared document is a
	// no-op.
	Revoke(ctx context.Context, id uuid.UUID, ownerID string) error

	// SendByEmail mails an active share link to a recipient.
	SendByEmail(ctx context.Context, id uuid.UUID, ownerID, recipient string) (*Link, error)
}

type manager struct {
	docs    documents.System
	store   storage.System
	mail    mailer.Mailer
	cfg     *config.ShareConfig
	baseURL string
	logger  *slog.Logger
}

// NewManager creates a share manager. publicURL is the server's external
// address, used when no dedicated share base URL is configured.
func NewManager(docs documents.System, store storage.System, mail mailer.Mailer, cfg *config.ShareConfig, publicURL string, logger *slog.Logger) Manager {
	base := cfg.BaseURL
	if base == "" {
		base = strings.TrimSuffix(publicURL, "/") + "/shared"
	}

	return &manager{
		docs:    docs,
		store:   store,
		mail:    mail,
		cfg:     cfg,
		baseURL: strings.TrimSuffix(base, "/"),
		logger:  logger.With("system", "shares"),
	}
}

func (m *manager) Generate(ctx context.Context, id uuid.UUID, ownerID string, ttl time.Duration) (*Link, error) {
	if max := m.cfg.MaxTTLDuration(); max > 0 && ttl > max {
		return nil, ErrTTLTooLong
	}

	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if doc.IsTrashed {
		return nil, ErrTrashed
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	var expiry *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiry = &t
	}

	if err := m.docs.SetShare(ctx, id, &token, expiry); err != nil {
		return nil, err
	}

	m.logger.Info("share link created", "document_id", id, "expires", expiry != nil)
	return m.link(token, expiry), nil
}

func (m *manager) Access(ctx context.Context, token string) (*PublicDocument, error) {
	doc, err := m.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return publicView(doc), nil
}

func (m *manager) Download(ctx context.Context, token string) (*PublicDocument, []byte, error) {
	doc, err := m.resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	data, err := m.store.Retrieve(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}

	return publicView(doc), data, nil
}

func (m *manager) Revoke(ctx context.Context, id uuid.UUID, ownerID string) error {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !doc.HasActiveShare() {
		return nil
	}

	if err := m.docs.SetShare(ctx, id, nil, nil); err != nil {
		return err
	}

	m.logger.Info("share link revoked", "document_id", id)
	return nil
}

func (m *manager) SendByEmail(ctx context.Context, id uuid.UUID, ownerID, recipient string) (*Link, error) {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !doc.HasActiveShare() {
		return nil, ErrNotShared
	}
	if expired(doc) {
		return nil, ErrExpired
	}

	link := m.link(*doc.ShareToken, doc.ShareExpiry)

	subject := fmt.Sprintf("Document shared with you: %s", doc.Filename)
	body := fmt.Sprintf("A document has been shared with you.\r\n\r\n%s\r\n\r\n%s", doc.Filename, link.URL)
	if link.ExpiresAt != nil {
		body += fmt.Sprintf("\r\n\r\nThis link expires %s.", link.ExpiresAt.Format(time.RFC1123))
	}

	if err := m.mail.Send(ctx, recipient, subject, body); err != nil {
		return nil, err
	}

	m.logger.Info("share link emailed", "document_id", id)
	return link, nil
}

// resolve looks up a token and applies access-time checks. Expiry is
// enforced lazily here rather than by a background job.
func (m *manager) resolve(ctx context.Context, token string) (*documents.Document, error) {
	doc, err := m.docs.FindByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if doc.IsTrashed {
		return nil, ErrTrashed
	}
	if expired(doc) {
		return nil, ErrExpired
	}
	return doc, nil
}

func (m *manager) link(token string, expiry *time.Time) *Link {
	return &Link{
		Token:     token,
		URL:       fmt.Sprintf("%s/%s", m.baseURL, token),
		ExpiresAt: expiry,
	}
}

func expired(doc *documents.Document) bool {
	return doc.ShareExpiry != nil && time.Now().After(*doc.ShareExpiry)
}

func publicView(doc *documents.Document) *PublicDocument {
	return &PublicDocument{
		Filename:  doc.Filename,
		SizeBytes: doc.SizeBytes,
		MimeType:  doc.MimeType,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
