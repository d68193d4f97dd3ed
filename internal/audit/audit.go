// Package audit provides the append-only record of sensitive actions.
// Entries are written by the document, version, share, trash, and transform
// systems and are never mutated or deleted in normal operation.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/docvault/docvault/pkg/pagination"
	"github.com/google/uuid"
)

// Action enumerates auditable action kinds.
type Action string

// Auditable actions.
const (
	ActionUpload         Action = "document.upload"
	ActionRename         Action = "document.rename"
	ActionSetFlags       Action = "document.flags"
	ActionDownload       Action = "document.download"
	ActionVersionAdd     Action = "version.add"
	ActionVersionRestore Action = "version.restore"
	ActionShareCreate    Action = "share.create"
	ActionShareRevoke    Action = "share.revoke"
	ActionShareAccess    Action = "share.access"
	ActionShareEmail     Action = "share.email"
	ActionTrash          Action = "trash.move"
	ActionTrashRestore   Action = "trash.restore"
	ActionPurge          Action = "trash.purge"
	ActionTransform      Action = "transform"
)

// Entry is one append-only audit record.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	ActorID    string     `json:"actor_id"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Action     Action     `json:"action"`
	Details    string     `json:"details"`
	IP         string     `json:"ip"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RecordCommand contains the data required to append an audit entry.
type RecordCommand struct {
	ActorID    string
	DocumentID *uuid.UUID
	Action     Action
	Details    string
	IP         string
	UserAgent  string
}

// System defines the audit log operations.
type System interface {
	// Record appends one entry. Failures are reported but callers treat the
	// audited operation as authoritative; a lost entry never rolls it back.
	Record(ctx context.Context, cmd RecordCommand) error

	// List returns entries for one actor, newest first.
	List(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.PageResult[Entry], error)
}

// RequestMeta extracts client address and user agent from a request for
// audit recording. The first X-Forwarded-For hop wins when present.
func RequestMeta(r *http.Request) (ip, userAgent string) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	} else {
		ip = r.RemoteAddr
	}

	return ip, r.UserAgent()
}
