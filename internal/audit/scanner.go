package audit

import (
	"github.com/docvault/docvault/pkg/repository"
	"github.com/google/uuid"
)

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e     Entry
		docID uuid.NullUUID
	)

	err := s.Scan(
		&e.ID,
		&e.ActorID,
		&docID,
		&e.Action,
		&e.Details,
		&e.IP,
		&e.UserAgent,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	if docID.Valid {
		e.DocumentID = &docID.UUID
	}

	return e, err
}
