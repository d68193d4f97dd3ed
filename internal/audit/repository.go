package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/docvault/docvault/pkg/pagination"
	"github.com/docvault/docvault/pkg/query"
	"github.com/docvault/docvault/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the audit log backed by the database.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) error {
	q := `INSERT INTO audit_entries(id, actor_id, document_id, action, details, ip, user_agent)
		VALUES($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, q,
		uuid.New(), cmd.ActorID, cmd.DocumentID, cmd.Action, cmd.Details, cmd.IP, cmd.UserAgent,
	)
	if err != nil {
		r.logger.Error("audit record failed", "action", cmd.Action, "actor", cmd.ActorID, "error", err)
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ActorId", actorID)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}
