package audit

import "github.com/docvault/docvault/pkg/query"

var projection = query.NewProjectionMap("public", "audit_entries", "a").
	Project("id", "Id").
	Project("actor_id", "ActorId").
	Project("document_id", "DocumentId").
	Project("action", "Action").
	Project("details", "Details").
	Project("ip", "Ip").
	Project("user_agent", "UserAgent").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}
