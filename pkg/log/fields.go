package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor, same keys as the gin context values set by pkg/middleware
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Domain
	FieldArticleID   = "article_id"
	FieldArticleSlug = "slug"
	FieldTargetID    = "target_id"
	FieldRelation    = "relation"
	FieldCount       = "count"

	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
