package model

// AuditEvent is one append-only record of a security-relevant action.
// LogID and Hash carry the same digest over the remaining fields, so any
// stored event can be re-verified without trusting the store.
//
// Timestamp is kept as the exact formatted string that went into the
// digest; re-parsing and re-formatting it could change the bytes and break
// verification.
type AuditEvent struct {
	LogID     string `gorm:"type:varchar(64);primaryKey;column:log_id" json:"log_id"`
	CaseID    string `gorm:"type:varchar(64);index;column:case_id" json:"case_id"`
	Timestamp string `gorm:"type:varchar(64);index;column:timestamp" json:"timestamp"`
	ActorID   string `gorm:"type:varchar(128);column:actor_id" json:"actor_id"`
	Action    string `gorm:"type:varchar(64);column:action" json:"action"`
	Resource  string `gorm:"type:varchar(255);column:resource" json:"resource"`
	Details   string `gorm:"type:text;column:details" json:"details"`
	Hash      string `gorm:"type:varchar(64);column:hash" json:"hash"`
}

// TableName maps the model to its table.
func (AuditEvent) TableName() string {
	return "audit_events"
}

// Audit actions recorded by the pipelines.
const (
	ActionIngestStart    = "INGEST_START"
	ActionIngestComplete = "INGEST_COMPLETE"
	ActionSearchQuery    = "SEARCH_QUERY"
)
