package models

import "time"

// Audit action types.
const (
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionSoftDelete = "soft_delete"
	AuditActionRestore    = "restore"
)

// AuditEntry is an append-only record of one administrative action,
// stored in the audit_logs collection. Entries are written best-effort:
// a failed audit write never fails the primary operation.
type AuditEntry struct {
	ID             string                 `bson:"_id,omitempty" json:"id"`
	Timestamp      time.Time              `bson:"timestamp" json:"timestamp"`
	AdminEmail     string                 `bson:"admin_email" json:"admin_email"`
	ActionType     string                 `bson:"action_type" json:"action_type"`
	TargetUserID   string                 `bson:"target_user_id" json:"target_user_id"`
	TargetUserName string                 `bson:"target_user_name" json:"target_user_name"`
	Details        map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress      string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}
