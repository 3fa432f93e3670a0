package storage

import "time"

type CooldownRecord struct {
	TenantID   string
	AlertType  string
	Source     *string
	LastSentAt time.Time
}

type AlertEventRecord struct {
	ID        string
	TenantID  string
	AlertType string
	Severity  string
	Source    *string
	EventID   string
	Payload   []byte
	CreatedAt time.Time
}
