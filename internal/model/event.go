package model

import "time"

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
	SeverityFatal Severity = "FATAL"
)

// Event is one ingested log entry as produced by the ingestion path.
// The engine treats it as read-only.
type Event struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Severity     Severity  `json:"level"`
	Message      string    `json:"message"`
	Source       *string   `json:"source"`
	AnomalyScore *float64  `json:"anomalyScore"`
	Timestamp    time.Time `json:"timestamp"`
}

// Score returns the anomaly score, defaulting to 0 when absent.
func (e Event) Score() float64 {
	if e.AnomalyScore == nil {
		return 0
	}
	return *e.AnomalyScore
}
