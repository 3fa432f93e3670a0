package model

type AlertType string

const (
	AlertFatal       AlertType = "fatal"
	AlertHighAnomaly AlertType = "anomaly_high"
)

type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "CRITICAL"
	AlertSeverityHigh     AlertSeverity = "HIGH"
)

// Proposal is AI-generated remediation guidance attached to an alert
// after the fact. Shape matches the assist sidecar's playbook response.
type Proposal struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	TriageSteps []string `json:"triageSteps"`
}

// AlertPayload is the audit snapshot stored with every alert-worthy
// occurrence. Suppression is recorded here, not in a separate column.
// Threshold and Score are set for anomaly_high alerts only.
type AlertPayload struct {
	Kind       AlertType `json:"kind"`
	Event      Event     `json:"event"`
	Threshold  *float64  `json:"threshold,omitempty"`
	Score      *float64  `json:"score,omitempty"`
	Suppressed bool      `json:"suppressed"`
	Proposal   *Proposal `json:"proposal,omitempty"`
}
