package dto

// SettlementError records one session whose charge could not be captured in
// this run, with the gateway's reason.
type SettlementError struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// SettlementResult is the aggregate outcome of one charge settlement sweep.
// Retried counts transient failures that stay eligible for the next run;
// Declined counts permanent rejections that need operator attention.
type SettlementResult struct {
	Scanned  int               `json:"scanned"`
	Captured int               `json:"captured"`
	Declined int               `json:"declined"`
	Retried  int               `json:"retried"`
	Errors   []SettlementError `json:"errors,omitempty"`
}
