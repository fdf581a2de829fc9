package domain

// AuditRecord describes the outcome of one analyze request. It never carries
// chat text or model output.
type AuditRecord struct {
	RequestID  string
	Outcome    string
	Provider   string
	Model      string
	ChatChars  int
	DurationMs int64
	CreatedAt  string
	TTL        int64
}
