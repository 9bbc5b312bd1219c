package relay

const (
	MsgRequestJob  = "REQUEST_JOB"
	MsgJobStarted  = "JOB_STARTED"
	MsgJobComplete = "JOB_COMPLETE"
	MsgNewJob      = "NEW_JOB"
)

// Message is the JSON frame exchanged with the scraping worker.
type Message struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
	JobID string `json:"jobId,omitempty"`
}
