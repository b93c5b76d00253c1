package models

type InvocationStatus string

const (
	InvocationOK          InvocationStatus = "ok"
	InvocationFailed      InvocationStatus = "failed"
	InvocationParseFailed InvocationStatus = "parse_failed"
	InvocationRejected    InvocationStatus = "rejected"
)

// ModelInvocation is one call to the generative model, kept for cost
// tracking and for debugging replies that could not be parsed.
type ModelInvocation struct {
	JsonModel
	OwnerID            *uint            `gorm:"index" json:"owner_id"`
	Kind               string           `gorm:"type:varchar(32);index" json:"kind"`
	Model              string           `json:"model"`
	Status             InvocationStatus `gorm:"type:varchar(16)" json:"status"`
	DurationMs         int64            `json:"duration_ms"`
	InputTokenCount    int32            `json:"input_token_count"`
	OutputTokenCount   int32            `json:"output_token_count"`
	ThoughtsTokenCount int32            `json:"thoughts_token_count"`
	TotalTokenCount    int32            `json:"total_token_count"`
	ErrorMessage       *string          `json:"error_message"`
	RawResponse        *string          `json:"raw_response"`
}
