package responses

// Outcome classifies how an operation ended.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeConflict         Outcome = "conflict"
	OutcomeTransportError   Outcome = "transport_error"
	OutcomeInvalidInput     Outcome = "invalid_input"
	OutcomeUnknownOperation Outcome = "unknown_operation"
	OutcomeNotImplemented   Outcome = "not_implemented"
)

type (
	// Result is what every managed operation returns, failures included.
	Result struct {
		// Text is the human readable summary
		Text     string   `json:"result"`
		Outcome  Outcome  `json:"outcome"`
		Metadata Metadata `json:"metadata"`
	}
	Metadata struct {
		ToolName  string         `json:"tool_name"`
		Operation string         `json:"operation"`
		Arguments map[string]any `json:"arguments,omitempty"`
		Success   bool           `json:"success"`
		Error     string         `json:"error,omitempty"`
	}
)

// NewResult - a result with the given outcome
func NewResult(outcome Outcome, text string) *Result {
	return &Result{
		Text:    text,
		Outcome: outcome,
		Metadata: Metadata{
			Success: outcome == OutcomeSuccess,
		},
	}
}

// Succeeded is true for OutcomeSuccess only
func (r *Result) Succeeded() bool {
	return r != nil && r.Outcome == OutcomeSuccess
}

// WithMetadata fills in the tool metadata and returns r
func (r *Result) WithMetadata(tool, operation string, args map[string]any) *Result {
	r.Metadata.ToolName = tool
	r.Metadata.Operation = operation
	r.Metadata.Arguments = args
	r.Metadata.Success = r.Succeeded()
	if !r.Metadata.Success {
		r.Metadata.Error = string(r.Outcome)
	}
	return r
}
