package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of every failed request. Retryable tells the front
// desk client a plain resubmit may succeed, as with a version conflict.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
