package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the caller-visible error shape.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed API payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Page wraps list payloads with the total row count, matching the
// data/count shape the frontend consumes.
type Page struct {
	Data  any   `json:"data"`
	Count int64 `json:"count"`
}
