package types

// SuccessEnvelope wraps every 2xx body. Data is null for an absent cart.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public part of a failure. Retryable tells the storefront
// whether repeating the same request may succeed.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
