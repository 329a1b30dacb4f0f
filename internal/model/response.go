package model

// Envelope is the body of every API response, success or failure.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewEnvelope(status int, data any, message string) Envelope {
	return Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	}
}

// ToggleResult reports the outcome of a toggle. Record is nil when the
// relation was removed.
type ToggleResult struct {
	Created bool `json:"created"`
	Record  any  `json:"record,omitempty"`
}
