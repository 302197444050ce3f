package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ActionResult is the body of the admin identity endpoints.
type ActionResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *UserHandle `json:"user,omitempty"`
}

type UserHandle struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
