// Package types holds the wire shapes shared by every JSON response.
package types

// SuccessEnvelope wraps a 2xx payload.
type SuccessEnvelope struct {
	Data          any            `json:"data"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// ErrorEnvelope wraps every 4xx and 5xx payload.
type ErrorEnvelope struct {
	Error         APIError       `json:"error"`
	Notifications []Notification `json:"notifications,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Notification is a toast raised while serving a request. Variant is
// "default" or "destructive".
type Notification struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"`
}
