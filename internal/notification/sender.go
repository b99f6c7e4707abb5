// Package notification renders and delivers account emails.
package notification

import "context"

// Email is a rendered plain-text message.
type Email struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"text"`
}

// Sender delivers emails through one transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, email *Email) error
}
