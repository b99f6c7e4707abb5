package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError describes a non-2xx answer from a downstream service.
type StatusError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Service, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Message)
}

// ClientError reports whether the downstream rejected the request itself.
func (e *StatusError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// ParseResponseError reads and closes resp.Body and turns it into a
// StatusError. Bodies shaped like {"error": {"code", "message"}} or
// {"message"} are unpacked; anything else is kept verbatim, truncated to 1 KiB.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return &StatusError{Service: service, Status: resp.StatusCode, Message: "unreadable body: " + err.Error()}
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		switch {
		case envelope.Error != nil:
			return &StatusError{Service: service, Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
		case envelope.Message != "":
			return &StatusError{Service: service, Status: resp.StatusCode, Message: envelope.Message}
		}
	}
	return &StatusError{Service: service, Status: resp.StatusCode, Message: string(body)}
}
