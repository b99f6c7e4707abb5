package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httpclient"
)

// Doer posts a JSON body. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	PostJSON(ctx context.Context, url string, body any, header http.Header) (*http.Response, error)
}

// HTTPSender hands mail to an HTTP relay that accepts
// {"to","from","subject","text"}.
type HTTPSender struct {
	client   Doer
	endpoint string
	apiKey   string
}

// NewHTTPSender creates a relay sender. apiKey is sent as a bearer token when
// set.
func NewHTTPSender(client Doer, endpoint, apiKey string) *HTTPSender {
	return &HTTPSender{client: client, endpoint: endpoint, apiKey: apiKey}
}

// Name returns the name of this sender.
func (s *HTTPSender) Name() string { return "http" }

// Send posts email to the relay. Any non-2xx answer is an error.
func (s *HTTPSender) Send(ctx context.Context, email *Email) error {
	header := http.Header{}
	if s.apiKey != "" {
		header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.PostJSON(ctx, s.endpoint, email, header)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send email: %w", httpclient.ParseResponseError(resp, "mail relay"))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}
