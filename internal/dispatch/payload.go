package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	inlineDelimiter  = ";base64,"
	defaultMediaType = "application/octet-stream"
)

// Resolver materializes a job's document source into an in-memory payload.
type Resolver struct {
	client *http.Client
}

func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{client: client}
}

// ResolveInline decodes a `<mime>;base64,<data>` blob.
func (r *Resolver) ResolveInline(blob string) (*Payload, error) {
	mediaType, body, ok := splitInline(blob)
	if !ok {
		return nil, fmt.Errorf("%w: expected <mime>;base64,<data>", ErrInvalidEncoding)
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return &Payload{Data: data, MediaType: mediaType}, nil
}

// ResolveURL fetches the document with a single blocking GET. No retries
// and no redirect policy beyond the client's defaults.
func (r *Resolver) ResolveURL(ctx context.Context, url string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}

	mediaType := defaultMediaType
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	}

	return &Payload{Data: data, MediaType: mediaType}, nil
}

// DecodeRaw interprets the raw-socket payload field. An inline-encoded
// blob is decoded; anything else passes through as literal printer bytes.
func DecodeRaw(s string) *Payload {
	if mediaType, body, ok := splitInline(s); ok {
		if data, err := base64.StdEncoding.DecodeString(body); err == nil {
			return &Payload{Data: data, MediaType: mediaType}
		}
	}
	return &Payload{Data: []byte(s), MediaType: defaultMediaType}
}

func splitInline(blob string) (mediaType, body string, ok bool) {
	mediaType, body, found := strings.Cut(blob, inlineDelimiter)
	if !found || mediaType == "" || !strings.Contains(mediaType, "/") {
		return "", "", false
	}
	return mediaType, body, true
}
