package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// HTTPTransport publishes to a flat HTTP blob container: PUT to write,
// HEAD to probe, GET to read back. The credential is an opaque bearer
// token attached to every request.
type HTTPTransport struct {
	Token  string
	Client *http.Client
}

// NewHTTP creates an HTTP feed transport with the given credential.
func NewHTTP(token string) *HTTPTransport {
	return &HTTPTransport{Token: token, Client: http.DefaultClient}
}

func (t *HTTPTransport) do(req *http.Request) (*http.Response, error) {
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func (t *HTTPTransport) Upload(ctx context.Context, localPath, remoteAddress string, overwrite bool) error {
	if !overwrite {
		exists, err := t.Exists(ctx, remoteAddress)
		if err != nil {
			return err
		}
		if exists {
			return ErrExists
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, remoteAddress, f)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	if !overwrite {
		// The probe above is racy; the precondition makes the write itself
		// refuse to clobber a concurrent upload.
		req.Header.Set("If-None-Match", "*")
	}

	resp, err := t.do(req)
	if err != nil {
		return fmt.Errorf("PUT %s: %w", remoteAddress, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return ErrExists
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("PUT %s: %d %s", remoteAddress, resp.StatusCode, truncateBody(body, 512))
	}
	return nil
}

func (t *HTTPTransport) Exists(ctx context.Context, remoteAddress string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, remoteAddress, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := t.do(req)
	if err != nil {
		return false, fmt.Errorf("HEAD %s: %w", remoteAddress, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("HEAD %s: %d", remoteAddress, resp.StatusCode)
	}
	return true, nil
}

func (t *HTTPTransport) Fetch(ctx context.Context, remoteAddress string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := t.do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", remoteAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET %s: %d %s", remoteAddress, resp.StatusCode, truncateBody(body, 512))
	}

	return io.ReadAll(resp.Body)
}

func truncateBody(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
