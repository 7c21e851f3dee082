package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
)

const maxDocumentBytes = 1 << 20

// ErrDocumentTooLarge rejects registry responses over the document size limit
// rather than decoding a truncated prefix.
var ErrDocumentTooLarge = errors.New("policy document too large")

// HTTPSource reads policy documents from a remote policy registry.
//
//	GET <base>/policies          -> {"codes": ["CA", "TN"]}
//	GET <base>/policies/<CODE>   -> YAML document, 404 when unknown
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource constructs a registry client rooted at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the document for code.
func (s *HTTPSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	code = NormalizeCode(code)
	if !validCode(code) {
		return nil, fmt.Errorf("%w: invalid code %q", ErrPolicyNotFound, code)
	}
	body, err := s.get(ctx, s.resolvePath("policies", code))
	if err != nil {
		return nil, fmt.Errorf("policy registry %s: %w", code, err)
	}
	return body, nil
}

// Codes lists the registry's jurisdiction codes, sorted.
func (s *HTTPSource) Codes(ctx context.Context) ([]string, error) {
	body, err := s.get(ctx, s.resolvePath("policies"))
	if err != nil {
		return nil, fmt.Errorf("policy registry index: %w", err)
	}
	var index struct {
		Codes []string `json:"codes"`
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("decode policy registry index: %w", err)
	}
	codes := make([]string, 0, len(index.Codes))
	for _, c := range index.Codes {
		if c = NormalizeCode(c); validCode(c) {
			codes = append(codes, c)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *HTTPSource) resolvePath(parts ...string) string {
	if s.baseURL == "" {
		return ""
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + "/" + strings.Join(parts, "/")
	}
	u.Path = path.Join(append([]string{"/", u.Path}, parts...)...)
	return u.String()
}

func (s *HTTPSource) get(ctx context.Context, endpoint string) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("registry URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPolicyNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry returned %s", resp.Status)
	}
	if resp.ContentLength > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, resp.ContentLength)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, maxDocumentBytes)
	}
	return body, nil
}
