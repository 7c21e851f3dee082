package policy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newRegistry(t *testing.T) (*HTTPSource, *int) {
	t.Helper()
	tn, err := Builtin().Fetch(context.Background(), "TN")
	if err != nil {
		t.Fatalf("read builtin TN: %v", err)
	}
	hits := 0
	src := NewHTTPSource("https://registry.example.com/v2/", time.Second)
	src.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		switch req.URL.Path {
		case "/v2/policies":
			return respond(http.StatusOK, []byte(`{"codes":["tn","../etc","CA"]}`)), nil
		case "/v2/policies/TN":
			return respond(http.StatusOK, tn), nil
		case "/v2/policies/CA":
			return respond(http.StatusBadGateway, nil), nil
		default:
			return respond(http.StatusNotFound, nil), nil
		}
	})}
	return src, &hits
}

func TestHTTPSourceFetch(t *testing.T) {
	src, hits := newRegistry(t)
	ctx := context.Background()

	data, err := src.Fetch(ctx, " tn ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pol, err := Decode("TN", data)
	if err != nil {
		t.Fatalf("decode registry document: %v", err)
	}
	if !pol.Supports(models.DomainCriminalRelief) {
		t.Fatalf("expected criminal relief table in registry document")
	}

	if _, err := src.Fetch(ctx, "ZZ"); !errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound for unknown code, got %v", err)
	}
	if _, err := src.Fetch(ctx, "CA"); err == nil || errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("expected upstream failure to surface, got %v", err)
	}

	before := *hits
	if _, err := src.Fetch(ctx, "../TN"); !errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("expected invalid code rejection, got %v", err)
	}
	if *hits != before {
		t.Fatalf("invalid code reached the registry")
	}
}

func TestHTTPSourceCodes(t *testing.T) {
	src, _ := newRegistry(t)
	codes, err := src.Codes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 2 || codes[0] != "CA" || codes[1] != "TN" {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestHTTPSourceUnconfigured(t *testing.T) {
	src := NewHTTPSource("", 0)
	if _, err := src.Fetch(context.Background(), "TN"); err == nil {
		t.Fatalf("expected error without base URL")
	}
}

func TestHTTPSourceRejectsOversizedDocument(t *testing.T) {
	tn, err := Builtin().Fetch(context.Background(), "TN")
	if err != nil {
		t.Fatalf("read builtin TN: %v", err)
	}
	// Comment padding keeps the prefix valid YAML, so a truncated read would still decode.
	oversized := append(append([]byte{}, tn...), []byte("\n#"+strings.Repeat("x", maxDocumentBytes))...)

	for _, contentLength := range []int64{-1, int64(len(oversized))} {
		src := NewHTTPSource("https://registry.example.com", time.Second)
		src.httpClient = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			resp := respond(http.StatusOK, oversized)
			resp.ContentLength = contentLength
			return resp, nil
		})}

		data, err := src.Fetch(context.Background(), "TN")
		if !errors.Is(err, ErrDocumentTooLarge) {
			t.Fatalf("content length %d: expected ErrDocumentTooLarge, got %v (%d bytes)", contentLength, err, len(data))
		}
	}
}

func TestHTTPSourceAcceptsDocumentAtLimit(t *testing.T) {
	doc := []byte("code: TN\n")
	doc = append(doc, []byte("#"+strings.Repeat("x", maxDocumentBytes-len(doc)-1))...)
	src := NewHTTPSource("https://registry.example.com", time.Second)
	src.httpClient = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, doc), nil
	})}

	data, err := src.Fetch(context.Background(), "TN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != maxDocumentBytes {
		t.Fatalf("expected %d bytes, got %d", maxDocumentBytes, len(data))
	}
}
