// Package extract pulls plain text out of uploaded curriculum documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minReadableChars is the smallest extraction considered usable. Scanned PDFs
// with no text layer typically come out near-empty.
const minReadableChars = 100

// maxDocumentBytes caps the download size of a module document.
const maxDocumentBytes = 32 << 20 // 32 MiB

// ExtractionError reports an unreadable source document. It is fatal to a
// generation run and not retried.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor fetches a document by URL and extracts its plain text.
type Extractor struct {
	client *http.Client
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		e.client = client
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{client: http.DefaultClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text downloads the document at url and returns its concatenated plain text
// across all pages in page order. Page boundaries are discarded. Returns an
// *ExtractionError when the blob cannot be fetched, is not a parseable PDF,
// or yields too little readable text.
func (e *Extractor) Text(ctx context.Context, url string) (string, error) {
	data, err := e.fetch(ctx, url)
	if err != nil {
		return "", &ExtractionError{URL: url, Err: err}
	}

	text, err := pdfText(data)
	if err != nil {
		return "", &ExtractionError{URL: url, Err: err}
	}
	if len(strings.TrimSpace(text)) < minReadableChars {
		return "", &ExtractionError{URL: url, Err: fmt.Errorf("document contains no readable text (%d chars)", len(text))}
	}
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	return data, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
