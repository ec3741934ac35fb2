/*

This file contains the attestation document fetcher. Reports are downloaded
over HTTP, verified to be PDF content, stored under the document pool
directory, and content-hashed with SHA-256. The hash is the cache key for
the whole extraction pipeline.

*/

package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runfromrun/rfr/internal/logger"
)

var (
	ErrNotPDF         = errors.New("URL does not serve a PDF document")
	ErrDownloadFailed = errors.New("failed to download report document")
)

var fetchLogger = logger.GetForComponent("document_fetcher")

// Document is a fetched attestation report, content-addressed by Hash.
type Document struct {
	Ticker    string
	URL       string
	Path      string
	Hash      string
	SizeBytes int64
	FetchedAt time.Time
}

// DocumentFetcher downloads report PDFs into a local document pool.
type DocumentFetcher struct {
	client *http.Client
	dir    string
}

func NewDocumentFetcher(documentDir string, timeout time.Duration) (*DocumentFetcher, error) {
	if documentDir == "" {
		return nil, errors.New("document directory cannot be empty")
	}
	if err := os.MkdirAll(documentDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &DocumentFetcher{
		client: &http.Client{Timeout: timeout},
		dir:    documentDir,
	}, nil
}

// Fetch downloads the report at url, validates its Content-Type and returns
// the stored document with its SHA-256 content hash. Issuers commonly serve
// PDFs as application/octet-stream, so both types are accepted.
func (f *DocumentFetcher) Fetch(ctx context.Context, ticker, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to build report request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, errors.Join(ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("%w: HTTP status %d from %s", ErrDownloadFailed, resp.StatusCode, url)
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0]))
	if contentType != "application/pdf" && contentType != "application/octet-stream" {
		return Document{}, fmt.Errorf("%w: Content-Type %q", ErrNotPDF, contentType)
	}

	fetchedAt := time.Now().UTC()
	fileName := strings.ToUpper(ticker) + "-" + fetchedAt.Format("2006-01-02") + ".pdf"
	path := filepath.Join(f.dir, fileName)

	out, err := os.Create(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), resp.Body)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return Document{}, errors.Join(ErrDownloadFailed, err)
	}

	doc := Document{
		Ticker:    strings.ToUpper(ticker),
		URL:       url,
		Path:      path,
		Hash:      hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes: size,
		FetchedAt: fetchedAt,
	}

	fetchLogger.Info().
		Str("ticker", doc.Ticker).
		Str("hash", doc.Hash).
		Int64("sizeBytes", doc.SizeBytes).
		Str("path", doc.Path).
		Msg("Downloaded and hashed report document")

	return doc, nil
}
