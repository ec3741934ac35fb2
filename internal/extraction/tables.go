/*

This file contains the table extraction contract and the markdown rendering
used to inject extracted tables into estimator prompts. PDF parsing itself is
an external capability behind the TableExtractor interface; the default
implementation talks to a table extraction service over HTTP.

*/

package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrNoTables = errors.New("no tables extracted from document")

// Grid is one raw table pulled out of a PDF, row-major with untyped cells.
type Grid struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
}

// TableExtractor turns a PDF on disk into raw table grids.
type TableExtractor interface {
	ExtractTables(ctx context.Context, pdfPath string) ([]Grid, error)
}

// HTTPTableExtractor posts the PDF to a table extraction service and decodes
// the grids it returns.
type HTTPTableExtractor struct {
	client  *http.Client
	baseURL string
}

func NewHTTPTableExtractor(baseURL string, timeout time.Duration) *HTTPTableExtractor {
	return &HTTPTableExtractor{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (e *HTTPTableExtractor) ExtractTables(ctx context.Context, pdfPath string) ([]Grid, error) {
	raw, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document for extraction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("table extraction service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("table extraction service returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Tables []Grid `json:"tables"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if len(decoded.Tables) == 0 {
		return nil, ErrNoTables
	}
	return decoded.Tables, nil
}

// MarkdownizeTables renders each grid as a GitHub-style markdown table.
// Estimator models handle markdown tables more reliably than raw cell JSON.
func MarkdownizeTables(grids []Grid) []string {
	rendered := make([]string, 0, len(grids))
	for _, grid := range grids {
		if len(grid.Rows) == 0 {
			continue
		}
		rendered = append(rendered, markdownizeGrid(grid))
	}
	return rendered
}

func markdownizeGrid(grid Grid) string {
	width := 0
	for _, row := range grid.Rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var b strings.Builder
	for i, row := range grid.Rows {
		b.WriteString("|")
		for col := 0; col < width; col++ {
			cell := ""
			if col < len(row) {
				cell = strings.ReplaceAll(strings.TrimSpace(row[col]), "|", "\\|")
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|")
			for col := 0; col < width; col++ {
				b.WriteString("---|")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
