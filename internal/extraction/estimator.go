/*

This file contains the reserve estimator contract and its default
implementation against an Ollama-compatible chat endpoint. Each configured
model produces one independent CandidateEstimate from the same prompt;
the reconciler votes across them.

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
	"strconv"
	"strings"

	"github.com/runfromrun/rfr/internal/types"
)

var ErrEmptyEstimate = errors.New("estimator returned an empty response")

// ReserveEstimator produces one raw reserve-breakdown guess from a prompt
// built out of the report's rendered tables.
type ReserveEstimator interface {
	// Name identifies the estimator in logs and metrics.
	Name() string
	Estimate(ctx context.Context, prompt string) (types.CandidateEstimate, error)
}

// OllamaEstimator calls a single model on an Ollama-compatible server.
// Temperature is pinned to zero; estimate variance should come from model
// diversity, not sampling.
type OllamaEstimator struct {
	client  *http.Client
	baseURL string
	model   string
}

// NewOllamaEstimators builds one estimator per configured model, all sharing
// a client. Per-call deadlines come from the caller's context, so the shared
// client carries no timeout of its own.
func NewOllamaEstimators(baseURL string, models []string) []ReserveEstimator {
	client := &http.Client{}
	base := strings.TrimRight(baseURL, "/")
	estimators := make([]ReserveEstimator, 0, len(models))
	for _, model := range models {
		estimators = append(estimators, &OllamaEstimator{
			client:  client,
			baseURL: base,
			model:   model,
		})
	}
	return estimators
}

func (e *OllamaEstimator) Name() string {
	return e.model
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Format   string          `json:"format"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

func (e *OllamaEstimator) Estimate(ctx context.Context, prompt string) (types.CandidateEstimate, error) {
	payload := ollamaChatRequest{
		Model:  e.model,
		Format: "json",
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Options: ollamaOptions{Temperature: 0.0},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return types.CandidateEstimate{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return types.CandidateEstimate{}, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return types.CandidateEstimate{}, fmt.Errorf("model call to %s failed: %w", e.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.CandidateEstimate{}, fmt.Errorf("model %s returned HTTP %d: %s", e.model, resp.StatusCode, string(snippet))
	}

	var chat ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return types.CandidateEstimate{}, fmt.Errorf("failed to decode chat response from %s: %w", e.model, err)
	}

	content := strings.TrimSpace(chat.Message.Content)
	if content == "" {
		return types.CandidateEstimate{}, fmt.Errorf("%w: model %s", ErrEmptyEstimate, e.model)
	}

	var estimate types.CandidateEstimate
	if err := json.Unmarshal([]byte(content), &estimate); err != nil {
		return types.CandidateEstimate{}, fmt.Errorf("model %s produced invalid JSON: %w", e.model, err)
	}
	return estimate, nil
}

// BuildReportPrompt injects the rendered tables into the user prompt
// template.
func BuildReportPrompt(markdownTables []string) string {
	joined := strings.Join(markdownTables, "\n\n")
	prompt := strings.ReplaceAll(userPromptTemplate, "__tables__", joined)
	return strings.ReplaceAll(prompt, "__tablenum__", strconv.Itoa(len(markdownTables)))
}
