package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaEstimators_OnePerModel(t *testing.T) {
	estimators := NewOllamaEstimators("http://localhost:11434/", []string{"llama3", "qwen2", "mistral"})
	require.Len(t, estimators, 3)
	assert.Equal(t, "llama3", estimators[0].Name())
	assert.Equal(t, "qwen2", estimators[1].Name())
}

func TestOllamaEstimator_DecodesNullAndNumericFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)
		assert.Zero(t, req.Options.Temperature)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := ollamaChatResponse{Message: ollamaMessage{
			Role:    "assistant",
			Content: `{"cash_bank_deposits": 1000000, "us_treasury_bills": 0, "gov_mmf": null, "total_amount": 1500000}`,
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	estimators := NewOllamaEstimators(server.URL, []string{"llama3"})
	estimate, err := estimators[0].Estimate(context.Background(), "prompt")
	require.NoError(t, err)

	require.NotNil(t, estimate.CashBankDeposits)
	assert.Equal(t, 1_000_000.0, *estimate.CashBankDeposits)
	// An explicit zero survives as a vote, a null stays nil.
	require.NotNil(t, estimate.USTreasuryBills)
	assert.Zero(t, *estimate.USTreasuryBills)
	assert.Nil(t, estimate.GovMMF)
	require.NotNil(t, estimate.Total)
	assert.Equal(t, 1_500_000.0, *estimate.Total)
}

func TestOllamaEstimator_EmptyContentIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(ollamaChatResponse{}))
	}))
	defer server.Close()

	estimators := NewOllamaEstimators(server.URL, []string{"llama3"})
	_, err := estimators[0].Estimate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrEmptyEstimate)
}

func TestOllamaEstimator_NonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	estimators := NewOllamaEstimators(server.URL, []string{"missing-model"})
	_, err := estimators[0].Estimate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
