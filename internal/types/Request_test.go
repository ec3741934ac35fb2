package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalRequest_Validate(t *testing.T) {
	supported := []string{"USDT", "USDC"}
	valid := EvalRequest{
		StablecoinTicker: "USDT",
		Provenance: Provenance{
			ReportIssuer: "Tether Limited",
			ReportPDFURL: "https://tether.to/reports/latest.pdf",
		},
		ProtocolVersion: "v1.0.0",
	}
	require.NoError(t, valid.Validate(supported))

	tests := []struct {
		name   string
		mutate func(*EvalRequest)
	}{
		{"lowercase ticker", func(r *EvalRequest) { r.StablecoinTicker = "usdt" }},
		{"ticker too short", func(r *EvalRequest) { r.StablecoinTicker = "US" }},
		{"ticker too long", func(r *EvalRequest) { r.StablecoinTicker = "USDTXX" }},
		{"unsupported coin", func(r *EvalRequest) { r.StablecoinTicker = "DAI" }},
		{"empty issuer", func(r *EvalRequest) { r.Provenance.ReportIssuer = "" }},
		{"issuer with control chars", func(r *EvalRequest) { r.Provenance.ReportIssuer = "bad\nissuer" }},
		{"non-http url", func(r *EvalRequest) { r.Provenance.ReportPDFURL = "ftp://tether.to/report.pdf" }},
		{"url with spaces", func(r *EvalRequest) { r.Provenance.ReportPDFURL = "https://tether.to/a b.pdf" }},
		{"bad protocol version", func(r *EvalRequest) { r.ProtocolVersion = "1.0.0" }},
		{"partial protocol version", func(r *EvalRequest) { r.ProtocolVersion = "v1.0" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			require.ErrorIs(t, req.Validate(supported), ErrInvalidRequest)
		})
	}
}
