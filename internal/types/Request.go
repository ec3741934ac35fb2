/*

Request and response contracts for the evaluation endpoint, with the input
validation that must reject a request before any expensive work begins.

*/

package types

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var ErrInvalidRequest = errors.New("invalid evaluation request")

var (
	tickerPattern   = regexp.MustCompile(`^[A-Z]{3,5}$`)
	issuerPattern   = regexp.MustCompile(`^[\w -]{3,50}$`)
	urlPattern      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	protocolPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)
)

// Provenance identifies where the reserve attestation came from.
type Provenance struct {
	ReportIssuer string `json:"report_issuer"`
	ReportPDFURL string `json:"report_pdf_url"`
}

// EvalRequest is one evaluation request for a supported stablecoin.
type EvalRequest struct {
	StablecoinTicker string     `json:"stablecoin_ticker"`
	Provenance       Provenance `json:"provenance"`
	ProtocolVersion  string     `json:"protocol_version"`
}

// Validate checks the request shape and that the ticker is in the supported
// set. It runs before any network or extraction work and its errors are
// surfaced verbatim to the caller.
func (r *EvalRequest) Validate(supportedCoins []string) error {
	if !tickerPattern.MatchString(r.StablecoinTicker) {
		return fmt.Errorf("%w: ticker %q must be 3-5 uppercase letters", ErrInvalidRequest, r.StablecoinTicker)
	}
	supported := false
	for _, coin := range supportedCoins {
		if coin == r.StablecoinTicker {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: unsupported stablecoin %q, supported: %v", ErrInvalidRequest, r.StablecoinTicker, supportedCoins)
	}
	if !issuerPattern.MatchString(r.Provenance.ReportIssuer) {
		return fmt.Errorf("%w: report issuer %q must be 3-50 word characters, spaces or dashes", ErrInvalidRequest, r.Provenance.ReportIssuer)
	}
	if !urlPattern.MatchString(r.Provenance.ReportPDFURL) {
		return fmt.Errorf("%w: report URL %q is not a valid http(s) URL", ErrInvalidRequest, r.Provenance.ReportPDFURL)
	}
	if !protocolPattern.MatchString(r.ProtocolVersion) {
		return fmt.Errorf("%w: protocol version %q must match vMAJOR.MINOR.PATCH", ErrInvalidRequest, r.ProtocolVersion)
	}
	return nil
}

// EvalResponse is the terminal response of one evaluation. On failure,
// ErrStatus carries the error and RiskResult is nil; the request context is
// echoed back either way.
type EvalResponse struct {
	ID               string      `json:"id"`
	ErrStatus        string      `json:"err_status,omitempty"`
	EvaluationTime   time.Time   `json:"evaluation_time"`
	StablecoinTicker string      `json:"stablecoin_ticker"`
	Provenance       Provenance  `json:"provenance"`
	RiskResult       *RiskResult `json:"risk_result,omitempty"`
	ProtocolVersion  string      `json:"protocol_version"`
}
