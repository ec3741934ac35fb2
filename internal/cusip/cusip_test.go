package cusip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid_KnownCUSIPs(t *testing.T) {
	// Treasury bills and a well-known equity issue.
	valid := []string{
		"912797MS3",
		"912797RB5",
		"037833100",
	}
	for _, c := range valid {
		assert.True(t, Valid(c), "expected %s to validate", c)
	}
}

func TestValid_RejectsBadChecksum(t *testing.T) {
	// Every other check digit for a known-good CUSIP must fail.
	for digit := byte('0'); digit <= '9'; digit++ {
		candidate := "912797MS" + string(digit)
		if candidate == "912797MS3" {
			continue
		}
		assert.False(t, Valid(candidate), "expected %s to fail checksum", candidate)
	}
}

func TestValid_RejectsMalformedTokens(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"too short", "91279MS3"},
		{"too long", "912797MS34"},
		{"empty", ""},
		{"lowercase letters", "912797ms3"},
		{"letter I", "912797IS3"},
		{"letter O", "912797OS3"},
		{"letter in check position", "912797MSX"},
		{"non alphanumeric", "912797M-3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, Valid(tc.token))
		})
	}
}

func TestScan_FindsValidCUSIPsInTableText(t *testing.T) {
	text := "| Security | CUSIP |\n" +
		"| 42-Day Bill | 912797MS3 |\n" +
		"| 119-Day Bill | 912797RB5 |\n" +
		"| Bogus | 912797MS9 |\n"

	found := Scan(text)
	require.Equal(t, []string{"912797MS3", "912797RB5"}, found)
}

func TestScan_DeduplicatesPreservingFirstAppearance(t *testing.T) {
	text := "912797RB5 then 912797MS3 then 912797RB5 again"
	found := Scan(text)
	require.Equal(t, []string{"912797RB5", "912797MS3"}, found)
}

func TestScan_IgnoresLongerAlphanumericRuns(t *testing.T) {
	// A valid CUSIP embedded in a longer run is not a standalone token.
	found := Scan("X912797MS3 912797MS3Y A912797MS3B")
	assert.Empty(t, found)
}

func TestAppears(t *testing.T) {
	assert.True(t, Appears("holdings include 037833100 common stock"))
	assert.False(t, Appears("no identifiers here, just 123456789x text"))
	assert.False(t, Appears(""))
}
