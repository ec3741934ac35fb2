/*

This is the canonical reserve table type built once per attestation document
by the reconciler, plus the per-category Asset entries it is made of.

*/

package types

import (
	"fmt"
	"strings"
	"time"
)

// Asset is one reserve line of an AssetTable. Tier 0 is reserved for the
// grand total and tier 5 for the synthetic correction entry; tiers 1-4 rank
// category quality. Tier and QLSScore are fixed per category, Amount and
// Ratio are computed during reconciliation.
type Asset struct {
	Tier     int     `json:"tier"`
	QLSScore float64 `json:"qls_score"` // quality/liquidity score in [0,1]
	Amount   float64 `json:"amount"`    // US dollar amount
	Ratio    float64 `json:"ratio"`     // share of the reserve total in [0,100]
}

// AssetTable is the fixed 13-category reserve breakdown of one attestation
// document. The closed struct keeps the category set enumerable; iteration
// order is defined by Categories().
type AssetTable struct {
	// Tier 1 assets
	CashBankDeposits Asset `json:"cash_bank_deposits"`
	USTreasuryBills  Asset `json:"us_treasury_bills"`
	GovMMF           Asset `json:"gov_mmf"`
	OtherDeposits    Asset `json:"other_deposits"`
	// Tier 2 assets
	RepoOvernightTerm         Asset `json:"repo_overnight_term"`
	NonUSTreasuryBills        Asset `json:"non_us_treasury_bills"`
	USTreasuryOtherNotesBonds Asset `json:"us_treasury_other_notes_bonds"`
	// Tier 3 assets
	CorporateBonds Asset `json:"corporate_bonds"`
	PreciousMetals Asset `json:"precious_metals"`
	DigitalAssets  Asset `json:"digital_assets"`
	// Tier 4 assets
	SecuredLoans               Asset `json:"secured_loans"`
	OtherInvestments           Asset `json:"other_investments"`
	CustodialConcentratedAsset Asset `json:"custodial_concentrated_asset"`

	// CorrectionValue absorbs the part of the reconciled total that could not
	// be attributed to a known category. Its ratio is an inverse confidence
	// signal: a large correction share means a low-confidence extraction.
	CorrectionValue Asset `json:"correction_value"`
	Total           Asset `json:"total"`

	// CusipAppearance records whether a valid CUSIP was found in the source
	// document; FRRS uses it as a transparency signal.
	CusipAppearance bool `json:"cusip_appearance"`
	// SourceHash is the content hash (sha256) of the originating document.
	// Same hash, same report.
	SourceHash string `json:"source_hash"`
	// AnalyzedAt is when the document was reconciled; TRS decays the reserve
	// score weight by the age of this timestamp.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// CategoryNames lists the 13 reserve categories in canonical order. The
// reconciler, the calculators, and CandidateEstimate.Amounts all follow it.
var CategoryNames = []string{
	"cash_bank_deposits",
	"us_treasury_bills",
	"gov_mmf",
	"other_deposits",
	"repo_overnight_term",
	"non_us_treasury_bills",
	"us_treasury_other_notes_bonds",
	"corporate_bonds",
	"precious_metals",
	"digital_assets",
	"secured_loans",
	"other_investments",
	"custodial_concentrated_asset",
}

// NewAssetTable returns a table with every category seeded with its fixed
// tier and quality/liquidity score and zero amounts.
func NewAssetTable(cusipAppearance bool, sourceHash string, analyzedAt time.Time) AssetTable {
	return AssetTable{
		CashBankDeposits: Asset{Tier: 1, QLSScore: 1.0},
		USTreasuryBills:  Asset{Tier: 1, QLSScore: 1.0},
		GovMMF:           Asset{Tier: 1, QLSScore: 0.95},
		OtherDeposits:    Asset{Tier: 1, QLSScore: 0.95},

		RepoOvernightTerm:         Asset{Tier: 2, QLSScore: 0.9},
		NonUSTreasuryBills:        Asset{Tier: 2, QLSScore: 0.85},
		USTreasuryOtherNotesBonds: Asset{Tier: 2, QLSScore: 0.8},

		CorporateBonds: Asset{Tier: 3, QLSScore: 0.7},
		PreciousMetals: Asset{Tier: 3, QLSScore: 0.6},
		DigitalAssets:  Asset{Tier: 3, QLSScore: 0.4},

		SecuredLoans:               Asset{Tier: 4, QLSScore: 0.2},
		OtherInvestments:           Asset{Tier: 4, QLSScore: 0.1},
		CustodialConcentratedAsset: Asset{Tier: 4, QLSScore: 0.0},

		CorrectionValue: Asset{Tier: 5, QLSScore: 0.0},
		Total:           Asset{Tier: 0, QLSScore: 0.0},

		CusipAppearance: cusipAppearance,
		SourceHash:      sourceHash,
		AnalyzedAt:      analyzedAt,
	}
}

// Categories returns pointers to the 13 category entries in canonical order,
// aligned index-for-index with CategoryNames. Correction and total are not
// included.
func (t *AssetTable) Categories() []*Asset {
	return []*Asset{
		&t.CashBankDeposits,
		&t.USTreasuryBills,
		&t.GovMMF,
		&t.OtherDeposits,
		&t.RepoOvernightTerm,
		&t.NonUSTreasuryBills,
		&t.USTreasuryOtherNotesBonds,
		&t.CorporateBonds,
		&t.PreciousMetals,
		&t.DigitalAssets,
		&t.SecuredLoans,
		&t.OtherInvestments,
		&t.CustodialConcentratedAsset,
	}
}

// CategorySum returns the sum of the 13 category amounts, excluding the
// correction entry and the total.
func (t *AssetTable) CategorySum() float64 {
	var sum float64
	for _, a := range t.Categories() {
		sum += a.Amount
	}
	return sum
}

// String renders the table for logs and CLI output.
func (t *AssetTable) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-30s %4s %5s %20s %8s\n", "Asset", "Tier", "QLS", "Amount (USD)", "Ratio"))
	cats := t.Categories()
	for i, a := range cats {
		b.WriteString(fmt.Sprintf("%-30s %4d %5.2f %20.2f %7.2f%%\n",
			strings.ReplaceAll(CategoryNames[i], "_", " "), a.Tier, a.QLSScore, a.Amount, a.Ratio))
	}
	b.WriteString(fmt.Sprintf("%-30s %4d %5.2f %20.2f %7.2f%%\n",
		"correction value", t.CorrectionValue.Tier, t.CorrectionValue.QLSScore,
		t.CorrectionValue.Amount, t.CorrectionValue.Ratio))
	b.WriteString(fmt.Sprintf("%-30s %4s %5s %20.2f\n", "TOTAL", "", "", t.Total.Amount))
	return b.String()
}

// CandidateEstimate is one model's raw guess of the reserve breakdown. A nil
// field means the model could not judge that category; an explicit zero means
// the category is present with zero amount. The distinction drives the
// reconciler's vote counting and must be preserved through serialization.
type CandidateEstimate struct {
	CashBankDeposits *float64 `json:"cash_bank_deposits"`
	USTreasuryBills  *float64 `json:"us_treasury_bills"`
	GovMMF           *float64 `json:"gov_mmf"`
	OtherDeposits    *float64 `json:"other_deposits"`

	RepoOvernightTerm         *float64 `json:"repo_overnight_term"`
	NonUSTreasuryBills        *float64 `json:"non_us_treasury_bills"`
	USTreasuryOtherNotesBonds *float64 `json:"us_treasury_other_notes_bonds"`

	CorporateBonds *float64 `json:"corporate_bonds"`
	PreciousMetals *float64 `json:"precious_metals"`
	DigitalAssets  *float64 `json:"digital_assets"`

	SecuredLoans               *float64 `json:"secured_loans"`
	OtherInvestments           *float64 `json:"other_investments"`
	CustodialConcentratedAsset *float64 `json:"custodial_concentrated_asset"`

	Total *float64 `json:"total_amount"`
}

// Amounts returns the 13 category votes in canonical order, aligned with
// CategoryNames. The reported total is not included.
func (c *CandidateEstimate) Amounts() []*float64 {
	return []*float64{
		c.CashBankDeposits,
		c.USTreasuryBills,
		c.GovMMF,
		c.OtherDeposits,
		c.RepoOvernightTerm,
		c.NonUSTreasuryBills,
		c.USTreasuryOtherNotesBonds,
		c.CorporateBonds,
		c.PreciousMetals,
		c.DigitalAssets,
		c.SecuredLoans,
		c.OtherInvestments,
		c.CustodialConcentratedAsset,
	}
}
