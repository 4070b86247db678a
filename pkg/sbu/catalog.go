// Package sbu holds the line item catalogue of each strategic business
// unit and the aggregation that turns check findings into an annual
// revenue requirement.
package sbu

import (
	"fmt"
	"sync"

	"github.com/trueup/trueup/pkg/types"
)

// LineItemDef describes one row of an SBU's revenue requirement: how
// its approved amount is produced and which checks scrutinize it.
type LineItemDef struct {
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	Pattern types.Pattern `json:"pattern"`
	// Expense is false for income rows, which reduce the requirement.
	Expense bool `json:"expense"`
	// Checks lists the check IDs attached to the row, primary first.
	Checks []string `json:"checks,omitempty"`
}

// Catalogue maps SBU names to their ordered line item definitions.
type Catalogue struct {
	mu   sync.Mutex
	sbus map[string][]LineItemDef
}

// NewCatalogue returns an empty Catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{sbus: make(map[string][]LineItemDef)}
}

// Configured returns the Catalogue with the distribution SBU
// registered in its published table order.
func Configured() *Catalogue {
	c := NewCatalogue()
	c.SetLineItems("SBU-D", []LineItemDef{
		{Key: types.ItemSBUGTransfer, Name: "Transfer cost of SBU-G", Pattern: types.PatternNone, Expense: true},
		{Key: types.ItemPowerPurchase, Name: "Power Purchase Cost", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"PP-COST-01"}},
		{Key: types.ItemSBUTTransfer, Name: "Transfer cost of SBU-T", Pattern: types.PatternNone, Expense: true},
		// IFC-OTH-02 (GBI loan and bank charges) sits in the generation
		// SBU's interest table and has no distribution row here.
		{Key: types.ItemIFC, Name: "Interest & Financing Charges", Pattern: types.PatternMulti, Expense: true,
			Checks: []string{"IFC-LTL-01", "IFC-SD-01", "IFC-GPF-01", "IFC-OTH-D-01", "MT-BOND-01", "IFC-CC-01", "IFC-WC-01"}},
		{Key: types.ItemMTAdditional, Name: "Additional Contribution to Master Trust", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"MT-ADD-01"}},
		{Key: types.ItemDepreciation, Name: "Depreciation", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"DEP-GEN-01"}},
		{Key: types.ItemOMExpenses, Name: "O&M Expenses", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"OM-DIST-NORM-01", "OM-INFL-01"}},
		{Key: types.ItemPayRevision, Name: "Pay Revision Arrears", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"EMP-PAYREV-01"}},
		{Key: types.ItemROE, Name: "Return on Equity", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"ROE-01"}},
		{Key: types.ItemOtherExpenses, Name: "Other Expenses", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"OTHER-EXP-01"}},
		{Key: types.ItemExceptional, Name: "Exceptional Items", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"EXC-01"}},
		{Key: types.ItemTDLossSharing, Name: "T&D Loss Gain Sharing", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"TD-SHARE-01", "DIST-LOSS-01"}},
		{Key: types.ItemIntangibles, Name: "Amortization of Intangible Assets", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"INTANG-01"}},
		{Key: types.ItemBondRepayment, Name: "Repayment of Master Trust Bonds", Pattern: types.PatternSingle, Expense: true,
			Checks: []string{"MT-REPAY-01"}},
		{Key: types.ItemNTI, Name: "Non-Tariff Income", Pattern: types.PatternSingle, Expense: false,
			Checks: []string{"NTI-01"}},
	})
	return c
}

// LineItems returns the ordered line item definitions of the SBU.
func (c *Catalogue) LineItems(sbu string) ([]LineItemDef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defs, ok := c.sbus[sbu]
	if !ok {
		return nil, fmt.Errorf("unknown SBU: %s", sbu)
	}
	return defs, nil
}

// SetLineItems registers the line items for an SBU. It is also used
// by tests to install fixtures.
func (c *Catalogue) SetLineItems(sbu string, defs []LineItemDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sbus[sbu] = defs
}

// SBUs returns the registered SBU names.
func (c *Catalogue) SBUs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sbus))
	for s := range c.sbus {
		out = append(out, s)
	}
	return out
}
