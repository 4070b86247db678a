package check

import (
	"fmt"
	"sync"
)

// Configured sets up the full check catalogue.
func Configured() *Map {
	m := NewMap()
	for _, c := range []Check{
		newROE(),
		newDepreciationGen(),
		newLoanInterest(),
		newWorkingCapitalInterest(),
		newGPFInterest(),
		newSecurityDepositInterest(),
		newCarryingCost(),
		newOtherInterestDist(),
		newOtherCharges(),
		newMasterTrustBond(),
		newMasterTrustRepayment(),
		newMasterTrustAdditional(),
		newNonTariffIncome(),
		newPowerPurchaseCost(),
		newOMInflation(),
		newOMDistNorms(),
		newPayRevision(),
		newDistributionLoss(),
		newTDLossSharing(),
		newOtherExpenses(),
		newExceptionalItems(),
		newIntangibleAssets(),
	} {
		m.SetCheck(c)
	}
	return m
}

// Map manages the registered checks.
type Map struct {
	mu     sync.Mutex
	checks map[string]Check
	order  []string
}

// NewMap creates a new check Map.
func NewMap() *Map {
	return &Map{
		checks: make(map[string]Check),
	}
}

// Check returns the check with the given ID.
func (m *Map) Check(id string) (Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.checks[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown check: %s", id)
}

// SetCheck registers a check, replacing any previous check with the
// same ID. This is also used for stubbing checks in tests.
func (m *Map) SetCheck(c Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[c.ID()]; !ok {
		m.order = append(m.order, c.ID())
	}
	m.checks[c.ID()] = c
}

// All returns every registered check in registration order.
func (m *Map) All() []Check {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Check, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.checks[id])
	}
	return out
}
