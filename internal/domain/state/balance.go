package state

// BalanceLedger tracks the simulated spendable balance. The conservation
// invariant holds after every mutation:
//
//	CurrentBalance == *RealBalance + AddedCredit - FakeSpent
//
// RealBalance is captured once from the first observed currency readback and
// never re-captured; FakeSpent only grows.
type BalanceLedger struct {
	RealBalance    *int64 `json:"realBalance"`
	CurrentBalance int64  `json:"currentBalance"`
	AddedCredit    int64  `json:"addedCredit"`
	FakeSpent      int64  `json:"fakeSpent"`
}

// NewBalanceLedger creates a ledger with the configured simulated top-up.
func NewBalanceLedger(addedCredit int64) *BalanceLedger {
	return &BalanceLedger{AddedCredit: addedCredit}
}

// Captured reports whether the true balance has been observed yet.
func (b *BalanceLedger) Captured() bool { return b.RealBalance != nil }

// CaptureReal records the first observed true balance and derives the
// simulated spendable balance. Later observations are ignored.
func (b *BalanceLedger) CaptureReal(real int64) bool {
	if b.RealBalance != nil {
		return false
	}
	b.RealBalance = &real
	b.CurrentBalance = real + b.AddedCredit - b.FakeSpent
	return true
}

// CanAfford reports whether a simulated purchase of price is payable.
func (b *BalanceLedger) CanAfford(price int64) bool {
	return price <= b.CurrentBalance
}

// Spend debits the simulated balance and credits the cumulative simulated
// spend, preserving the conservation invariant.
func (b *BalanceLedger) Spend(price int64) {
	b.CurrentBalance -= price
	b.FakeSpent += price
}

// Rebase applies a changed added-credit configuration. When the true balance
// is already known the spendable balance is re-derived.
func (b *BalanceLedger) Rebase(addedCredit int64) bool {
	if b.AddedCredit == addedCredit {
		return false
	}
	b.AddedCredit = addedCredit
	if b.RealBalance != nil {
		b.CurrentBalance = *b.RealBalance + b.AddedCredit - b.FakeSpent
	}
	return true
}
