// Package equity computes the cash/equity settlement split applied to an
// invoice's service amount.
package equity

// Split is the settlement-split result: how much of a service amount is paid
// as equity, how many options that buys, and the percentage that produced it.
// Consumed read-only by the reconciliation engine.
type Split struct {
	EquityCents       int64
	EquityOptionCount int64
	EquityPercentage  int
}

// Calculator produces a settlement split for a contractor's service amount in
// a given calendar year. A (nil, nil) return is the failure sentinel: the
// split could not be computed and the caller must abort. A non-nil error
// signals an infrastructure problem (e.g. the datastore is down).
type Calculator interface {
	Split(contractorID, companyID uint, serviceAmountCents int64, year int) (*Split, error)
}
