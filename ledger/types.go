/*
Package ledger contains the customer ledger for the cooperative.

PURPOSE:
  This package holds the domain model and business operations for the
  waste-collection/micro-loan cooperative: customers with their deposit
  history, pending-payment balance, settlement ledger, and outstanding
  loan. Transport (HTTP) and persistence (SQLite) live elsewhere and
  depend on this package, never the other way around.

KEY CONCEPTS IN THIS FILE (types.go):
  - Customer: the single mutable entity, owned by one employee
  - WasteQuantities: per-category deposit quantities (hen/cattle/sheep/neem)
  - WasteRecord: one deposit, append-only and chronological
  - Payment: one settlement, append-only and chronological

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary value and quantity
  2. Append-only history: wasteRecords and totalPaid are never edited
  3. Derived sums kept alongside history: cumulative totals, running paid
     sum, and pending balance are maintained atomically with each append

INVARIANTS (enforced by the operations in this package and the store):
  - PendingPayment == true exactly when PendingPaymentAmount > 0
  - TotalAmountPaid == sum of TotalPaid[].Amount
  - Cumulative totals == elementwise sum over WasteRecords

SEE ALSO:
  - ledger.go:  CustomerLedger operations (deposit, settle, loans, queries)
  - rates.go:   deposit valuation
  - loan.go:    simple-interest accrual
  - store.go:   persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CustomerID string
type EmployeeID string

// =============================================================================
// WASTE QUANTITIES - per-category amounts of a deposit or cumulative totals
// =============================================================================

type WasteQuantities struct {
	Hen    decimal.Decimal
	Cattle decimal.Decimal
	Sheep  decimal.Decimal
	Neem   decimal.Decimal
}

func NewWasteQuantities(hen, cattle, sheep, neem float64) WasteQuantities {
	return WasteQuantities{
		Hen:    decimal.NewFromFloat(hen),
		Cattle: decimal.NewFromFloat(cattle),
		Sheep:  decimal.NewFromFloat(sheep),
		Neem:   decimal.NewFromFloat(neem),
	}
}

func (q WasteQuantities) Add(o WasteQuantities) WasteQuantities {
	return WasteQuantities{
		Hen:    q.Hen.Add(o.Hen),
		Cattle: q.Cattle.Add(o.Cattle),
		Sheep:  q.Sheep.Add(o.Sheep),
		Neem:   q.Neem.Add(o.Neem),
	}
}

// HasNegative reports whether any category is below zero.
func (q WasteQuantities) HasNegative() bool {
	return q.Hen.IsNegative() || q.Cattle.IsNegative() ||
		q.Sheep.IsNegative() || q.Neem.IsNegative()
}

// =============================================================================
// LEDGER ENTRIES - append-only history
// =============================================================================

// WasteRecord is a single deposit of waste quantities.
// Records are append-only: insertion order is chronological order and
// entries are never reordered or deleted.
type WasteRecord struct {
	ID         string
	Quantities WasteQuantities
	AddedAt    time.Time
}

// Payment is a single settlement of a pending balance.
type Payment struct {
	ID     string
	Date   time.Time
	Amount decimal.Decimal
}

// =============================================================================
// CUSTOMER - the ledger entity
// =============================================================================

// Customer is a cooperative member registered by an employee. The employee
// who created the record is its sole mutator through the normal operations;
// admins may override any record.
type Customer struct {
	ID         CustomerID
	EmployeeID EmployeeID
	Name       string
	Email      string
	Phone      string

	// Running sums over WasteRecords.
	Totals WasteQuantities

	WasteRecords []WasteRecord

	PendingPayment       bool
	PendingPaymentAmount decimal.Decimal

	TotalPaid       []Payment
	TotalAmountPaid decimal.Decimal

	LoanProvided     decimal.Decimal
	LoanApprovedDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerDetails carries the identity fields an admin may edit.
// Nil fields are left unchanged.
type CustomerDetails struct {
	Name  *string
	Email *string
	Phone *string
}

// SortKey selects the ordering of a customer listing.
type SortKey string

const (
	// SortRecency orders by creation time, newest first.
	SortRecency SortKey = "recency"
	// SortTotalPaid orders by lifetime amount paid, highest first.
	SortTotalPaid SortKey = "totalPaid"
)
