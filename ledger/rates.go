/*
rates.go - Deposit valuation

PURPOSE:
  Converts raw waste quantities into a monetary value using fixed per-unit
  rates. Rates are configured per deployment and injected into the
  CustomerLedger; DefaultRates is the cooperative's standard table.

PRICING RULE:
  value = hen*HenRate + cattle*CattleRate + sheep*SheepRate

  Neem plantation quantities are tracked in the ledger but carry no price
  in the base valuation.
*/
package ledger

import "github.com/shopspring/decimal"

// RateTable holds the per-unit purchase rates for priced waste categories.
type RateTable struct {
	Hen    decimal.Decimal
	Cattle decimal.Decimal
	Sheep  decimal.Decimal
}

// DefaultRates is the standard rate table: 10 per hen unit, 15 per cattle
// unit, 12 per sheep unit.
func DefaultRates() RateTable {
	return RateTable{
		Hen:    decimal.NewFromInt(10),
		Cattle: decimal.NewFromInt(15),
		Sheep:  decimal.NewFromInt(12),
	}
}

// Value prices a deposit. Neem is unpriced.
func (r RateTable) Value(q WasteQuantities) decimal.Decimal {
	return q.Hen.Mul(r.Hen).
		Add(q.Cattle.Mul(r.Cattle)).
		Add(q.Sheep.Mul(r.Sheep))
}
