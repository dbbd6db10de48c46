/*
loan.go - Simple-interest loan accrual

PURPOSE:
  Computes the interest accrued on an outstanding loan as a function of
  elapsed time since approval. Pure functions of stored state and a clock;
  nothing here mutates the customer.

ACCRUAL RULE:
  monthsPassed    = floor(elapsed / 30 days)   (calendar-approximate)
  accruedInterest = principal * 0.10 * monthsPassed / 12
  totalOwed       = principal + accruedInterest, rounded to 2 decimals

  Without an approval date there is no interest clock: monthsPassed = 0
  and totalOwed = principal.

INTEREST CLOCK:
  Changing the principal via UpdateLoanAmount does not reset the approval
  date, so interest keeps accruing from the original approval. Only a new
  grant (ProvideLoan) starts the clock, and full repayment clears it.
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan status labels surfaced to callers.
const (
	LoanStatusPending = "Pending Loan"
	LoanStatusClear   = "No Loan to Clear"
)

// annualInterestRate is the cooperative's flat simple-interest rate.
var annualInterestRate = decimal.NewFromFloat(0.10)

const accrualMonth = 30 * 24 * time.Hour

// LoanStatement is the computed view of a customer's loan.
type LoanStatement struct {
	Status          string
	Principal       decimal.Decimal
	AccruedInterest decimal.Decimal
	TotalOwed       decimal.Decimal
	MonthsPassed    int
}

// loanStatusLabel returns the status label for an outstanding principal.
func loanStatusLabel(principal decimal.Decimal) string {
	if principal.IsPositive() {
		return LoanStatusPending
	}
	return LoanStatusClear
}

// AccrueLoan computes the loan statement for a principal approved at
// approvedAt (nil when no loan has been granted) as of now.
func AccrueLoan(principal decimal.Decimal, approvedAt *time.Time, now time.Time) LoanStatement {
	st := LoanStatement{
		Status:          loanStatusLabel(principal),
		Principal:       principal,
		AccruedInterest: decimal.Zero,
		TotalOwed:       principal.Round(2),
	}

	if approvedAt == nil {
		return st
	}

	elapsed := now.Sub(*approvedAt)
	if elapsed < 0 {
		// Approval dates in the future accrue nothing.
		elapsed = 0
	}
	months := int(elapsed / accrualMonth)

	interest := principal.
		Mul(annualInterestRate).
		Mul(decimal.NewFromInt(int64(months))).
		Div(decimal.NewFromInt(12))

	st.MonthsPassed = months
	st.AccruedInterest = interest.Round(2)
	st.TotalOwed = principal.Add(interest).Round(2)
	return st
}
