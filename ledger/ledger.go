/*
ledger.go - Customer ledger operations

PURPOSE:
  CustomerLedger is the facade the HTTP layer (or any other caller)
  invokes. It owns validation, valuation, and loan math, and delegates
  atomic persistence to the Store.

OPERATIONS:
  AddDeposit        price a deposit and fold it into the customer,
                    creating the customer on first deposit
  SettlePayment     move the pending balance into the paid ledger
  LoanStatus        compute accrued interest and total owed (read-only)
  ProvideLoan       grant a loan, starting the interest clock
  UpdateLoanAmount  adjust the principal without resetting the clock
  ListByEmployee    customers of one employee, by recency or total paid
  FindForEmployee   one customer scoped to its owning employee
  CustomerLogin     customer self-service lookup by (id, email)
  DetailsByEmail    employee-scoped lookup cross-checked against email
  AdminList/AdminUpdate  cross-employee override operations

IDEMPOTENT MERGE:
  The deposit key is (email, employee). Repeated deposits accumulate into
  the same customer; they never overwrite. Two concurrent first deposits
  can both attempt the create - the loser of that race detects the
  duplicate and folds its deposit into the winner's record.

CLOCK:
  Now is an exported field so tests can pin time. Every timestamp this
  package writes flows through it.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerLedger executes the cooperative's business operations against
// a Store. Construct one per process and share it across requests.
type CustomerLedger struct {
	store Store
	rates RateTable

	// Now supplies timestamps. Override in tests.
	Now func() time.Time
}

// NewCustomerLedger creates a ledger using the given store and rate table.
func NewCustomerLedger(store Store, rates RateTable) *CustomerLedger {
	return &CustomerLedger{
		store: store,
		rates: rates,
		Now:   time.Now,
	}
}

// =============================================================================
// DEPOSITS
// =============================================================================

// DepositRequest is one submission of waste quantities for a customer.
// The HTTP layer has already established field presence; this layer
// enforces the domain rules (non-negative quantities, identity fields).
type DepositRequest struct {
	Name  string
	Email string
	Phone string

	Quantities WasteQuantities
}

func (r DepositRequest) validate() error {
	var fields []FieldError
	if r.Name == "" {
		fields = append(fields, FieldError{Field: "name", Msg: "is required"})
	}
	if r.Email == "" {
		fields = append(fields, FieldError{Field: "email", Msg: "is required"})
	}
	if r.Phone == "" {
		fields = append(fields, FieldError{Field: "phoneNumber", Msg: "is required"})
	}
	if r.Quantities.HasNegative() {
		fields = append(fields, FieldError{Field: "quantities", Msg: "must not be negative"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// AddDeposit prices the deposit and accumulates it into the customer
// identified by (email, employee), creating the customer on first deposit.
// Returns the post-deposit customer snapshot.
func (l *CustomerLedger) AddDeposit(ctx context.Context, employeeID EmployeeID, req DepositRequest) (*Customer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	value := l.rates.Value(req.Quantities)
	now := l.Now()
	rec := WasteRecord{
		ID:         uuid.NewString(),
		Quantities: req.Quantities,
		AddedAt:    now,
	}

	existing, err := l.store.FindByEmail(ctx, employeeID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup customer by email: %w", err)
	}
	if existing != nil {
		return l.store.ApplyDeposit(ctx, existing.ID, rec, value)
	}

	c := &Customer{
		ID:                   CustomerID(uuid.NewString()),
		EmployeeID:           employeeID,
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		Totals:               req.Quantities,
		WasteRecords:         []WasteRecord{rec},
		PendingPayment:       value.IsPositive(),
		PendingPaymentAmount: value,
		TotalAmountPaid:      decimal.Zero,
		LoanProvided:         decimal.Zero,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = l.store.Create(ctx, c)
	if errors.Is(err, ErrDuplicateCustomer) {
		// Lost a concurrent first-deposit race: merge into the winner.
		existing, ferr := l.store.FindByEmail(ctx, employeeID, req.Email)
		if ferr != nil {
			return nil, fmt.Errorf("lookup customer after create conflict: %w", ferr)
		}
		if existing == nil {
			return nil, err
		}
		return l.store.ApplyDeposit(ctx, existing.ID, rec, value)
	}
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettlePayment marks the customer's pending balance as paid. All four
// field changes (paid ledger append, running sum, flag, amount) land in
// one atomic store operation; no partial-settlement state is observable.
func (l *CustomerLedger) SettlePayment(ctx context.Context, employeeID EmployeeID, id CustomerID) (*Customer, error) {
	return l.store.Settle(ctx, employeeID, id, l.Now())
}

// =============================================================================
// LOANS
// =============================================================================

// LoanStatus computes the customer's loan statement as of now. The lookup
// is global, not scoped to an employee, matching how loan tracking is
// actually used across the cooperative.
func (l *CustomerLedger) LoanStatus(ctx context.Context, id CustomerID) (*LoanStatement, error) {
	c, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	st := AccrueLoan(c.LoanProvided, c.LoanApprovedDate, l.Now())
	return &st, nil
}

// ProvideLoan grants a new loan of the given principal and starts the
// interest clock at now.
func (l *CustomerLedger) ProvideLoan(ctx context.Context, id CustomerID, amount decimal.Decimal) (*LoanStatement, error) {
	if !amount.IsPositive() {
		return nil, invalidField("loanAmount", "must be positive")
	}
	c, err := l.store.UpdateLoan(ctx, id, amount, true, l.Now())
	if err != nil {
		return nil, err
	}
	st := AccrueLoan(c.LoanProvided, c.LoanApprovedDate, l.Now())
	return &st, nil
}

// UpdateLoanAmount sets the outstanding principal to a new non-negative
// value. The approval date is untouched unless the loan is fully repaid
// (amount zero), so adjusting the amount does not reset the interest
// clock.
func (l *CustomerLedger) UpdateLoanAmount(ctx context.Context, id CustomerID, amount decimal.Decimal) (*LoanStatement, error) {
	if amount.IsNegative() {
		return nil, invalidField("loanAmount", "cannot be negative")
	}
	c, err := l.store.UpdateLoan(ctx, id, amount, false, l.Now())
	if err != nil {
		return nil, err
	}
	st := AccrueLoan(c.LoanProvided, c.LoanApprovedDate, l.Now())
	return &st, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ListByEmployee returns the employee's customers. An unknown sort key
// falls back to recency.
func (l *CustomerLedger) ListByEmployee(ctx context.Context, employeeID EmployeeID, sort SortKey) ([]Customer, error) {
	if sort != SortTotalPaid {
		sort = SortRecency
	}
	return l.store.ListByEmployee(ctx, employeeID, sort)
}

// FindForEmployee returns one customer scoped to its owning employee.
func (l *CustomerLedger) FindForEmployee(ctx context.Context, employeeID EmployeeID, id CustomerID) (*Customer, error) {
	c, err := l.store.FindForEmployee(ctx, employeeID, id)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// =============================================================================
// CUSTOMER SELF-SERVICE
// =============================================================================

// CustomerLogin authenticates a customer from the (customer id, email)
// pair they were given at registration. The lookup is global: a customer
// checking their own balance does not know which employee owns their
// record. A mismatched email reads the same as an unknown id.
func (l *CustomerLedger) CustomerLogin(ctx context.Context, id CustomerID, email string) (*Customer, error) {
	var fields []FieldError
	if id == "" {
		fields = append(fields, FieldError{Field: "customerId", Msg: "is required"})
	}
	if email == "" {
		fields = append(fields, FieldError{Field: "email", Msg: "is required"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	c, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil || c.Email != email {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// DetailsByEmail returns one customer matched on all three of id, email,
// and owning employee. Used by the employee-facing details view, which
// carries the email as a cross-check against a mistyped id.
func (l *CustomerLedger) DetailsByEmail(ctx context.Context, employeeID EmployeeID, id CustomerID, email string) (*Customer, error) {
	if email == "" {
		return nil, invalidField("email", "is required")
	}

	c, err := l.store.FindForEmployee(ctx, employeeID, id)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil || c.Email != email {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// =============================================================================
// ADMIN OVERRIDES
// =============================================================================

// AdminList returns every customer across all employees, newest first.
func (l *CustomerLedger) AdminList(ctx context.Context) ([]Customer, error) {
	return l.store.ListAll(ctx)
}

// AdminUpdate edits identity fields on any customer, regardless of owner.
func (l *CustomerLedger) AdminUpdate(ctx context.Context, id CustomerID, details CustomerDetails) (*Customer, error) {
	if details.Email != nil && *details.Email == "" {
		return nil, invalidField("email", "must not be empty")
	}
	if details.Name != nil && *details.Name == "" {
		return nil, invalidField("name", "must not be empty")
	}
	return l.store.UpdateDetails(ctx, id, details)
}
