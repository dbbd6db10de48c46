/*
store.go - Persistence interface for customer records

PURPOSE:
  Defines the interface between the domain operations and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory
  storage; store/sqlite is the production implementation.

ATOMIC MUTATION CONTRACT:
  Every mutation that folds new history into a customer (ApplyDeposit,
  Settle, UpdateLoan) is a SINGLE store call executed atomically. The
  domain layer never reads a customer, mutates it in memory, and writes
  it back. Concurrent deposits on the same customer must both land.

LOOKUP CONVENTIONS:
  - Read methods return (nil, nil) when no customer matches; the domain
    layer translates absence into ErrCustomerNotFound.
  - Atomic mutations do their own lookup inside the transaction and
    return ErrCustomerNotFound / ErrNoPendingPayment themselves, since
    the check must hold at commit time, not at some earlier read.

APPEND-ONLY:
  WasteRecords and Payments have no update or delete paths. History only
  grows.
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store handles persistence of customers and their ledgers.
type Store interface {
	// Create persists a brand-new customer with its first waste record.
	// Returns ErrDuplicateCustomer if the (employee, email) pair exists.
	Create(ctx context.Context, c *Customer) error

	// FindByEmail returns the customer owned by employeeID with the given
	// email, or (nil, nil) when absent.
	FindByEmail(ctx context.Context, employeeID EmployeeID, email string) (*Customer, error)

	// FindForEmployee returns the customer by id scoped to its owning
	// employee, or (nil, nil) when absent or owned by someone else.
	FindForEmployee(ctx context.Context, employeeID EmployeeID, id CustomerID) (*Customer, error)

	// Get returns the customer by id regardless of owner, or (nil, nil).
	// Used by the loan operations, which are not employee-scoped.
	Get(ctx context.Context, id CustomerID) (*Customer, error)

	// ApplyDeposit atomically appends rec to the customer's waste records,
	// adds its quantities to the cumulative totals, and adds value to the
	// pending balance (raising the pending flag when the balance is
	// positive). Returns the post-deposit customer.
	ApplyDeposit(ctx context.Context, id CustomerID, rec WasteRecord, value decimal.Decimal) (*Customer, error)

	// Settle atomically moves the pending balance into the paid ledger:
	// appends {at, pendingPaymentAmount} to TotalPaid, adds it to
	// TotalAmountPaid, and clears the pending flag and amount. Returns
	// ErrCustomerNotFound or ErrNoPendingPayment without mutating.
	Settle(ctx context.Context, employeeID EmployeeID, id CustomerID, at time.Time) (*Customer, error)

	// UpdateLoan atomically sets the outstanding principal. When grant is
	// true the approval date is set to at (a new loan starts the interest
	// clock). A zero amount clears the approval date (loan fully repaid).
	// Otherwise the approval date is left untouched.
	UpdateLoan(ctx context.Context, id CustomerID, amount decimal.Decimal, grant bool, at time.Time) (*Customer, error)

	// UpdateDetails edits identity fields on any customer (admin override).
	// Returns ErrDuplicateCustomer when an email edit collides within the
	// owning employee's customers.
	UpdateDetails(ctx context.Context, id CustomerID, details CustomerDetails) (*Customer, error)

	// ListByEmployee returns the employee's customers in the given order.
	ListByEmployee(ctx context.Context, employeeID EmployeeID, sort SortKey) ([]Customer, error)

	// ListAll returns every customer (admin listing), newest first.
	ListAll(ctx context.Context) ([]Customer, error)
}
