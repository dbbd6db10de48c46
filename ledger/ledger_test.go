/*
ledger_test.go - Tests for CustomerLedger operations against SQLite

CORE DESIGN:
- Deposits merge on (email, employee): repeated deposits accumulate
- Settlement atomically moves the pending balance into the paid ledger
- Loan math derives from stored principal + approval date, never stored
*/
package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowri/coop-ledger/ledger"
	"github.com/gowri/coop-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) *ledger.CustomerLedger {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return ledger.NewCustomerLedger(store, ledger.DefaultRates())
}

func deposit(name, email string, hen, cattle, sheep, neem float64) ledger.DepositRequest {
	return ledger.DepositRequest{
		Name:       name,
		Email:      email,
		Phone:      "9876543210",
		Quantities: ledger.NewWasteQuantities(hen, cattle, sheep, neem),
	}
}

// =============================================================================
// DEPOSIT TESTS
// =============================================================================

func TestAddDeposit_CreatesCustomerOnFirstDeposit(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: An employee records a first deposit of 10 hen, 5 cattle, 2 sheep
	// THEN: The customer is created with a pending balance of 199

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 5, 2, 0))
	require.NoError(t, err)

	assert.Equal(t, "Lakshmi", c.Name)
	assert.Equal(t, ledger.EmployeeID("emp-1"), c.EmployeeID)
	assert.True(t, c.PendingPayment)
	assert.True(t, c.PendingPaymentAmount.Equal(decimal.NewFromInt(199)),
		"expected 199 pending, got %s", c.PendingPaymentAmount)
	assert.Len(t, c.WasteRecords, 1)
	assert.True(t, c.TotalAmountPaid.IsZero())
}

func TestAddDeposit_AccumulatesIntoExistingCustomer(t *testing.T) {
	// GIVEN: A customer with one deposit of 10 hen (value 100)
	// WHEN: A second deposit of 1 hen, 5 cattle, 2 sheep (value 109) arrives
	// THEN: Totals and pending balance accumulate, and a second record appends

	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 1, 5, 2, 0))
	require.NoError(t, err)

	assert.Equal(t, "11", c.Totals.Hen.String())
	assert.Equal(t, "5", c.Totals.Cattle.String())
	assert.True(t, c.PendingPaymentAmount.Equal(decimal.NewFromInt(209)),
		"expected 209 pending, got %s", c.PendingPaymentAmount)
	assert.Len(t, c.WasteRecords, 2)
}

func TestAddDeposit_SameEmailDifferentEmployees_SeparateCustomers(t *testing.T) {
	// GIVEN: Two employees each recording deposits for the same email
	// WHEN: Both deposits land
	// THEN: Two independent customer records exist

	led := newTestLedger(t)
	ctx := context.Background()

	c1, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	c2, err := led.AddDeposit(ctx, "emp-2", deposit("Lakshmi", "lakshmi@example.com", 3, 0, 0, 0))
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
	assert.Equal(t, "10", c1.Totals.Hen.String())
	assert.Equal(t, "3", c2.Totals.Hen.String())
}

func TestAddDeposit_NeemOnly_TrackedButUnpaid(t *testing.T) {
	// GIVEN: A deposit of only neem plantation
	// WHEN: Recording it
	// THEN: Quantities are tracked but no payment becomes pending

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Ravi", "ravi@example.com", 0, 0, 0, 25))
	require.NoError(t, err)

	assert.Equal(t, "25", c.Totals.Neem.String())
	assert.False(t, c.PendingPayment)
	assert.True(t, c.PendingPaymentAmount.IsZero())
}

func TestAddDeposit_MissingFields_Rejected(t *testing.T) {
	// GIVEN: A deposit with no name or phone
	// WHEN: Recording it
	// THEN: A validation error names the missing fields

	led := newTestLedger(t)

	req := ledger.DepositRequest{
		Email:      "x@example.com",
		Quantities: ledger.NewWasteQuantities(1, 0, 0, 0),
	}
	_, err := led.AddDeposit(context.Background(), "emp-1", req)

	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))
}

func TestAddDeposit_NegativeQuantity_Rejected(t *testing.T) {
	// GIVEN: A deposit with a negative cattle quantity
	// WHEN: Recording it
	// THEN: The deposit is rejected and nothing is stored

	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddDeposit(ctx, "emp-1", deposit("Ravi", "ravi@example.com", 1, -2, 0, 0))
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))

	customers, err := led.ListByEmployee(ctx, "emp-1", ledger.SortRecency)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestAddDeposit_ConcurrentDeposits_NoLostUpdate(t *testing.T) {
	// GIVEN: An existing customer
	// WHEN: 20 deposits of 1 hen each land concurrently
	// THEN: All 20 are reflected in totals, pending balance, and history

	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 0, 0, 0, 0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 1, 0, 0, 0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	customers, err := led.ListByEmployee(ctx, "emp-1", ledger.SortRecency)
	require.NoError(t, err)
	require.Len(t, customers, 1)

	c := customers[0]
	assert.Equal(t, "20", c.Totals.Hen.String())
	assert.True(t, c.PendingPaymentAmount.Equal(decimal.NewFromInt(200)),
		"expected 200 pending, got %s", c.PendingPaymentAmount)
	assert.Len(t, c.WasteRecords, 21)
}

// =============================================================================
// SETTLEMENT TESTS
// =============================================================================

func TestSettlePayment_MovesPendingIntoPaidLedger(t *testing.T) {
	// GIVEN: A customer owed 199
	// WHEN: The employee settles
	// THEN: Pending clears, a payment of 199 appends, lifetime paid rises

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 5, 2, 0))
	require.NoError(t, err)

	settled, err := led.SettlePayment(ctx, "emp-1", c.ID)
	require.NoError(t, err)

	assert.False(t, settled.PendingPayment)
	assert.True(t, settled.PendingPaymentAmount.IsZero())
	require.Len(t, settled.TotalPaid, 1)
	assert.True(t, settled.TotalPaid[0].Amount.Equal(decimal.NewFromInt(199)))
	assert.True(t, settled.TotalAmountPaid.Equal(decimal.NewFromInt(199)))
}

func TestSettlePayment_NothingPending_Rejected(t *testing.T) {
	// GIVEN: A customer already settled
	// WHEN: Settling again
	// THEN: ErrNoPendingPayment and the record is unchanged

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.SettlePayment(ctx, "emp-1", c.ID)
	require.NoError(t, err)

	_, err = led.SettlePayment(ctx, "emp-1", c.ID)
	assert.ErrorIs(t, err, ledger.ErrNoPendingPayment)

	after, err := led.FindForEmployee(ctx, "emp-1", c.ID)
	require.NoError(t, err)
	assert.Len(t, after.TotalPaid, 1)
	assert.True(t, after.TotalAmountPaid.Equal(decimal.NewFromInt(100)))
}

func TestSettlePayment_OtherEmployeesCustomer_NotFound(t *testing.T) {
	// GIVEN: A customer owned by emp-1
	// WHEN: emp-2 tries to settle it
	// THEN: Not found, and emp-1's record is untouched

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.SettlePayment(ctx, "emp-2", c.ID)
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	after, err := led.FindForEmployee(ctx, "emp-1", c.ID)
	require.NoError(t, err)
	assert.True(t, after.PendingPayment)
}

func TestSettlePayment_UnknownCustomer_NotFound(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.SettlePayment(context.Background(), "emp-1", "no-such-id")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestSettlement_FollowedByNewDeposit_AccumulatesAgain(t *testing.T) {
	// GIVEN: A settled customer
	// WHEN: A new deposit arrives
	// THEN: Pending balance restarts from the new deposit only

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.SettlePayment(ctx, "emp-1", c.ID)
	require.NoError(t, err)

	after, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 0, 2, 0, 0))
	require.NoError(t, err)

	assert.True(t, after.PendingPaymentAmount.Equal(decimal.NewFromInt(30)),
		"expected 30 pending, got %s", after.PendingPaymentAmount)
	assert.True(t, after.TotalAmountPaid.Equal(decimal.NewFromInt(100)))
	assert.Len(t, after.WasteRecords, 2)
}

// =============================================================================
// LOAN TESTS
// =============================================================================

func TestProvideLoan_StartsInterestClock(t *testing.T) {
	// GIVEN: A customer
	// WHEN: A 10000 loan is granted and 180 days pass
	// THEN: Status shows 6 months accrued, 10500.00 owed

	led := newTestLedger(t)
	ctx := context.Background()

	grantedAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	led.Now = func() time.Time { return grantedAt }

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.ProvideLoan(ctx, c.ID, decimal.NewFromInt(10000))
	require.NoError(t, err)

	led.Now = func() time.Time { return grantedAt.Add(180 * 24 * time.Hour) }

	st, err := led.LoanStatus(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, ledger.LoanStatusPending, st.Status)
	assert.Equal(t, 6, st.MonthsPassed)
	assert.Equal(t, "10500", st.TotalOwed.String())
}

func TestProvideLoan_NonPositiveAmount_Rejected(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.ProvideLoan(ctx, c.ID, decimal.Zero)
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))
}

func TestUpdateLoanAmount_KeepsInterestClock(t *testing.T) {
	// GIVEN: A loan granted 60 days ago
	// WHEN: The principal is adjusted down
	// THEN: Months passed still count from the original approval

	led := newTestLedger(t)
	ctx := context.Background()

	grantedAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	led.Now = func() time.Time { return grantedAt }

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.ProvideLoan(ctx, c.ID, decimal.NewFromInt(10000))
	require.NoError(t, err)

	led.Now = func() time.Time { return grantedAt.Add(60 * 24 * time.Hour) }

	st, err := led.UpdateLoanAmount(ctx, c.ID, decimal.NewFromInt(6000))
	require.NoError(t, err)

	assert.Equal(t, 2, st.MonthsPassed)
	// 6000 * 0.10 * 2 / 12 = 100
	assert.Equal(t, "6100", st.TotalOwed.String())
}

func TestUpdateLoanAmount_ZeroClearsLoan(t *testing.T) {
	// GIVEN: An outstanding loan
	// WHEN: The principal is set to zero (full repayment)
	// THEN: Status clears and the interest clock stops

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.ProvideLoan(ctx, c.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	st, err := led.UpdateLoanAmount(ctx, c.ID, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, ledger.LoanStatusClear, st.Status)
	assert.Equal(t, 0, st.MonthsPassed)
	assert.True(t, st.TotalOwed.IsZero())
}

func TestUpdateLoanAmount_Negative_RejectedWithoutMutation(t *testing.T) {
	// GIVEN: An outstanding loan of 5000
	// WHEN: An update to a negative amount is attempted
	// THEN: Rejected, and the stored principal is unchanged

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.ProvideLoan(ctx, c.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	_, err = led.UpdateLoanAmount(ctx, c.ID, decimal.NewFromInt(-100))
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))

	st, err := led.LoanStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, st.Principal.Equal(decimal.NewFromInt(5000)))
}

func TestLoanStatus_NoLoan(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	st, err := led.LoanStatus(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, ledger.LoanStatusClear, st.Status)
	assert.True(t, st.TotalOwed.IsZero())
}

func TestLoanStatus_GlobalLookup(t *testing.T) {
	// GIVEN: A customer created by emp-1 with a loan
	// WHEN: Loan status is read without employee scoping
	// THEN: The statement is returned

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.ProvideLoan(ctx, c.ID, decimal.NewFromInt(2000))
	require.NoError(t, err)

	st, err := led.LoanStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.LoanStatusPending, st.Status)
}

func TestLoanStatus_UnknownCustomer_NotFound(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.LoanStatus(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

// =============================================================================
// QUERY TESTS
// =============================================================================

func TestListByEmployee_SortedByTotalPaid(t *testing.T) {
	// GIVEN: Two settled customers with different lifetime totals
	// WHEN: Listing by totalPaid
	// THEN: The bigger payer comes first

	led := newTestLedger(t)
	ctx := context.Background()

	small, err := led.AddDeposit(ctx, "emp-1", deposit("Small", "small@example.com", 1, 0, 0, 0))
	require.NoError(t, err)
	big, err := led.AddDeposit(ctx, "emp-1", deposit("Big", "big@example.com", 50, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.SettlePayment(ctx, "emp-1", small.ID)
	require.NoError(t, err)
	_, err = led.SettlePayment(ctx, "emp-1", big.ID)
	require.NoError(t, err)

	customers, err := led.ListByEmployee(ctx, "emp-1", ledger.SortTotalPaid)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Big", customers[0].Name)
	assert.Equal(t, "Small", customers[1].Name)
}

func TestListByEmployee_ScopedToEmployee(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddDeposit(ctx, "emp-1", deposit("Mine", "mine@example.com", 1, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.AddDeposit(ctx, "emp-2", deposit("Theirs", "theirs@example.com", 1, 0, 0, 0))
	require.NoError(t, err)

	customers, err := led.ListByEmployee(ctx, "emp-1", ledger.SortRecency)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Mine", customers[0].Name)
}

func TestFindForEmployee_OtherEmployeesCustomer_NotFound(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Mine", "mine@example.com", 1, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.FindForEmployee(ctx, "emp-2", c.ID)
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

// =============================================================================
// CUSTOMER SELF-SERVICE TESTS
// =============================================================================

func TestCustomerLogin_MatchingPair(t *testing.T) {
	// GIVEN: A registered customer
	// WHEN: They log in with their id and email
	// THEN: Their record comes back, regardless of owning employee

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	found, err := led.CustomerLogin(ctx, c.ID, "lakshmi@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	assert.Equal(t, "Lakshmi", found.Name)
}

func TestCustomerLogin_WrongEmail_NotFound(t *testing.T) {
	// A mismatched email must read the same as an unknown id.
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.CustomerLogin(ctx, c.ID, "someone-else@example.com")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestCustomerLogin_UnknownID_NotFound(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.CustomerLogin(context.Background(), "no-such-id", "lakshmi@example.com")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestCustomerLogin_MissingFields_Rejected(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.CustomerLogin(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))
}

func TestDetailsByEmail_MatchingTriple(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	found, err := led.DetailsByEmail(ctx, "emp-1", c.ID, "lakshmi@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
}

func TestDetailsByEmail_WrongEmailOrEmployee_NotFound(t *testing.T) {
	// GIVEN: A customer owned by emp-1
	// WHEN: The email or the employee does not match
	// THEN: Not found in both cases

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Lakshmi", "lakshmi@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	_, err = led.DetailsByEmail(ctx, "emp-1", c.ID, "wrong@example.com")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	_, err = led.DetailsByEmail(ctx, "emp-2", c.ID, "lakshmi@example.com")
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestAdminList_SeesAllEmployees(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddDeposit(ctx, "emp-1", deposit("A", "a@example.com", 1, 0, 0, 0))
	require.NoError(t, err)
	_, err = led.AddDeposit(ctx, "emp-2", deposit("B", "b@example.com", 1, 0, 0, 0))
	require.NoError(t, err)

	customers, err := led.AdminList(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 2)
}

func TestAdminUpdate_EditsIdentityFields(t *testing.T) {
	// GIVEN: A customer created by emp-1
	// WHEN: An admin renames them
	// THEN: The name changes and ledger history is untouched

	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Old Name", "old@example.com", 10, 0, 0, 0))
	require.NoError(t, err)

	newName := "New Name"
	updated, err := led.AdminUpdate(ctx, c.ID, ledger.CustomerDetails{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "old@example.com", updated.Email)
	assert.Len(t, updated.WasteRecords, 1)
}

func TestAdminUpdate_EmptyEmail_Rejected(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	c, err := led.AddDeposit(ctx, "emp-1", deposit("Name", "name@example.com", 1, 0, 0, 0))
	require.NoError(t, err)

	empty := ""
	_, err = led.AdminUpdate(ctx, c.ID, ledger.CustomerDetails{Email: &empty})
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))
}
