/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store and auth.AccountStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  accounts:       employee/admin login records
  customers:      one row per customer with the derived sums
  waste_records:  append-only deposit history
  payments:       append-only settlement history

ATOMIC MUTATIONS:
  ApplyDeposit, Settle, and UpdateLoan each run as one database
  transaction under the store mutex: the row is read, the new sums are
  computed with decimal arithmetic, and the row plus its history append
  are written together. There is no path where a caller reads a customer,
  mutates it in memory, and writes it back - so concurrent deposits or
  deposit-vs-settlement on the same customer cannot lose an update.

APPEND-ONLY ENFORCEMENT:
  waste_records and payments have INSERT paths only. No UPDATE or DELETE
  statements exist for either table.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. SQLite is
  opened with WAL (Write-Ahead Logging): multiple readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/coop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  led := ledger.NewCustomerLedger(store, ledger.DefaultRates())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: interface definition and mutation contract
  - auth/auth.go:    AccountStore interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gowri/coop-ledger/auth"
	"github.com/gowri/coop-ledger/ledger"
)

// Store implements ledger.Store and auth.AccountStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time, and a fresh connection to
	// ":memory:" would see an empty database. Keep a single connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employee/admin login records
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email
		ON accounts(email);

	-- Customers with their derived sums
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		hen_total TEXT NOT NULL DEFAULT '0',
		cattle_total TEXT NOT NULL DEFAULT '0',
		sheep_total TEXT NOT NULL DEFAULT '0',
		neem_total TEXT NOT NULL DEFAULT '0',
		pending_payment INTEGER NOT NULL DEFAULT 0,
		pending_payment_amount TEXT NOT NULL DEFAULT '0',
		total_amount_paid TEXT NOT NULL DEFAULT '0',
		loan_provided TEXT NOT NULL DEFAULT '0',
		loan_approved_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Deposit merge key: one customer per (employee, email)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_employee_email
		ON customers(employee_id, email);

	-- Listing order (hot path)
	CREATE INDEX IF NOT EXISTS idx_customers_employee_created
		ON customers(employee_id, created_at DESC);

	-- Append-only deposit history
	CREATE TABLE IF NOT EXISTS waste_records (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		hen TEXT NOT NULL DEFAULT '0',
		cattle TEXT NOT NULL DEFAULT '0',
		sheep TEXT NOT NULL DEFAULT '0',
		neem TEXT NOT NULL DEFAULT '0',
		added_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_waste_records_customer
		ON waste_records(customer_id, added_at);

	-- Append-only settlement history
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		paid_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_customer
		ON payments(customer_id, paid_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CUSTOMER STORE (ledger.Store interface)
// =============================================================================

// Create persists a brand-new customer with its first waste record.
func (s *Store) Create(ctx context.Context, c *ledger.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO customers
		(id, employee_id, name, email, phone,
		 hen_total, cattle_total, sheep_total, neem_total,
		 pending_payment, pending_payment_amount, total_amount_paid,
		 loan_provided, loan_approved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		c.ID, c.EmployeeID, c.Name, c.Email, c.Phone,
		c.Totals.Hen.String(), c.Totals.Cattle.String(),
		c.Totals.Sheep.String(), c.Totals.Neem.String(),
		boolToInt(c.PendingPayment), c.PendingPaymentAmount.String(),
		c.TotalAmountPaid.String(), c.LoanProvided.String(),
		nullTime(c.LoanApprovedDate),
		c.CreatedAt.UTC().Format(time.RFC3339),
		c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateCustomer
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	for _, rec := range c.WasteRecords {
		if err := insertWasteRecord(ctx, tx, c.ID, rec); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindByEmail returns the customer owned by employeeID with the given email.
func (s *Store) FindByEmail(ctx context.Context, employeeID ledger.EmployeeID, email string) (*ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCustomer(ctx,
		customerSelect+" WHERE employee_id = ? AND email = ?", employeeID, email)
}

// FindForEmployee returns the customer by id scoped to its owning employee.
func (s *Store) FindForEmployee(ctx context.Context, employeeID ledger.EmployeeID, id ledger.CustomerID) (*ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCustomer(ctx,
		customerSelect+" WHERE id = ? AND employee_id = ?", id, employeeID)
}

// Get returns the customer by id regardless of owner.
func (s *Store) Get(ctx context.Context, id ledger.CustomerID) (*ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCustomer(ctx, customerSelect+" WHERE id = ?", id)
}

// ApplyDeposit folds one deposit into the customer row and appends the
// record, all within a single transaction.
func (s *Store) ApplyDeposit(ctx context.Context, id ledger.CustomerID, rec ledger.WasteRecord, value decimal.Decimal) (*ledger.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var henT, cattleT, sheepT, neemT, pendingAmt string
	err = tx.QueryRowContext(ctx,
		`SELECT hen_total, cattle_total, sheep_total, neem_total, pending_payment_amount
		 FROM customers WHERE id = ?`, id,
	).Scan(&henT, &cattleT, &sheepT, &neemT, &pendingAmt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	stored, err := scanQuantities(henT, cattleT, sheepT, neemT)
	if err != nil {
		return nil, err
	}
	pendingBase, err := parseDecimal(pendingAmt, "pending_payment_amount")
	if err != nil {
		return nil, err
	}
	totals := stored.Add(rec.Quantities)
	newPending := pendingBase.Add(value)

	_, err = tx.ExecContext(ctx, `
		UPDATE customers SET
			hen_total = ?, cattle_total = ?, sheep_total = ?, neem_total = ?,
			pending_payment = ?, pending_payment_amount = ?, updated_at = ?
		WHERE id = ?`,
		totals.Hen.String(), totals.Cattle.String(),
		totals.Sheep.String(), totals.Neem.String(),
		boolToInt(newPending.IsPositive()), newPending.String(),
		rec.AddedAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply deposit: %w", err)
	}

	if err := insertWasteRecord(ctx, tx, id, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.queryCustomer(ctx, customerSelect+" WHERE id = ?", id)
}

// Settle moves the pending balance into the paid ledger atomically. The
// pending check happens inside the transaction, so a concurrent deposit
// cannot leave a half-settled row.
func (s *Store) Settle(ctx context.Context, employeeID ledger.EmployeeID, id ledger.CustomerID, at time.Time) (*ledger.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pending int
	var pendingAmt, totalPaid string
	err = tx.QueryRowContext(ctx,
		`SELECT pending_payment, pending_payment_amount, total_amount_paid
		 FROM customers WHERE id = ? AND employee_id = ?`, id, employeeID,
	).Scan(&pending, &pendingAmt, &totalPaid)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if pending == 0 {
		return nil, ledger.ErrNoPendingPayment
	}

	amount, err := parseDecimal(pendingAmt, "pending_payment_amount")
	if err != nil {
		return nil, err
	}
	paidBase, err := parseDecimal(totalPaid, "total_amount_paid")
	if err != nil {
		return nil, err
	}
	newTotal := paidBase.Add(amount)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, customer_id, paid_at, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), id,
		at.UTC().Format(time.RFC3339), amount.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE customers SET
			total_amount_paid = ?, pending_payment = 0,
			pending_payment_amount = '0', updated_at = ?
		WHERE id = ?`,
		newTotal.String(), at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.queryCustomer(ctx, customerSelect+" WHERE id = ?", id)
}

// UpdateLoan sets the outstanding principal. A grant stamps the approval
// date; full repayment clears it; a plain amount change leaves it alone.
func (s *Store) UpdateLoan(ctx context.Context, id ledger.CustomerID, amount decimal.Decimal, grant bool, at time.Time) (*ledger.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var approvedAt sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT loan_approved_at FROM customers WHERE id = ?", id,
	).Scan(&approvedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	switch {
	case grant:
		approvedAt = sql.NullString{String: at.UTC().Format(time.RFC3339), Valid: true}
	case amount.IsZero():
		approvedAt = sql.NullString{}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE customers SET loan_provided = ?, loan_approved_at = ?, updated_at = ?
		WHERE id = ?`,
		amount.String(), approvedAt, at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.queryCustomer(ctx, customerSelect+" WHERE id = ?", id)
}

// UpdateDetails edits identity fields on any customer.
func (s *Store) UpdateDetails(ctx context.Context, id ledger.CustomerID, details ledger.CustomerDetails) (*ledger.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any
	if details.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *details.Name)
	}
	if details.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *details.Email)
	}
	if details.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *details.Phone)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC().Format(time.RFC3339), id)

		res, err := s.db.ExecContext(ctx,
			"UPDATE customers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isUniqueConstraintError(err) {
				return nil, ledger.ErrDuplicateCustomer
			}
			return nil, fmt.Errorf("failed to update customer: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ledger.ErrCustomerNotFound
		}
	}

	c, err := s.queryCustomer(ctx, customerSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ledger.ErrCustomerNotFound
	}
	return c, nil
}

// ListByEmployee returns the employee's customers in the given order.
func (s *Store) ListByEmployee(ctx context.Context, employeeID ledger.EmployeeID, sort ledger.SortKey) ([]ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := "created_at DESC"
	if sort == ledger.SortTotalPaid {
		// Amounts are stored as decimal strings; sort numerically.
		order = "CAST(total_amount_paid AS REAL) DESC"
	}

	return s.queryCustomers(ctx,
		customerSelect+" WHERE employee_id = ? ORDER BY "+order, employeeID)
}

// ListAll returns every customer, newest first.
func (s *Store) ListAll(ctx context.Context) ([]ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCustomers(ctx, customerSelect+" ORDER BY created_at DESC")
}

// =============================================================================
// CUSTOMER SCANNING
// =============================================================================

const customerSelect = `
	SELECT id, employee_id, name, email, phone,
	       hen_total, cattle_total, sheep_total, neem_total,
	       pending_payment, pending_payment_amount, total_amount_paid,
	       loan_provided, loan_approved_at, created_at, updated_at
	FROM customers`

func (s *Store) queryCustomer(ctx context.Context, query string, args ...any) (*ledger.Customer, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadHistories(ctx, []*ledger.Customer{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) queryCustomers(ctx context.Context, query string, args ...any) ([]ledger.Customer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []ledger.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*ledger.Customer, len(customers))
	for i := range customers {
		refs[i] = &customers[i]
	}
	if err := s.loadHistories(ctx, refs); err != nil {
		return nil, err
	}
	return customers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanQuantities parses the four stored quantity columns.
func scanQuantities(hen, cattle, sheep, neem string) (ledger.WasteQuantities, error) {
	var q ledger.WasteQuantities
	var err error
	if q.Hen, err = parseDecimal(hen, "hen"); err != nil {
		return q, err
	}
	if q.Cattle, err = parseDecimal(cattle, "cattle"); err != nil {
		return q, err
	}
	if q.Sheep, err = parseDecimal(sheep, "sheep"); err != nil {
		return q, err
	}
	q.Neem, err = parseDecimal(neem, "neem")
	return q, err
}

func scanCustomer(row rowScanner) (*ledger.Customer, error) {
	var (
		c                        ledger.Customer
		hen, cattle, sheep, neem string
		pending                  int
		pendingAmt, totalPaid    string
		loan                     string
		approvedAt               sql.NullString
		createdAt, updatedAt     string
	)

	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.Name, &c.Email, &c.Phone,
		&hen, &cattle, &sheep, &neem,
		&pending, &pendingAmt, &totalPaid,
		&loan, &approvedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.Totals, err = scanQuantities(hen, cattle, sheep, neem); err != nil {
		return nil, err
	}
	c.PendingPayment = pending != 0
	if c.PendingPaymentAmount, err = parseDecimal(pendingAmt, "pending_payment_amount"); err != nil {
		return nil, err
	}
	if c.TotalAmountPaid, err = parseDecimal(totalPaid, "total_amount_paid"); err != nil {
		return nil, err
	}
	if c.LoanProvided, err = parseDecimal(loan, "loan_provided"); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		c.LoanApprovedDate = &t
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// loadHistories attaches the append-only ledgers in chronological order.
// One query per table regardless of how many customers are being loaded.
func (s *Store) loadHistories(ctx context.Context, customers []*ledger.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	byID := make(map[ledger.CustomerID]*ledger.Customer, len(customers))
	placeholders := make([]string, len(customers))
	ids := make([]any, len(customers))
	for i, c := range customers {
		c.WasteRecords = nil
		c.TotalPaid = nil
		byID[c.ID] = c
		placeholders[i] = "?"
		ids[i] = c.ID
	}
	in := "(" + strings.Join(placeholders, ", ") + ")"

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, id, hen, cattle, sheep, neem, added_at
		FROM waste_records WHERE customer_id IN `+in+`
		ORDER BY added_at ASC, created_at ASC`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query waste records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var customerID ledger.CustomerID
		var rec ledger.WasteRecord
		var hen, cattle, sheep, neem, addedAt string
		if err := rows.Scan(&customerID, &rec.ID, &hen, &cattle, &sheep, &neem, &addedAt); err != nil {
			return err
		}
		if rec.Quantities, err = scanQuantities(hen, cattle, sheep, neem); err != nil {
			return err
		}
		rec.AddedAt, _ = time.Parse(time.RFC3339, addedAt)
		if c := byID[customerID]; c != nil {
			c.WasteRecords = append(c.WasteRecords, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, id, paid_at, amount
		FROM payments WHERE customer_id IN `+in+`
		ORDER BY paid_at ASC, created_at ASC`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query payments: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var customerID ledger.CustomerID
		var p ledger.Payment
		var paidAt, amount string
		if err := prows.Scan(&customerID, &p.ID, &paidAt, &amount); err != nil {
			return err
		}
		if p.Amount, err = parseDecimal(amount, "amount"); err != nil {
			return err
		}
		p.Date, _ = time.Parse(time.RFC3339, paidAt)
		if c := byID[customerID]; c != nil {
			c.TotalPaid = append(c.TotalPaid, p)
		}
	}
	return prows.Err()
}

func insertWasteRecord(ctx context.Context, tx *sql.Tx, id ledger.CustomerID, rec ledger.WasteRecord) error {
	recID := rec.ID
	if recID == "" {
		recID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO waste_records (id, customer_id, hen, cattle, sheep, neem, added_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recID, id,
		rec.Quantities.Hen.String(), rec.Quantities.Cattle.String(),
		rec.Quantities.Sheep.String(), rec.Quantities.Neem.String(),
		rec.AddedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert waste record: %w", err)
	}
	return nil
}

// =============================================================================
// ACCOUNT STORE (auth.AccountStore interface)
// =============================================================================

// CreateAccount persists a new account.
func (s *Store) CreateAccount(ctx context.Context, a auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, full_name, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.FullName, a.Email, a.PasswordHash,
		boolToInt(a.IsAdmin), a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// AccountByEmail retrieves an account by email.
func (s *Store) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAccount(ctx, "WHERE email = ?", email)
}

// AccountByID retrieves an account by id.
func (s *Store) AccountByID(ctx context.Context, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAccount(ctx, "WHERE id = ?", id)
}

func (s *Store) queryAccount(ctx context.Context, where string, arg any) (*auth.Account, error) {
	var a auth.Account
	var isAdmin int
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, full_name, email, password_hash, is_admin, created_at FROM accounts "+where,
		arg,
	).Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &isAdmin, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.IsAdmin = isAdmin != 0
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// SetAdmin promotes or demotes an account. Used by operational tooling;
// there is no HTTP surface for it.
func (s *Store) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET is_admin = ? WHERE id = ?", boolToInt(isAdmin), id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDecimal parses a stored decimal column, naming the column in the
// error so a corrupt row is reported rather than read as zero.
func parseDecimal(s, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed decimal in %s: %w", column, err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
