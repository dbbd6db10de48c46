/*
handlers.go - HTTP API handlers for the cooperative backend

PURPOSE:
  Exposes the customer ledger and employee accounts via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the domain layer.

ENDPOINTS:
  Auth:
    POST   /api/auth/signup                     Create employee account
    POST   /api/auth/login                      Employee login
    POST   /api/auth/admin-login                Admin login
    POST   /api/auth/logout                     Clear session cookie
    GET    /api/auth/check                      Current identity

  Customer self-service:
    POST   /api/customers/login                 Customer lookup by (id, email), no session
    GET    /api/customers/details/{customerID}  Record details (?email= cross-check)

  Customers (employee-scoped):
    POST   /api/customers/add                   Record a deposit (creates customer on first deposit)
    PUT    /api/customers/pay/{customerID}      Settle pending payment
    GET    /api/customers                       List (?sort=recency|totalPaid)
    GET    /api/customers/recent                List by recency
    GET    /api/customers/paid                  List by lifetime amount paid
    GET    /api/customers/search?customerId=    Find one customer
    GET    /api/customers/loan-status/{customerID}         Loan statement
    PUT    /api/customers/provide-loan/{customerID}        Grant a loan
    PUT    /api/customers/update-loan-status/{customerID}  Adjust principal

  Admin:
    GET    /api/admin/customers                 List all customers
    PUT    /api/admin/customers/{customerID}    Edit any customer

ERROR HANDLING:
  Domain errors map to HTTP status via writeDomainError:
  - 400: validation failures, settlement with nothing owed
  - 404: unknown customer
  - 409: duplicate email within an employee's customers
  - 500: storage failures

SEE ALSO:
  - dto.go:        request/response shapes
  - middleware.go: session resolution
  - server.go:     router setup
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gowri/coop-ledger/auth"
	"github.com/gowri/coop-ledger/ledger"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.CustomerLedger
	Auth   *auth.Service
	Tokens *auth.TokenIssuer

	// CookieSecure controls the Secure attribute on the session cookie.
	// Off for local development over plain HTTP.
	CookieSecure bool
}

// NewHandler creates a handler with the given domain services.
func NewHandler(led *ledger.CustomerLedger, authSvc *auth.Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{Ledger: led, Auth: authSvc, Tokens: tokens}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Signup creates an employee account and opens a session.
// POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, token, err := h.Auth.Signup(r.Context(), auth.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if errors.Is(err, auth.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "Email already exists", nil)
		return
	}
	if errors.Is(err, auth.ErrWeakPassword) {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// Login opens a session for an employee.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin opens a session for an admin account.
// POST /api/auth/admin-login
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		account *auth.Account
		token   string
		err     error
	)
	if admin {
		account, token, err = h.Auth.AdminLogin(r.Context(), req.Email, req.Password)
	} else {
		account, token, err = h.Auth.Login(r.Context(), req.Email, req.Password)
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}
	if errors.Is(err, auth.ErrNotAdmin) {
		writeError(w, http.StatusForbidden, "Access denied. Not an admin.", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// Logout clears the session cookie.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// CheckAuth returns the authenticated account.
// GET /api/auth/check
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	account, err := h.Auth.AccountByID(r.Context(), string(id.EmployeeID))
	if errors.Is(err, auth.ErrAccountNotFound) {
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// =============================================================================
// DEPOSIT / SETTLEMENT HANDLERS
// =============================================================================

// AddDeposit records a waste deposit for a customer of the requesting
// employee, creating the customer on first deposit. Repeated deposits for
// the same (email, employee) pair accumulate.
// POST /api/customers/add
func (h *Handler) AddDeposit(w http.ResponseWriter, r *http.Request) {
	var req AddDepositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.Ledger.AddDeposit(r.Context(), employeeFrom(r.Context()), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(customer))
}

// SettlePayment marks a customer's pending balance as paid.
// PUT /api/customers/pay/{customerID}
func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	customer, err := h.Ledger.SettlePayment(r.Context(), employeeFrom(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(customer))
}

// =============================================================================
// CUSTOMER QUERY HANDLERS
// =============================================================================

// ListCustomers returns the employee's customers, sorted by ?sort=
// (recency by default, totalPaid for top payers).
// GET /api/customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.listCustomers(w, r, ledger.SortKey(r.URL.Query().Get("sort")))
}

// ListRecent returns the employee's customers, newest first.
// GET /api/customers/recent
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	h.listCustomers(w, r, ledger.SortRecency)
}

// ListTopPaid returns the employee's customers by lifetime amount paid.
// GET /api/customers/paid
func (h *Handler) ListTopPaid(w http.ResponseWriter, r *http.Request) {
	h.listCustomers(w, r, ledger.SortTotalPaid)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request, sort ledger.SortKey) {
	customers, err := h.Ledger.ListByEmployee(r.Context(), employeeFrom(r.Context()), sort)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTOs(customers))
}

// SearchCustomer finds one customer by id within the employee's scope.
// GET /api/customers/search?customerId=...
func (h *Handler) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "Please provide customerId", nil)
		return
	}

	customer, err := h.Ledger.FindForEmployee(r.Context(), employeeFrom(r.Context()), ledger.CustomerID(customerID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(customer))
}

// =============================================================================
// CUSTOMER SELF-SERVICE HANDLERS
// =============================================================================

// CustomerLogin lets a customer look up their own record with the
// (customer id, email) pair given at registration. Public route, no
// employee session.
// POST /api/customers/login
func (h *Handler) CustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req CustomerLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.Ledger.CustomerLogin(r.Context(), ledger.CustomerID(req.CustomerID), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CustomerLoginResponse{
		Message:  "Login successful",
		Customer: toCustomerDTO(customer),
	})
}

// CustomerDetails returns one customer of the requesting employee,
// cross-checked against the email query parameter.
// GET /api/customers/details/{customerID}?email=...
func (h *Handler) CustomerDetails(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email query param is required", nil)
		return
	}
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	customer, err := h.Ledger.DetailsByEmail(r.Context(), employeeFrom(r.Context()), id, email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CustomerDetailsResponse{Customer: toCustomerDTO(customer)})
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// LoanStatus computes accrued interest and total owed. The lookup is
// global, not employee-scoped.
// GET /api/customers/loan-status/{customerID}
func (h *Handler) LoanStatus(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	st, err := h.Ledger.LoanStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanStatusDTO(st))
}

// ProvideLoan grants a new loan and starts the interest clock.
// PUT /api/customers/provide-loan/{customerID}
func (h *Handler) ProvideLoan(w http.ResponseWriter, r *http.Request) {
	var req ProvideLoanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	st, err := h.Ledger.ProvideLoan(r.Context(), id, decimal.NewFromFloat(*req.LoanAmount))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanStatusDTO(st))
}

// UpdateLoanAmount adjusts the outstanding principal without resetting
// the interest clock.
// PUT /api/customers/update-loan-status/{customerID}
func (h *Handler) UpdateLoanAmount(w http.ResponseWriter, r *http.Request) {
	var req UpdateLoanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	st, err := h.Ledger.UpdateLoanAmount(r.Context(), id, decimal.NewFromFloat(*req.LoanAmount))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Loan status updated",
		"loanStatus": st.Status,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// AdminListCustomers returns every customer across all employees.
// GET /api/admin/customers
func (h *Handler) AdminListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Ledger.AdminList(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTOs(customers))
}

// AdminUpdateCustomer edits identity fields on any customer.
// PUT /api/admin/customers/{customerID}
func (h *Handler) AdminUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := ledger.CustomerID(chi.URLParam(r, "customerID"))

	customer, err := h.Ledger.AdminUpdate(r.Context(), id, ledger.CustomerDetails{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.PhoneNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(customer))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError translates ledger errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Customer not found", nil)
	case errors.Is(err, ledger.ErrNoPendingPayment):
		writeError(w, http.StatusBadRequest, "No pending payment for this customer", nil)
	case errors.Is(err, ledger.ErrDuplicateCustomer):
		writeError(w, http.StatusConflict, "Customer with this email already exists", nil)
	case errors.As(err, &verr):
		fields := make([]FieldErrorDTO, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = FieldErrorDTO{Field: f.Field, Msg: f.Msg}
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", err)
	}
}
