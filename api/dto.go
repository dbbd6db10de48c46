/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags. validate.go runs the
  schema and translates failures into field-level error responses before
  a handler ever touches the domain. Quantity fields are pointers so
  "absent" and "zero" stay distinguishable: hen/cattle/sheep are
  required, neem defaults to 0.

JSON FIELD NAMES:
  camelCase, matching the cooperative's existing frontend.
*/
package api

import (
	"time"

	"github.com/gowri/coop-ledger/auth"
	"github.com/gowri/coop-ledger/ledger"
)

// =============================================================================
// AUTH
// =============================================================================

type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccountDTO struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

func toAccountDTO(a *auth.Account) AccountDTO {
	return AccountDTO{ID: a.ID, FullName: a.FullName, Email: a.Email, IsAdmin: a.IsAdmin}
}

// =============================================================================
// DEPOSITS
// =============================================================================

type AddDepositRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	PhoneNumber    string   `json:"phoneNumber" validate:"required"`
	HenWaste       *float64 `json:"henwaste" validate:"required,gte=0"`
	CattleWaste    *float64 `json:"cattlewaste" validate:"required,gte=0"`
	SheepWaste     *float64 `json:"sheepwaste" validate:"required,gte=0"`
	NeemPlantation *float64 `json:"neemPlantation" validate:"omitempty,gte=0"`
}

func (r AddDepositRequest) toDomain() ledger.DepositRequest {
	neem := 0.0
	if r.NeemPlantation != nil {
		neem = *r.NeemPlantation
	}
	return ledger.DepositRequest{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.PhoneNumber,
		Quantities: ledger.NewWasteQuantities(*r.HenWaste, *r.CattleWaste, *r.SheepWaste, neem),
	}
}

// =============================================================================
// LOANS
// =============================================================================

// UpdateLoanRequest deliberately has no gte tag: negative amounts flow
// through to the domain, which rejects them without mutating the record.
type UpdateLoanRequest struct {
	LoanAmount *float64 `json:"loanAmount" validate:"required"`
}

type ProvideLoanRequest struct {
	LoanAmount *float64 `json:"loanAmount" validate:"required,gt=0"`
}

type LoanStatusDTO struct {
	LoanStatus      string  `json:"loanStatus"`
	LoanProvided    float64 `json:"loanProvided"`
	AccruedInterest float64 `json:"accruedInterest"`
	TotalOwed       float64 `json:"totalOwed"`
	MonthsPassed    int     `json:"monthsPassed"`
}

func toLoanStatusDTO(st *ledger.LoanStatement) LoanStatusDTO {
	principal, _ := st.Principal.Float64()
	interest, _ := st.AccruedInterest.Float64()
	owed, _ := st.TotalOwed.Float64()
	return LoanStatusDTO{
		LoanStatus:      st.Status,
		LoanProvided:    principal,
		AccruedInterest: interest,
		TotalOwed:       owed,
		MonthsPassed:    st.MonthsPassed,
	}
}

// =============================================================================
// CUSTOMER SELF-SERVICE
// =============================================================================

type CustomerLoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	CustomerID string `json:"customerId" validate:"required"`
}

type CustomerLoginResponse struct {
	Message  string      `json:"message"`
	Customer CustomerDTO `json:"customer"`
}

type CustomerDetailsResponse struct {
	Customer CustomerDTO `json:"customer"`
}

// =============================================================================
// ADMIN
// =============================================================================

type AdminUpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// =============================================================================
// CUSTOMERS
// =============================================================================

type WasteRecordDTO struct {
	HenWaste       float64 `json:"henwaste"`
	CattleWaste    float64 `json:"cattlewaste"`
	SheepWaste     float64 `json:"sheepwaste"`
	NeemPlantation float64 `json:"neemPlantation"`
	DateAdded      string  `json:"dateAdded"`
}

type PaymentDTO struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type CustomerDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`

	HenWaste       float64 `json:"henwaste"`
	CattleWaste    float64 `json:"cattlewaste"`
	SheepWaste     float64 `json:"sheepwaste"`
	NeemPlantation float64 `json:"neemPlantation"`

	WasteRecords []WasteRecordDTO `json:"wasteRecords"`

	PendingPayment       bool    `json:"pendingPayment"`
	PendingPaymentAmount float64 `json:"pendingPaymentAmount"`

	TotalPaid       []PaymentDTO `json:"totalPaid"`
	TotalAmountPaid float64      `json:"totalAmountPaid"`

	LoanProvided     float64 `json:"loanProvided"`
	LoanApprovedDate string  `json:"loanApprovedDate,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toCustomerDTO(c *ledger.Customer) CustomerDTO {
	hen, _ := c.Totals.Hen.Float64()
	cattle, _ := c.Totals.Cattle.Float64()
	sheep, _ := c.Totals.Sheep.Float64()
	neem, _ := c.Totals.Neem.Float64()
	pendingAmt, _ := c.PendingPaymentAmount.Float64()
	totalPaid, _ := c.TotalAmountPaid.Float64()
	loan, _ := c.LoanProvided.Float64()

	records := make([]WasteRecordDTO, len(c.WasteRecords))
	for i, rec := range c.WasteRecords {
		h, _ := rec.Quantities.Hen.Float64()
		ca, _ := rec.Quantities.Cattle.Float64()
		sh, _ := rec.Quantities.Sheep.Float64()
		ne, _ := rec.Quantities.Neem.Float64()
		records[i] = WasteRecordDTO{
			HenWaste:       h,
			CattleWaste:    ca,
			SheepWaste:     sh,
			NeemPlantation: ne,
			DateAdded:      rec.AddedAt.Format(time.RFC3339),
		}
	}

	payments := make([]PaymentDTO, len(c.TotalPaid))
	for i, p := range c.TotalPaid {
		amt, _ := p.Amount.Float64()
		payments[i] = PaymentDTO{Date: p.Date.Format(time.RFC3339), Amount: amt}
	}

	dto := CustomerDTO{
		ID:                   string(c.ID),
		EmployeeID:           string(c.EmployeeID),
		Name:                 c.Name,
		Email:                c.Email,
		PhoneNumber:          c.Phone,
		HenWaste:             hen,
		CattleWaste:          cattle,
		SheepWaste:           sheep,
		NeemPlantation:       neem,
		WasteRecords:         records,
		PendingPayment:       c.PendingPayment,
		PendingPaymentAmount: pendingAmt,
		TotalPaid:            payments,
		TotalAmountPaid:      totalPaid,
		LoanProvided:         loan,
		CreatedAt:            c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LoanApprovedDate != nil {
		dto.LoanApprovedDate = c.LoanApprovedDate.Format(time.RFC3339)
	}
	return dto
}

func toCustomerDTOs(customers []ledger.Customer) []CustomerDTO {
	dtos := make([]CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}
	return dtos
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Fields  []FieldErrorDTO `json:"fields,omitempty"`
}

type FieldErrorDTO struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}
