package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/response"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// ScheduleService is what the handler needs from the service layer.
type ScheduleService interface {
	PreviewSchedule(ctx context.Context, request *domain.ScheduleRequest) (*domain.Schedule, error)
	CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error)
	GetSchedule(ctx context.Context, loanID string) (*domain.Schedule, error)
	MakePayment(ctx context.Context, loanID string, request *domain.MakePaymentRequest) (*domain.PaymentResponse, error)
	GetPrepayment(ctx context.Context, loanID string, on time.Time) (*domain.Period, error)
}

type ScheduleHandler struct {
	service   ScheduleService
	validator *validator.Validate
}

func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: newValidator(),
	}
}

// newValidator registers the decimal comparisons the request DTOs use.
// Decimals reach the validators as their string form.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("decimal_gt", decimalCompare(func(c int) bool { return c > 0 }))
	_ = v.RegisterValidation("decimal_gte", decimalCompare(func(c int) bool { return c >= 0 }))
	return v
}

func decimalCompare(accept func(int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return accept(value.Cmp(bound))
	}
}

// RegisterRoutes mounts the schedule and loan endpoints on api.
func (h *ScheduleHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/schedules/preview", h.PreviewSchedule).Methods(http.MethodPost)
	api.HandleFunc("/loans", h.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/schedule", h.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", h.MakePayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/prepayment", h.GetPrepayment).Methods(http.MethodGet)
}

func (h *ScheduleHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.FromError(w, customError.WrapValidation(err))
		return false
	}
	return true
}

// PreviewSchedule handles POST /api/v1/schedules/preview
func (h *ScheduleHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req domain.ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	schedule, err := h.service.PreviewSchedule(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

// CreateLoan handles POST /api/v1/loans
func (h *ScheduleHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	schedule, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

// MakePayment handles POST /api/v1/loans/{loanId}/payments
func (h *ScheduleHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var req domain.MakePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.MakePayment(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

// GetPrepayment handles GET /api/v1/loans/{loanId}/prepayment?date=YYYY-MM-DD.
// Without a date the payoff is quoted for today.
func (h *ScheduleHandler) GetPrepayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	on := utils.ToDate(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			response.FromError(w, customError.WrapValidation(err))
			return
		}
		on = parsed
	}

	payoff, err := h.service.GetPrepayment(r.Context(), loanID, on)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payoff)
}
