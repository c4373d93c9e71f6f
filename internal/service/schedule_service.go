package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/amortization"
	"github.com/segyhp/amortization-engine/internal/cache"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/daycount"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

type ScheduleService struct {
	LoanRepo        repository.LoanRepository
	TransactionRepo repository.TransactionRepository
	HolidayRepo     repository.HolidayRepository
	cache           cache.ScheduleCache
	engine          *amortization.Engine
	config          *config.Config
	logger          *zap.Logger
	now             func() time.Time
}

func NewScheduleService(
	loanRepo repository.LoanRepository,
	transactionRepo repository.TransactionRepository,
	holidayRepo repository.HolidayRepository,
	scheduleCache cache.ScheduleCache,
	config *config.Config,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		LoanRepo:        loanRepo,
		TransactionRepo: transactionRepo,
		HolidayRepo:     holidayRepo,
		cache:           scheduleCache,
		engine:          amortization.NewEngine(logger),
		config:          config,
		logger:          logger,
		now:             time.Now,
	}
}

// loanState is a persisted loan with everything needed to rerun the engine on it.
type loanState struct {
	loan         *domain.Loan
	terms        *domain.LoanApplicationTerms
	charges      []domain.Charge
	schedule     *domain.Schedule
	transactions []domain.Transaction
}

// PreviewSchedule generates a schedule without persisting anything.
func (s *ScheduleService) PreviewSchedule(ctx context.Context, request *domain.ScheduleRequest) (*domain.Schedule, error) {
	terms, charges, err := s.buildTerms(request)
	if err != nil {
		return nil, err
	}
	detail, err := s.holidayDetail(ctx, terms)
	if err != nil {
		return nil, err
	}
	return s.engine.Generate(terms, charges, detail)
}

// CreateLoan generates the schedule for a new loan and stores both.
func (s *ScheduleService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	log := s.logger.With(zap.String("op", "service.CreateLoan"), zap.String("loan_id", request.LoanID))

	// Check if loan already exists
	existing, err := s.LoanRepo.GetByLoanID(ctx, request.LoanID)
	if err == nil && existing != nil {
		return nil, customError.WrapLoanAlreadyExists(request.LoanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	schedule, err := s.PreviewSchedule(ctx, &request.ScheduleRequest)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(request.ScheduleRequest)
	if err != nil {
		return nil, err
	}
	now := s.now()
	loan := &domain.Loan{
		ID:        uuid.New(),
		LoanID:    request.LoanID,
		Currency:  schedule.Currency.Code,
		Principal: schedule.TotalPrincipal.Amount(),
		Request:   raw,
		Status:    domain.LoanStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rows := toRows(loan.LoanID, schedule, amortization.ProcessResult{}, now)
	if err := s.LoanRepo.Create(ctx, loan, rows); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheSchedule(ctx, loan.LoanID, schedule)
	log.Info("loan created", zap.Int("periods", len(schedule.Periods)), zap.String("total_repayment", schedule.TotalRepayment.String()))

	return &domain.CreateLoanResponse{Loan: loan, Schedule: schedule}, nil
}

// GetSchedule returns a loan's current schedule, from the cache when possible.
func (s *ScheduleService) GetSchedule(ctx context.Context, loanID string) (*domain.Schedule, error) {
	log := s.logger.With(zap.String("op", "service.GetSchedule"), zap.String("loan_id", loanID))

	cached, err := s.cache.Get(ctx, loanID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("schedule cache read failed", zap.Error(err))
	}

	state, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	s.cacheSchedule(ctx, loanID, state.schedule)
	return state.schedule, nil
}

// MakePayment records a repayment or interest waiver and brings the schedule up
// to date with it. Loans with interest recalculation are rescheduled from the
// day after the payment; others only have their row statuses refreshed.
func (s *ScheduleService) MakePayment(ctx context.Context, loanID string, request *domain.MakePaymentRequest) (*domain.PaymentResponse, error) {
	log := s.logger.With(zap.String("op", "service.MakePayment"), zap.String("loan_id", loanID))

	state, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if state.loan.Status == domain.LoanStatusClosed {
		return nil, customError.WrapLoanAlreadyClosed(loanID)
	}
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}
	date, err := utils.ParseDate(request.Date)
	if err != nil {
		return nil, customError.WrapValidation(fmt.Errorf("date: %w", err))
	}
	if date.Before(state.terms.ExpectedDisbursementDate) {
		return nil, customError.WrapValidation(fmt.Errorf("payment date %s is before disbursement", request.Date))
	}

	txType := domain.TransactionRepayment
	if request.Type != "" {
		txType = domain.TransactionType(request.Type)
	}
	record := &domain.LoanTransaction{
		ID:              uuid.New(),
		LoanID:          loanID,
		Type:            string(txType),
		Amount:          request.Amount,
		TransactionDate: date,
		CreatedAt:       s.now(),
	}
	transactions := make([]domain.Transaction, 0, len(state.transactions)+1)
	transactions = append(transactions, state.transactions...)
	transactions = append(transactions, toTransactions([]*domain.LoanTransaction{record}, state.schedule.Currency)...)

	// Run the processor first so a bad transaction is rejected before it is stored
	processor := amortization.NewDefaultProcessor()
	processed, err := processor.Process(state.schedule.Periods, transactions)
	if err != nil {
		return nil, err
	}

	schedule := state.schedule
	if state.terms.InterestRecalculationEnabled {
		detail, err := s.holidayDetail(ctx, state.terms)
		if err != nil {
			return nil, err
		}
		schedule, err = s.engine.Reschedule(state.terms, state.charges, transactions, processor, state.schedule.Periods, date.AddDate(0, 0, 1), detail)
		if err != nil {
			return nil, err
		}
		if processed, err = processor.Process(schedule.Periods, transactions); err != nil {
			return nil, err
		}
	}

	if err := s.TransactionRepo.Create(ctx, record); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	rows := toRows(loanID, schedule, processed, s.now())
	if err := s.LoanRepo.ReplaceSchedule(ctx, loanID, rows); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if allPaid(rows) {
		if err := s.LoanRepo.UpdateStatus(ctx, loanID, domain.LoanStatusClosed); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		log.Info("loan closed")
	}

	s.cacheSchedule(ctx, loanID, schedule)
	log.Info("payment recorded",
		zap.String("type", record.Type),
		zap.String("amount", record.Amount.String()),
		zap.String("excess", processed.Excess.String()),
	)

	return &domain.PaymentResponse{Transaction: record, Schedule: schedule}, nil
}

// GetPrepayment returns the amount that closes the loan on the given date.
func (s *ScheduleService) GetPrepayment(ctx context.Context, loanID string, on time.Time) (*domain.Period, error) {
	state, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if state.loan.Status == domain.LoanStatusClosed {
		return nil, customError.WrapLoanAlreadyClosed(loanID)
	}
	period, err := s.engine.CalculatePrepaymentAmount(state.terms, state.schedule, state.transactions, nil, utils.ToDate(on))
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// RecalculateInterest reschedules every active loan with interest recalculation
// enabled from asOf and returns how many were updated. A loan that fails is
// logged and skipped; the failures are returned together.
func (s *ScheduleService) RecalculateInterest(ctx context.Context, asOf time.Time) (int, error) {
	log := s.logger.With(zap.String("op", "service.RecalculateInterest"), zap.String("as_of", utils.FormatDate(asOf)))

	loans, err := s.LoanRepo.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	var (
		updated int
		errs    []error
	)
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		ok, err := s.recalculate(ctx, loan, utils.ToDate(asOf))
		if err != nil {
			log.Error("recalculation failed", zap.String("loan_id", loan.LoanID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", loan.LoanID, err))
			continue
		}
		if ok {
			updated++
		}
	}

	log.Info("interest recalculation finished", zap.Int("loans", len(loans)), zap.Int("updated", updated))
	return updated, errors.Join(errs...)
}

func (s *ScheduleService) recalculate(ctx context.Context, loan *domain.Loan, asOf time.Time) (bool, error) {
	state, err := s.stateFor(ctx, loan)
	if err != nil {
		return false, err
	}
	if !state.terms.InterestRecalculationEnabled {
		return false, nil
	}
	detail, err := s.holidayDetail(ctx, state.terms)
	if err != nil {
		return false, err
	}
	processor := amortization.NewDefaultProcessor()
	schedule, err := s.engine.Reschedule(state.terms, state.charges, state.transactions, processor, state.schedule.Periods, asOf, detail)
	if err != nil {
		return false, err
	}
	processed, err := processor.Process(schedule.Periods, state.transactions)
	if err != nil {
		return false, err
	}
	if err := s.LoanRepo.ReplaceSchedule(ctx, loan.LoanID, toRows(loan.LoanID, schedule, processed, s.now())); err != nil {
		return false, customError.WrapDatabaseError(err)
	}
	if err := s.cache.Delete(ctx, loan.LoanID); err != nil {
		s.logger.Warn("schedule cache delete failed", zap.String("loan_id", loan.LoanID), zap.Error(err))
	}
	return true, nil
}

func (s *ScheduleService) load(ctx context.Context, loanID string) (*loanState, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return s.stateFor(ctx, loan)
}

func (s *ScheduleService) stateFor(ctx context.Context, loan *domain.Loan) (*loanState, error) {
	var request domain.ScheduleRequest
	if err := json.Unmarshal(loan.Request, &request); err != nil {
		return nil, customError.Upstream("stored request for loan %s: %v", loan.LoanID, err)
	}
	terms, charges, err := s.buildTerms(&request)
	if err != nil {
		return nil, err
	}

	rows, err := s.LoanRepo.GetScheduleByLoanID(ctx, loan.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	schedule, err := toSchedule(rows, terms.Currency)
	if err != nil {
		return nil, err
	}

	records, err := s.TransactionRepo.GetByLoanID(ctx, loan.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &loanState{
		loan:         loan,
		terms:        terms,
		charges:      charges,
		schedule:     schedule,
		transactions: toTransactions(records, terms.Currency),
	}, nil
}

// holidayDetail collects the working days and the holidays that can touch the
// loan's due dates.
func (s *ScheduleService) holidayDetail(ctx context.Context, terms *domain.LoanApplicationTerms) (domain.HolidayDetail, error) {
	workingDays, err := s.config.WorkingDays()
	if err != nil {
		return domain.HolidayDetail{}, err
	}
	detail := domain.HolidayDetail{
		HolidaysEnabled: s.config.Business.HolidaysEnabled,
		WorkingDays:     workingDays,
	}
	if !detail.HolidaysEnabled {
		return detail, nil
	}

	from := terms.ExpectedDisbursementDate
	periods := terms.RepaymentEvery * (terms.ActualNumberOfRepayments() + 1)
	to, err := daycount.AddPeriods(terms.SeedDate(), terms.RepaymentFrequencyType, periods)
	if err != nil {
		return domain.HolidayDetail{}, err
	}
	// Leave room for rescheduled dates landing past the nominal term
	to = to.AddDate(1, 0, 0)

	holidays, err := s.HolidayRepo.ListActive(ctx, from, to)
	if err != nil {
		return domain.HolidayDetail{}, customError.WrapDatabaseError(err)
	}
	detail.Holidays = holidays
	return detail, nil
}

func (s *ScheduleService) cacheSchedule(ctx context.Context, loanID string, schedule *domain.Schedule) {
	if err := s.cache.Set(ctx, loanID, schedule); err != nil {
		s.logger.Warn("schedule cache write failed", zap.String("loan_id", loanID), zap.Error(customError.WrapCacheError(err)))
	}
}

func allPaid(rows []*domain.LoanSchedule) bool {
	for _, row := range rows {
		if row.Status != domain.ScheduleStatusPaid {
			return false
		}
	}
	return len(rows) > 0
}
