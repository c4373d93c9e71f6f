package amortization

import (
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// applyCharges attaches charges to repayment periods numbered fromPeriod or later
// and disbursement charges to the first disbursement row.
func applyCharges(s *domain.Schedule, charges []domain.Charge, fromPeriod int) error {
	for _, charge := range charges {
		switch charge.TimeType {
		case domain.ChargeAtDisbursement:
			if len(s.Disbursements) == 0 {
				return customError.Invariant("disbursement charge %q without a disbursement", charge.Name)
			}
			if err := s.Disbursements[0].AddCharge(charge.Amount, charge.Penalty); err != nil {
				return err
			}
		case domain.ChargePerInstallment:
			for _, p := range s.Periods {
				if p.PeriodNumber < fromPeriod {
					continue
				}
				if err := s.AddCharge(p.PeriodNumber, charge.Amount, charge.Penalty); err != nil {
					return err
				}
			}
		case domain.ChargeOnSpecifiedDueDate:
			number, err := periodContaining(s, charge)
			if err != nil {
				return err
			}
			if number < fromPeriod {
				continue
			}
			if err := s.AddCharge(number, charge.Amount, charge.Penalty); err != nil {
				return err
			}
		default:
			return customError.Unsupported("charge time type %q", string(charge.TimeType))
		}
	}
	return nil
}

// periodContaining finds the period whose (from, due] holds the charge's due date.
// The first period also holds its from date.
func periodContaining(s *domain.Schedule, charge domain.Charge) (int, error) {
	date := utils.ToDate(charge.DueDate)
	for i, p := range s.Periods {
		if date.After(p.DueDate) {
			continue
		}
		if date.After(p.FromDate) || (i == 0 && date.Equal(p.FromDate)) {
			return p.PeriodNumber, nil
		}
		break
	}
	return 0, customError.Upstream("charge %q due %s falls outside the schedule", charge.Name, utils.FormatDate(date))
}
