package calendar

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// CronCalendar is a meeting calendar whose recurrence is a standard five-field
// cron expression, e.g. "0 0 * * MON" for weekly Monday meetings.
type CronCalendar struct {
	start      time.Time
	expression string
	schedule   cron.Schedule
	frequency  domain.FrequencyType
}

var _ domain.RecurringCalendar = (*CronCalendar)(nil)

// NewCronCalendar parses expression. Meetings before start never occur.
func NewCronCalendar(start time.Time, expression string, frequency domain.FrequencyType) (*CronCalendar, error) {
	if err := frequency.Validate(); err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, customError.Upstream("meeting recurrence %q: %v", expression, err)
	}
	return &CronCalendar{
		start:      utils.ToDate(start),
		expression: expression,
		schedule:   schedule,
		frequency:  frequency,
	}, nil
}

// NextOccurrenceOnOrAfter returns the first meeting day on or after date, or the
// zero time when the expression yields no further meetings.
func (c *CronCalendar) NextOccurrenceOnOrAfter(date time.Time) time.Time {
	date = utils.MaxDate(utils.ToDate(date), c.start)
	next := c.schedule.Next(date.Add(-time.Second))
	if next.IsZero() {
		return next
	}
	return utils.ToDate(next)
}

func (c *CronCalendar) Frequency() domain.FrequencyType {
	return c.frequency
}

func (c *CronCalendar) Expression() string {
	return c.expression
}

func (c *CronCalendar) Start() time.Time {
	return c.start
}
