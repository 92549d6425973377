package components

import (
	"sort"
	"strings"
	"time"

	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DayPrecision is the number of decimal places kept for fractional days
const DayPrecision = 4

var halfDay = decimal.RequireFromString("0.5")

// Consumption maps a calendar year to the days a request consumes in it
type Consumption map[int]decimal.Decimal

// Total sums the days over all years
func (c Consumption) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range c {
		total = total.Add(d)
	}
	return total
}

// Years returns the years in ascending order. Every ledger walk uses this order.
func (c Consumption) Years() []int {
	years := make([]int, 0, len(c))
	for y := range c {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DurationInput describes the absence to measure
type DurationInput struct {
	Start          time.Time
	End            time.Time
	Mode           shared.DurationMode
	StartTime      *string // HH:MM
	EndTime        *string // HH:MM
	CountsWeekends bool
}

// DurationCalculator converts a requested range into days consumed per year
type DurationCalculator struct {
	workdayHours int
}

func NewDurationCalculator(workdayHours int) *DurationCalculator {
	if workdayHours <= 0 {
		workdayHours = 8
	}
	return &DurationCalculator{workdayHours: workdayHours}
}

// ComputeConsumption returns the days consumed per calendar year. Range errors are
// InvalidRangeError; mode constraint violations are InvalidDurationError.
func (c *DurationCalculator) ComputeConsumption(in DurationInput) (Consumption, error) {
	start, end := DateOnly(in.Start), DateOnly(in.End)
	if end.Before(start) {
		return nil, shared.InvalidRangeError{Message: "La date de fin doit être après la date de début"}
	}

	var consumption Consumption
	switch in.Mode {
	case shared.DurationHalfDayMorning, shared.DurationHalfDayAfternoon:
		if !start.Equal(end) {
			return nil, shared.InvalidDurationError{Message: "Un congé demi-journée doit être sur une seule journée"}
		}
		consumption = Consumption{start.Year(): halfDay}

	case shared.DurationHourly:
		if !start.Equal(end) {
			return nil, shared.InvalidDurationError{Message: "Un congé horaire doit être sur une seule journée"}
		}
		days, err := c.hourlyDays(in.StartTime, in.EndTime)
		if err != nil {
			return nil, err
		}
		consumption = Consumption{start.Year(): days}

	case shared.DurationFullDay:
		consumption = workingDays(start, end, in.CountsWeekends)

	default:
		return nil, shared.InvalidDurationError{Message: "Type de durée inconnu: " + string(in.Mode)}
	}

	if !consumption.Total().IsPositive() {
		return nil, shared.InvalidDurationError{Message: "La durée du congé doit être supérieure à zéro"}
	}
	return consumption, nil
}

func (c *DurationCalculator) hourlyDays(startTime, endTime *string) (decimal.Decimal, error) {
	if startTime == nil || endTime == nil || strings.TrimSpace(*startTime) == "" || strings.TrimSpace(*endTime) == "" {
		return decimal.Zero, shared.InvalidDurationError{Message: "Les heures de début et fin sont obligatoires pour un congé horaire"}
	}
	from, err := ParseClock(*startTime)
	if err != nil {
		return decimal.Zero, shared.InvalidDurationError{Message: "Heure de début invalide: " + *startTime}
	}
	to, err := ParseClock(*endTime)
	if err != nil {
		return decimal.Zero, shared.InvalidDurationError{Message: "Heure de fin invalide: " + *endTime}
	}
	if !from.Before(to) {
		return decimal.Zero, shared.InvalidDurationError{Message: "L'heure de début doit être avant l'heure de fin"}
	}

	minutes := int64(to.Sub(from) / time.Minute)
	perDay := int64(c.workdayHours) * 60
	return decimal.NewFromInt(minutes).DivRound(decimal.NewFromInt(perDay), DayPrecision), nil
}

func workingDays(start, end time.Time, countsWeekends bool) Consumption {
	consumption := Consumption{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !countsWeekends && isWeekend(day) {
			continue
		}
		consumption[day.Year()] = consumption[day.Year()].Add(decimal.NewFromInt(1))
	}
	return consumption
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DateOnly strips the clock and location, keeping the calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseClock parses HH:MM or HH:MM:SS
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("15:04", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}
