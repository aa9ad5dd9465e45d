package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	displayLayout = "02/01/2006"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

func ParseStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", apperr.Validation("unknown appointment status %q", s)
	}
}

// Date is a calendar day with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts only yyyy-MM-dd.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil || len(s) != len(DateLayout) {
		return Date{}, apperr.Validation("invalid date %q, expected yyyy-MM-dd", s)
	}
	return DateOf(t), nil
}

func (d Date) t() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.t().AddDate(0, 0, n)) }
func (d Date) Before(o Date) bool { return d.t().Before(o.t()) }
func (d Date) After(o Date) bool { return d.t().After(o.t()) }
func (d Date) String() string { return d.t().Format(DateLayout) }
func (d Date) Display() string { return d.t().Format(displayLayout) }
func (d Date) Time() time.Time { return d.t() }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Compare(o Date) int { return d.t().Compare(o.t()) }
func (d Date) Within(from, to Date) bool { return !d.Before(from) && !d.After(to) }

// AddMonths moves n calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return Date{Year: first.Year(), Month: first.Month(), Day: min(d.Day, last)}
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts only HH:mm with a two digit hour.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(TimeLayout, s)
	if err != nil || len(s) != len(TimeLayout) {
		return Clock{}, apperr.Validation("invalid time %q, expected HH:mm", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) Compare(o Clock) int {
	switch {
	case c.minutes() < o.minutes():
		return -1
	case c.minutes() > o.minutes():
		return 1
	default:
		return 0
	}
}

type Appointment struct {
	Date             Date
	Time             Clock
	PatientCode      string
	PractitionerCode string
	Status           AppointmentStatus
}

// Key is the natural identity of an appointment. Two records with equal
// keys are interchangeable; there is no surrogate ID.
type Key struct {
	Date             Date
	Time             Clock
	PatientCode      string
	PractitionerCode string
}

func (a Appointment) Key() Key {
	return Key{
		Date:             a.Date,
		Time:             a.Time,
		PatientCode:      a.PatientCode,
		PractitionerCode: a.PractitionerCode,
	}
}

func (k Key) Matches(a Appointment) bool {
	return k == a.Key()
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s patient=%s practitioner=%s", k.Date, k.Time, k.PatientCode, k.PractitionerCode)
}

// Start returns the scheduled instant in loc.
func (a Appointment) Start(loc *time.Location) time.Time {
	return time.Date(a.Date.Year, a.Date.Month, a.Date.Day, a.Time.Hour, a.Time.Minute, 0, 0, loc)
}

// Occurred reports whether the scheduled date/time is before now.
func (a Appointment) Occurred(now time.Time) bool {
	return a.Start(now.Location()).Before(now)
}

// Done is the read-time completion predicate: stored COMPLETED, or elapsed
// and not cancelled. Nothing writes COMPLETED when time passes.
func (a Appointment) Done(now time.Time) bool {
	if a.Status == StatusCompleted {
		return true
	}
	return a.Status != StatusCancelled && a.Occurred(now)
}

func (a Appointment) FormattedDateTime() string {
	return a.Date.Display() + " " + a.Time.String()
}

func compareSchedule(a, b Appointment) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return a.Time.Compare(b.Time)
}
