package appointment

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

// Range is a closed interval of days. An inverted range simply matches
// nothing.
type Range struct {
	Start Date
	End   Date
}

// HistoryShorthands are the supported relative windows, in days.
var HistoryShorthands = []int{7, 30, 90, 180}

// LastDays returns [today-n, today].
func LastDays(today Date, n int) Range {
	return Range{Start: today.AddDays(-n), End: today}
}

func Between(start, end Date) Range {
	return Range{Start: start, End: end}
}

// ParseRange reads a shorthand such as "7d" or "180d".
func ParseRange(s string, today Date) (Range, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || !strings.HasSuffix(s, "d") || !slices.Contains(HistoryShorthands, n) {
		return Range{}, apperr.Validation("unsupported range %q, expected one of 7d, 30d, 90d, 180d", s)
	}
	return LastDays(today, n), nil
}

func (r Range) Contains(d Date) bool {
	return d.Within(r.Start, r.End)
}

type WindowKind int

const (
	WindowWeek WindowKind = iota + 1
	WindowMonth
	WindowPatient
)

// Window selects the appointments offered for rescheduling.
type Window struct {
	Kind        WindowKind
	PatientCode string
}

func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "":
		return Window{Kind: WindowWeek}, nil
	case "month":
		return Window{Kind: WindowMonth}, nil
	default:
		return Window{}, apperr.Validation("unsupported window %q, expected week or month", s)
	}
}

// Query is the read-only view over the store.
type Query struct {
	store *Store
	now   func() time.Time
}

func NewQuery(store *Store, now func() time.Time) *Query {
	if now == nil {
		now = time.Now
	}
	return &Query{store: store, now: now}
}

func (q *Query) Today() Date {
	return DateOf(q.now())
}

// Future lists the practitioner's PENDING appointments, earliest first.
func (q *Query) Future(practitionerCode string) []Appointment {
	out := q.filter(func(a Appointment) bool {
		return a.PractitionerCode == practitionerCode && a.Status == StatusPending
	})
	slices.SortStableFunc(out, compareSchedule)
	return out
}

// History lists appointments that took place within r, most recent first.
// Elapsed PENDING records count as completed.
func (q *Query) History(practitionerCode string, r Range) []Appointment {
	now := q.now()
	out := q.filter(func(a Appointment) bool {
		return a.PractitionerCode == practitionerCode && a.Done(now) && r.Contains(a.Date)
	})
	slices.SortStableFunc(out, func(a, b Appointment) int { return compareSchedule(b, a) })
	return out
}

// Upcoming lists PENDING appointments eligible for rescheduling, earliest
// first: within a week or a month from today, or every PENDING record for
// one patient.
func (q *Query) Upcoming(practitionerCode string, w Window) []Appointment {
	today := q.Today()
	var match func(Appointment) bool
	switch w.Kind {
	case WindowWeek:
		r := Between(today, today.AddDays(7))
		match = func(a Appointment) bool { return r.Contains(a.Date) }
	case WindowMonth:
		r := Between(today, today.AddMonths(1))
		match = func(a Appointment) bool { return r.Contains(a.Date) }
	case WindowPatient:
		match = func(a Appointment) bool { return a.PatientCode == w.PatientCode }
	default:
		return []Appointment{}
	}

	out := q.filter(func(a Appointment) bool {
		return a.PractitionerCode == practitionerCode && a.Status == StatusPending && match(a)
	})
	slices.SortStableFunc(out, compareSchedule)
	return out
}

func (q *Query) filter(keep func(Appointment) bool) []Appointment {
	out := []Appointment{}
	for _, a := range q.store.List() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// FormatLines renders one display line per appointment. names maps patient
// codes to display names.
func FormatLines(appts []Appointment, names map[string]string) []string {
	lines := make([]string, 0, len(appts))
	for _, a := range appts {
		name, ok := names[a.PatientCode]
		if !ok {
			name = "(patient not found)"
		}
		lines = append(lines, fmt.Sprintf("%s - Patient: %s (code: %s)",
			a.FormattedDateTime(), name, directory.FormatPatientCode(a.PatientCode)))
	}
	return lines
}
