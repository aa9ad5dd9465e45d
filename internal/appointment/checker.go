package appointment

// Verdict is the outcome of a slot check.
type Verdict int

const (
	SlotOK Verdict = iota
	SlotPastDate
	SlotConflict
)

func (v Verdict) String() string {
	switch v {
	case SlotPastDate:
		return "past_date"
	case SlotConflict:
		return "conflict"
	default:
		return "ok"
	}
}

// Err maps a failing verdict to its sentinel error, nil for SlotOK.
func (v Verdict) Err() error {
	switch v {
	case SlotPastDate:
		return ErrPastDate
	case SlotConflict:
		return ErrSlotConflict
	default:
		return nil
	}
}

// CheckSlot decides whether practitionerCode can be booked at date/time.
//
// The past-date check runs first and compares days only, so a slot earlier
// today is still accepted. A conflict is any other PENDING appointment with
// the same practitioner, date and time; excluding, when set, names the
// record being moved by a reschedule. Every record with the excluded key is
// skipped, since records with equal keys are interchangeable.
func CheckSlot(practitionerCode string, date Date, t Clock, all []Appointment, excluding *Key, today Date) Verdict {
	if date.Before(today) {
		return SlotPastDate
	}
	for _, a := range all {
		if excluding != nil && excluding.Matches(a) {
			continue
		}
		if a.Status == StatusPending &&
			a.PractitionerCode == practitionerCode &&
			a.Date == date &&
			a.Time == t {
			return SlotConflict
		}
	}
	return SlotOK
}
