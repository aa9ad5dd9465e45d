package appointment

import (
	"context"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrAppointmentNotFound     = apperr.New(apperr.KindNotFound, "appointment not found")
	ErrSlotConflict            = apperr.New(apperr.KindConflict, "practitioner already has a pending appointment at this date and time")
	ErrPastDate                = apperr.New(apperr.KindPastDate, "appointment date must not be in the past")
	ErrInvalidStatusTransition = apperr.New(apperr.KindInvalidState, "invalid status transition")
)

// Persister is the durable appointment store the service signals after an
// in-memory change. Create appends one record; reschedule and cancel
// rewrite the whole collection.
type Persister interface {
	AppendAppointment(ctx context.Context, a Appointment) error
	OverwriteAppointments(ctx context.Context, all []Appointment) error
}

// Loader reads the durable appointment collection back, in stored order.
type Loader interface {
	LoadAppointments(ctx context.Context) ([]Appointment, error)
}
