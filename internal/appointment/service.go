package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	OpCreate     = "create"
	OpReschedule = "reschedule"
	OpCancel     = "cancel"
)

var ErrCalendarBusy = apperr.New(apperr.KindConflict, "practitioner calendar is being modified, please retry")

type Service struct {
	store   *Store
	persist Persister
	locker  redisclient.Locker
	lockKey func(practitionerCode string) string
	loader  Loader
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics

	// writeMu makes check, mutation and durable write one step, so a full
	// rewrite never carries a snapshot older than another write.
	writeMu sync.Mutex
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSharedStore is for processes that share one durable store. Writes
// take a single store-wide lock and reload the collection from l before
// checking, so bookings made by other processes are seen and never
// overwritten.
func WithSharedStore(l Loader) Option {
	return func(s *Service) {
		s.loader = l
		s.lockKey = func(string) string { return redisclient.StoreKey }
	}
}

func NewService(store *Store, persist Persister, locker redisclient.Locker, opts ...Option) *Service {
	s := &Service{
		store:   store,
		persist: persist,
		locker:  locker,
		lockKey: redisclient.PractitionerKey,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.SetAppointments(store.Len())
	return s
}

func (s *Service) today() Date {
	return DateOf(s.now())
}

// exclusive runs fn as the only writer of the appointment collection.
func (s *Service) exclusive(ctx context.Context, practitionerCode string, fn func(ctx context.Context) error) error {
	return s.locker.WithLock(ctx, s.lockKey(practitionerCode), func(lockCtx context.Context) error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		if err := s.reload(lockCtx); err != nil {
			return err
		}
		return fn(lockCtx)
	})
}

// Sync refreshes the in-memory collection from the shared store. It is a
// no-op unless the service was built WithSharedStore.
func (s *Service) Sync(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	appts, err := s.loader.LoadAppointments(ctx)
	if err != nil {
		return fmt.Errorf("reload appointments: %w", err)
	}
	return s.store.Update(func(tx *Tx) error {
		tx.Reset(appts)
		return nil
	})
}

// CreateAppointment books patient with practitioner at date/time. The slot
// check, the in-memory append and the durable append run as one exclusive
// write. A durable failure returns the created appointment
// together with a persistence error.
func (s *Service) CreateAppointment(ctx context.Context, pr directory.Practitioner, pt directory.Patient, date Date, t Clock) (Appointment, error) {
	var created Appointment

	err := s.exclusive(ctx, pr.Code, func(lockCtx context.Context) error {
		err := s.store.Update(func(tx *Tx) error {
			if v := CheckSlot(pr.Code, date, t, tx.List(), nil, s.today()); v != SlotOK {
				return v.Err()
			}
			created = Appointment{
				Date:             date,
				Time:             t,
				PatientCode:      pt.Code,
				PractitionerCode: pr.Code,
				Status:           StatusPending,
			}
			tx.Append(created)
			return nil
		})
		if err != nil {
			return err
		}

		started := time.Now()
		err = s.persist.AppendAppointment(lockCtx, created)
		s.metrics.ObserveStoreWrite("append", started, err)
		if err != nil {
			return apperr.Persistence("append appointment", err)
		}
		return nil
	})

	err = s.finish(OpCreate, Key{Date: date, Time: t, PatientCode: pt.Code, PractitionerCode: pr.Code}, err)
	if err != nil && !apperr.IsPersistence(err) {
		return Appointment{}, err
	}
	return created, err
}

// RescheduleAppointment moves the PENDING appointment identified by existing
// to date/time. The old record is removed and a new PENDING record appended;
// the whole collection is then rewritten durably.
func (s *Service) RescheduleAppointment(ctx context.Context, existing Key, date Date, t Clock) (Appointment, error) {
	var (
		moved    Appointment
		snapshot []Appointment
	)

	err := s.exclusive(ctx, existing.PractitionerCode, func(lockCtx context.Context) error {
		err := s.store.Update(func(tx *Tx) error {
			cur, ok := tx.Find(existing)
			if !ok {
				return ErrAppointmentNotFound
			}
			if cur.Status != StatusPending {
				return ErrInvalidStatusTransition
			}
			if v := CheckSlot(cur.PractitionerCode, date, t, tx.List(), &existing, s.today()); v != SlotOK {
				return v.Err()
			}

			moved = Appointment{
				Date:             date,
				Time:             t,
				PatientCode:      cur.PatientCode,
				PractitionerCode: cur.PractitionerCode,
				Status:           StatusPending,
			}
			if !tx.Replace(existing, moved) {
				return ErrAppointmentNotFound
			}
			snapshot = tx.List()
			return nil
		})
		if err != nil {
			return err
		}
		return s.overwrite(lockCtx, snapshot)
	})

	err = s.finish(OpReschedule, existing, err)
	if err != nil && !apperr.IsPersistence(err) {
		return Appointment{}, err
	}
	return moved, err
}

// CancelAppointment marks the first record matching existing as CANCELLED.
// A missing record is reported as ErrAppointmentNotFound.
func (s *Service) CancelAppointment(ctx context.Context, existing Key) (Appointment, error) {
	var (
		cancelled Appointment
		snapshot  []Appointment
	)

	err := s.exclusive(ctx, existing.PractitionerCode, func(lockCtx context.Context) error {
		err := s.store.Update(func(tx *Tx) error {
			cur, ok := tx.Find(existing)
			if !ok {
				return ErrAppointmentNotFound
			}
			if cur.Status != StatusPending {
				return ErrInvalidStatusTransition
			}
			tx.SetStatus(existing, StatusCancelled)
			cancelled = cur
			cancelled.Status = StatusCancelled
			snapshot = tx.List()
			return nil
		})
		if err != nil {
			return err
		}
		return s.overwrite(lockCtx, snapshot)
	})

	err = s.finish(OpCancel, existing, err)
	if err != nil && !apperr.IsPersistence(err) {
		return Appointment{}, err
	}
	return cancelled, err
}

func (s *Service) overwrite(ctx context.Context, snapshot []Appointment) error {
	started := time.Now()
	err := s.persist.OverwriteAppointments(ctx, snapshot)
	s.metrics.ObserveStoreWrite("overwrite", started, err)
	if err != nil {
		return apperr.Persistence("overwrite appointments", err)
	}
	return nil
}

// finish normalizes lock errors, records the outcome and logs it.
func (s *Service) finish(op string, key Key, err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		err = ErrCalendarBusy
	}

	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	s.metrics.ObserveOperation(op, outcome)
	s.metrics.SetAppointments(s.store.Len())

	ev := s.log.Info()
	switch {
	case err == nil:
	case apperr.IsPersistence(err), apperr.KindOf(err) == apperr.KindInternal:
		ev = s.log.Error().Err(err)
	default:
		ev = s.log.Warn().Err(err)
	}
	ev.Str("op", op).
		Str("practitioner", key.PractitionerCode).
		Str("patient", key.PatientCode).
		Str("date", key.Date.String()).
		Str("time", key.Time.String()).
		Str("outcome", outcome).
		Msg("scheduling operation")

	return err
}
