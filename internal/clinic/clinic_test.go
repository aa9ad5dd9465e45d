package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/storage"
)

var fixedNow = time.Date(2030, time.March, 15, 10, 0, 0, 0, time.UTC)

func seededBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := storage.NewCSVBackend(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, b.AppendPractitioner(ctx, directory.Practitioner{Code: "1234", Name: "Ana Souza"}))
	require.NoError(t, b.AppendPatient(ctx, directory.Patient{Code: "12345678901", Name: "Carla Mendes"}))
	return b
}

func load(t *testing.T, b storage.Backend) *Clinic {
	t.Helper()
	c, err := Load(context.Background(), b, WithNow(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func TestLoadAndAuthenticate(t *testing.T) {
	c := load(t, seededBackend(t))

	pr, err := c.Authenticate("1234")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", pr.Name)

	_, err = c.Authenticate("9999")
	assert.True(t, apperr.IsNotFound(err))

	_, err = c.Authenticate("12a4")
	assert.True(t, apperr.IsValidation(err))
}

func TestScheduleSurvivesReload(t *testing.T) {
	b := seededBackend(t)
	c := load(t, b)
	ctx := context.Background()
	pr, err := c.Authenticate("1234")
	require.NoError(t, err)

	created, err := c.Schedule(ctx, pr, "12345678901", "2099-01-10", "09:00")
	require.NoError(t, err)

	key, err := KeyFor(pr, "12345678901", "2099-01-10", "09:00")
	require.NoError(t, err)
	assert.Equal(t, created.Key(), key)

	moved, err := c.Reschedule(ctx, pr, key, "2099-01-11", "10:00")
	require.NoError(t, err)

	reloaded := load(t, b)
	future := reloaded.Query.Future("1234")
	require.Len(t, future, 1)
	assert.Equal(t, moved, future[0])

	_, err = reloaded.Cancel(ctx, pr, moved.Key())
	require.NoError(t, err)
	assert.Empty(t, load(t, b).Query.Future("1234"))
}

func TestScheduleValidation(t *testing.T) {
	c := load(t, seededBackend(t))
	pr := directory.Practitioner{Code: "1234", Name: "Ana Souza"}
	ctx := context.Background()

	_, err := c.Schedule(ctx, pr, "123", "2099-01-10", "09:00")
	assert.True(t, apperr.IsValidation(err))

	_, err = c.Schedule(ctx, pr, "98765432100", "2099-01-10", "09:00")
	assert.ErrorIs(t, err, directory.ErrPatientNotFound)

	_, err = c.Schedule(ctx, pr, "12345678901", "10/01/2099", "09:00")
	assert.True(t, apperr.IsValidation(err))

	_, err = c.Schedule(ctx, pr, "12345678901", "2030-03-14", "09:00")
	assert.ErrorIs(t, err, appointment.ErrPastDate)

	assert.Zero(t, c.Store.Len())
}

func TestRegisteredPatientIsPersisted(t *testing.T) {
	b := seededBackend(t)
	c := load(t, b)

	_, created, err := c.Directory.RegisterPatient(context.Background(), "Daniel Carvalho", "98765432100")
	require.NoError(t, err)
	assert.True(t, created)

	p, err := load(t, b).Directory.FindPatient("98765432100")
	require.NoError(t, err)
	assert.Equal(t, "Daniel Carvalho", p.Name)
}

func TestSharedStoreAcrossClinics(t *testing.T) {
	b := seededBackend(t)
	ctx := context.Background()
	open := func() *Clinic {
		c, err := Load(ctx, b, WithNow(func() time.Time { return fixedNow }), WithSharedStore())
		require.NoError(t, err)
		return c
	}
	first, second := open(), open()
	pr, err := first.Authenticate("1234")
	require.NoError(t, err)

	booked, err := second.Schedule(ctx, pr, "12345678901", "2099-01-10", "09:00")
	require.NoError(t, err)

	_, err = first.Schedule(ctx, pr, "12345678901", "2099-01-10", "09:00")
	assert.ErrorIs(t, err, appointment.ErrSlotConflict)

	_, err = first.Schedule(ctx, pr, "12345678901", "2099-01-11", "10:00")
	require.NoError(t, err)

	require.NoError(t, second.Service.Sync(ctx))
	future := second.Query.Future("1234")
	require.Len(t, future, 2)
	assert.Equal(t, booked, future[0])

	stored, err := b.LoadAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
