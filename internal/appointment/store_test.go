package appointment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReplaceMovesRecordToEnd(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	b := appt(t, "2030-03-21", "09:00", "98765432100", "1234", StatusPending)
	s := NewStore([]Appointment{a, b})

	moved := a
	moved.Time = mustClock(t, "15:00")
	require.True(t, s.Replace(a.Key(), moved))

	assert.Equal(t, []Appointment{b, moved}, s.List())
}

func TestStoreMissingKeyIsNoop(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	ghost := appt(t, "2030-03-20", "09:00", "12345678901", "5678", StatusPending)
	s := NewStore([]Appointment{a})

	assert.False(t, s.Replace(ghost.Key(), ghost))
	assert.False(t, s.SetStatus(ghost.Key(), StatusCancelled))
	assert.Equal(t, []Appointment{a}, s.List())
}

func TestStoreSetStatusFirstMatchOnly(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	s := NewStore([]Appointment{a, a})

	require.True(t, s.SetStatus(a.Key(), StatusCancelled))

	list := s.List()
	assert.Equal(t, StatusCancelled, list[0].Status)
	assert.Equal(t, StatusPending, list[1].Status)
}

func TestStoreListIsSnapshot(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	s := NewStore(nil)
	s.Append(a)

	list := s.List()
	list[0].Status = StatusCancelled

	assert.Equal(t, StatusPending, s.List()[0].Status)
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpdateErrorLeavesNoPartialWrite(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	s := NewStore([]Appointment{a})
	boom := errors.New("boom")

	err := s.Update(func(tx *Tx) error {
		found, ok := tx.Find(a.Key())
		require.True(t, ok)
		assert.Equal(t, a, found)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Len())
}
