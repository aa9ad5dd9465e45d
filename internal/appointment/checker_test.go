package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSlot(t *testing.T) {
	today := DateOf(fixedNow)
	booked := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	cancelled := appt(t, "2030-03-20", "10:00", "12345678901", "1234", StatusCancelled)
	otherDoctor := appt(t, "2030-03-20", "11:00", "12345678901", "5678", StatusPending)
	all := []Appointment{booked, cancelled, otherDoctor}
	bookedKey := booked.Key()

	tests := []struct {
		name      string
		date      string
		clock     string
		excluding *Key
		want      Verdict
	}{
		{"free slot", "2030-03-20", "09:30", nil, SlotOK},
		{"pending collision", "2030-03-20", "09:00", nil, SlotConflict},
		{"cancelled slot is free", "2030-03-20", "10:00", nil, SlotOK},
		{"other practitioner's slot is free", "2030-03-20", "11:00", nil, SlotOK},
		{"yesterday", "2030-03-14", "12:00", nil, SlotPastDate},
		{"earlier today still accepted", "2030-03-15", "08:00", nil, SlotOK},
		{"excluding self", "2030-03-20", "09:00", &bookedKey, SlotOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckSlot("1234", mustDate(t, tt.date), mustClock(t, tt.clock), all, tt.excluding, today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckSlotPastDateBeforeConflict(t *testing.T) {
	old := appt(t, "2030-03-01", "09:00", "12345678901", "1234", StatusPending)

	got := CheckSlot("1234", old.Date, old.Time, []Appointment{old}, nil, DateOf(fixedNow))

	assert.Equal(t, SlotPastDate, got)
	assert.ErrorIs(t, got.Err(), ErrPastDate)
	assert.ErrorIs(t, SlotConflict.Err(), ErrSlotConflict)
	assert.NoError(t, SlotOK.Err())
}

func TestCheckSlotExcludesEveryRecordWithTheKey(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", "12345678901", "1234", StatusPending)
	key := a.Key()

	got := CheckSlot("1234", a.Date, a.Time, []Appointment{a, a}, &key, DateOf(fixedNow))

	assert.Equal(t, SlotOK, got)
}
