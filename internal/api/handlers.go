package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/pagination"
)

type Handlers struct {
	clinic   *clinic.Clinic
	pageSize int
}

func NewHandlers(c *clinic.Clinic, pageSize int) *Handlers {
	return &Handlers{clinic: c, pageSize: pageSize}
}

func (h *Handlers) listPatients(w http.ResponseWriter, r *http.Request) {
	matches := h.clinic.Directory.SearchPatients(r.URL.Query().Get("name"))
	out := make([]PatientResponse, 0, len(matches))
	for _, p := range matches {
		out = append(out, toPatientResponse(p))
	}
	writePage(w, r, h.pageSize, out)
}

func (h *Handlers) getPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.clinic.Directory.FindPatient(chi.URLParam(r, "code"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handlers) createPatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if !decode(w, r, &req) {
		return
	}

	p, created, err := h.clinic.Directory.RegisterPatient(r.Context(), req.Name, req.Code)
	if err != nil && !apperr.IsPersistence(err) {
		handleError(w, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, apperr.KindPersistence.String(), err.Error())
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, toPatientResponse(p))
}

func (h *Handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if !decode(w, r, &req) {
		return
	}

	appt, err := h.clinic.Schedule(r.Context(), practitionerFrom(r.Context()), req.PatientCode, req.Date, req.Time)
	h.respondChange(w, http.StatusCreated, appt, err)
}

func (h *Handlers) rescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if !decode(w, r, &req) {
		return
	}

	pr := practitionerFrom(r.Context())
	key, err := clinic.KeyFor(pr, req.PatientCode, req.Date, req.Time)
	if err != nil {
		handleError(w, err)
		return
	}
	appt, err := h.clinic.Reschedule(r.Context(), pr, key, req.NewDate, req.NewTime)
	h.respondChange(w, http.StatusOK, appt, err)
}

func (h *Handlers) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !decode(w, r, &req) {
		return
	}

	pr := practitionerFrom(r.Context())
	key, err := clinic.KeyFor(pr, req.PatientCode, req.Date, req.Time)
	if err != nil {
		handleError(w, err)
		return
	}
	appt, err := h.clinic.Cancel(r.Context(), pr, key)
	h.respondChange(w, http.StatusOK, appt, err)
}

func (h *Handlers) futureAppointments(w http.ResponseWriter, r *http.Request) {
	if !h.sync(w, r) {
		return
	}
	appts := h.clinic.Query.Future(practitionerFrom(r.Context()).Code)
	writePage(w, r, h.pageSize, h.toAppointmentResponses(appts))
}

// historyAppointments accepts either range=7d|30d|90d|180d or an explicit
// start/end pair; the default is the last 30 days.
func (h *Handlers) historyAppointments(w http.ResponseWriter, r *http.Request) {
	if !h.sync(w, r) {
		return
	}
	q := r.URL.Query()
	today := h.clinic.Query.Today()

	var (
		rng appointment.Range
		err error
	)
	switch {
	case q.Get("start") != "" || q.Get("end") != "":
		var start, end appointment.Date
		if start, err = appointment.ParseDate(q.Get("start")); err == nil {
			end, err = appointment.ParseDate(q.Get("end"))
		}
		rng = appointment.Between(start, end)
	case q.Get("range") != "":
		rng, err = appointment.ParseRange(q.Get("range"), today)
	default:
		rng = appointment.LastDays(today, 30)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	appts := h.clinic.Query.History(practitionerFrom(r.Context()).Code, rng)
	data := h.toAppointmentResponses(appts)
	p := pagination.FromRequest(r, h.pageSize)
	writeJSON(w, http.StatusOK, HistoryResponse{
		Start:    rng.Start.String(),
		End:      rng.End.String(),
		Response: pagination.NewResponse(pagination.Slice(data, p), len(data), p.Limit, p.Offset),
	})
}

func (h *Handlers) upcomingAppointments(w http.ResponseWriter, r *http.Request) {
	if !h.sync(w, r) {
		return
	}
	q := r.URL.Query()

	var window appointment.Window
	if code := q.Get("patient_code"); code != "" {
		if _, err := h.clinic.Directory.FindPatient(code); err != nil {
			handleError(w, err)
			return
		}
		window = appointment.Window{Kind: appointment.WindowPatient, PatientCode: code}
	} else {
		var err error
		if window, err = appointment.ParseWindow(q.Get("window")); err != nil {
			handleError(w, err)
			return
		}
	}

	appts := h.clinic.Query.Upcoming(practitionerFrom(r.Context()).Code, window)
	writePage(w, r, h.pageSize, h.toAppointmentResponses(appts))
}

// sync brings a shared store up to date before a listing.
func (h *Handlers) sync(w http.ResponseWriter, r *http.Request) bool {
	if err := h.clinic.Service.Sync(r.Context()); err != nil {
		handleError(w, err)
		return false
	}
	return true
}

// respondChange writes the result of a scheduling operation. A persistence
// failure still carries the appointment that was applied in memory.
func (h *Handlers) respondChange(w http.ResponseWriter, status int, appt appointment.Appointment, err error) {
	switch {
	case err == nil:
		writeJSON(w, status, h.toAppointmentResponse(appt))
	case apperr.IsPersistence(err):
		writeJSON(w, http.StatusInternalServerError, ErrorWithAppointment{
			ErrorResponse: ErrorResponse{Error: apperr.KindPersistence.String(), Details: err.Error()},
			Appointment:   h.toAppointmentResponse(appt),
		})
	default:
		handleError(w, err)
	}
}

func handleError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, kind.String(), err.Error())
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, kind.String(), err.Error())
	case apperr.KindConflict, apperr.KindPastDate, apperr.KindInvalidState:
		writeError(w, http.StatusConflict, kind.String(), err.Error())
	default:
		writeError(w, http.StatusInternalServerError, kind.String(), err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func writePage[T any](w http.ResponseWriter, r *http.Request, pageSize int, items []T) {
	p := pagination.FromRequest(r, pageSize)
	writeJSON(w, http.StatusOK, pagination.NewResponse(pagination.Slice(items, p), len(items), p.Limit, p.Offset))
}
