package api

import (
	"encoding/json"
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/pagination"
)

type CreatePatientRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type PatientResponse struct {
	Code       string `json:"code"`
	MaskedCode string `json:"masked_code"`
	Name       string `json:"name"`
}

type CreateAppointmentRequest struct {
	PatientCode string `json:"patient_code"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// AppointmentRef identifies an existing appointment of the authenticated
// practitioner.
type AppointmentRef struct {
	PatientCode string `json:"patient_code"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type RescheduleRequest struct {
	AppointmentRef
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

type CancelRequest struct {
	AppointmentRef
}

type AppointmentResponse struct {
	Date             string `json:"date"`
	Time             string `json:"time"`
	PatientCode      string `json:"patient_code"`
	PatientName      string `json:"patient_name"`
	PractitionerCode string `json:"practitioner_code"`
	Status           string `json:"status"`
	Display          string `json:"display"`
}

type HistoryResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	*pagination.Response
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorWithAppointment is returned when a change was applied in memory but
// could not be written durably.
type ErrorWithAppointment struct {
	ErrorResponse
	Appointment AppointmentResponse `json:"appointment"`
}

func toPatientResponse(p directory.Patient) PatientResponse {
	return PatientResponse{Code: p.Code, MaskedCode: directory.FormatPatientCode(p.Code), Name: p.Name}
}

// toAppointmentResponses renders appts with their effective status: an
// elapsed pending appointment reads as COMPLETED.
func (h *Handlers) toAppointmentResponses(appts []appointment.Appointment) []AppointmentResponse {
	names := h.clinic.Directory.Names()
	lines := appointment.FormatLines(appts, names)
	now := h.clinic.Now()

	out := make([]AppointmentResponse, 0, len(appts))
	for i, a := range appts {
		status := a.Status
		if a.Status == appointment.StatusPending && a.Done(now) {
			status = appointment.StatusCompleted
		}
		name, ok := names[a.PatientCode]
		if !ok {
			name = "(patient not found)"
		}
		out = append(out, AppointmentResponse{
			Date:             a.Date.String(),
			Time:             a.Time.String(),
			PatientCode:      a.PatientCode,
			PatientName:      name,
			PractitionerCode: a.PractitionerCode,
			Status:           string(status),
			Display:          lines[i],
		})
	}
	return out
}

func (h *Handlers) toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return h.toAppointmentResponses([]appointment.Appointment{a})[0]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
