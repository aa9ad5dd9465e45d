package storage

import (
	"fmt"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

// Record layouts, one record per line:
//
//	practitioners: code,name
//	patients:      name,code
//	appointments:  yyyy-MM-dd,HH:mm,patientCode,practitionerCode,STATUS

func practitionerRecord(p directory.Practitioner) []string {
	return []string{p.Code, p.Name}
}

func parsePractitioner(rec []string) (directory.Practitioner, error) {
	if len(rec) != 2 {
		return directory.Practitioner{}, fmt.Errorf("expected 2 fields, got %d", len(rec))
	}
	p := directory.Practitioner{Code: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1])}
	if p.Code == "" || p.Name == "" {
		return directory.Practitioner{}, fmt.Errorf("empty practitioner field")
	}
	return p, nil
}

func patientRecord(p directory.Patient) []string {
	return []string{p.Name, p.Code}
}

func parsePatient(rec []string) (directory.Patient, error) {
	if len(rec) != 2 {
		return directory.Patient{}, fmt.Errorf("expected 2 fields, got %d", len(rec))
	}
	p := directory.Patient{Name: strings.TrimSpace(rec[0]), Code: strings.TrimSpace(rec[1])}
	if p.Name == "" {
		return directory.Patient{}, fmt.Errorf("empty patient name")
	}
	if err := directory.ValidatePatientCode(p.Code); err != nil {
		return directory.Patient{}, err
	}
	return p, nil
}

func appointmentRecord(a appointment.Appointment) []string {
	return []string{a.Date.String(), a.Time.String(), a.PatientCode, a.PractitionerCode, string(a.Status)}
}

func parseAppointment(rec []string) (appointment.Appointment, error) {
	if len(rec) != 5 {
		return appointment.Appointment{}, fmt.Errorf("expected 5 fields, got %d", len(rec))
	}
	date, err := appointment.ParseDate(strings.TrimSpace(rec[0]))
	if err != nil {
		return appointment.Appointment{}, err
	}
	clock, err := appointment.ParseClock(strings.TrimSpace(rec[1]))
	if err != nil {
		return appointment.Appointment{}, err
	}
	status, err := appointment.ParseStatus(rec[4])
	if err != nil {
		return appointment.Appointment{}, err
	}
	return appointment.Appointment{
		Date:             date,
		Time:             clock,
		PatientCode:      strings.TrimSpace(rec[2]),
		PractitionerCode: strings.TrimSpace(rec[3]),
		Status:           status,
	}, nil
}
