package console

import (
	"context"
	"fmt"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

func (s *Session) schedule(ctx context.Context, pr directory.Practitioner) error {
	s.println("\n=== SCHEDULE NEW APPOINTMENT ===")
	s.println("1 - For an existing patient")
	s.println("2 - For a new patient")
	s.println("0 - Back")

	option, err := s.promptInt("Choose an option: ")
	if err != nil {
		return err
	}

	var pt directory.Patient
	switch option {
	case 0:
		return errBack
	case 1:
		pt, err = s.selectPatient()
	case 2:
		pt, err = s.registerPatient(ctx)
	default:
		s.println("Invalid option!")
		return errBack
	}
	if err != nil {
		return err
	}

	date, clock, err := s.readSlot("Enter the appointment date (yyyy-MM-dd): ", "Enter the appointment time (HH:mm): ")
	if err != nil {
		return err
	}

	appt, err := s.clinic.Service.CreateAppointment(ctx, pr, pt, date, clock)
	if err != nil {
		s.report(err)
		if !apperr.IsPersistence(err) {
			return errBack
		}
	}
	s.println("\nAppointment scheduled successfully!")
	s.printf("Patient: %s\n", pt.Name)
	s.printf("Date and time: %s\n", appt.FormattedDateTime())
	return nil
}

func (s *Session) selectPatient() (directory.Patient, error) {
	s.println("\nHow do you want to find the patient?")
	s.println("1 - By code")
	s.println("2 - By name")
	s.println("0 - Back")

	option, err := s.promptInt("Choose an option: ")
	if err != nil {
		return directory.Patient{}, err
	}
	switch option {
	case 0:
		return directory.Patient{}, errBack
	case 1:
		return s.patientByCode()
	case 2:
		return s.patientByName()
	default:
		s.println("Invalid option!")
		return directory.Patient{}, errBack
	}
}

func (s *Session) patientByCode() (directory.Patient, error) {
	code, err := s.prompt("Enter the patient code (digits only): ")
	if err != nil {
		return directory.Patient{}, err
	}

	p, err := s.clinic.Directory.FindPatient(code)
	switch {
	case err == nil:
		s.printf("Patient found: %s\n", p.Name)
		return p, nil
	case apperr.IsValidation(err):
		s.printf("Invalid patient code. It must contain exactly %d digits.\n", directory.PatientCodeLength)
	default:
		s.println("No patient found with the given code.")
	}
	return directory.Patient{}, errBack
}

func (s *Session) patientByName() (directory.Patient, error) {
	fragment, err := s.prompt("Enter the patient name (or part of it): ")
	if err != nil {
		return directory.Patient{}, err
	}

	matches := s.clinic.Directory.SearchPatients(fragment)
	if len(matches) == 0 {
		s.println("No patient found with that name.")
		return directory.Patient{}, errBack
	}

	s.println("\nPatients found:")
	lines := make([]string, 0, len(matches))
	for i, p := range matches {
		lines = append(lines, fmt.Sprintf("%d - %s (code: %s)", i+1, p.Name, directory.FormatPatientCode(p.Code)))
	}
	if err := s.paginate(lines); err != nil {
		return directory.Patient{}, err
	}
	idx, err := s.choose("\nEnter the patient number (0 to go back): ", len(matches))
	if err != nil {
		return directory.Patient{}, err
	}
	return matches[idx], nil
}

func (s *Session) registerPatient(ctx context.Context) (directory.Patient, error) {
	s.println("\n=== REGISTER NEW PATIENT ===")

	name, err := s.prompt("Enter the patient name: ")
	if err != nil {
		return directory.Patient{}, err
	}
	if name == "" {
		s.println("Name must not be empty.")
		return directory.Patient{}, errBack
	}
	code, err := s.prompt("Enter the patient code (digits only): ")
	if err != nil {
		return directory.Patient{}, err
	}

	p, created, err := s.clinic.Directory.RegisterPatient(ctx, name, code)
	switch {
	case apperr.IsValidation(err):
		s.printf("Invalid patient code. It must contain exactly %d digits.\n", directory.PatientCodeLength)
		return directory.Patient{}, errBack
	case err != nil && !apperr.IsPersistence(err):
		s.report(err)
		return directory.Patient{}, errBack
	case err != nil:
		s.report(err)
	case !created:
		s.printf("A patient with this code already exists: %s\n", p.Name)
		return p, nil
	}
	s.println("Patient registered successfully!")
	return p, nil
}

func (s *Session) readSlot(dateMsg, timeMsg string) (appointment.Date, appointment.Clock, error) {
	dateStr, err := s.prompt(dateMsg)
	if err != nil {
		return appointment.Date{}, appointment.Clock{}, err
	}
	timeStr, err := s.prompt(timeMsg)
	if err != nil {
		return appointment.Date{}, appointment.Clock{}, err
	}
	date, clock, err := clinic.ParseSlot(dateStr, timeStr)
	if err != nil {
		s.printf("Invalid date or time format: %v\n", err)
		return appointment.Date{}, appointment.Clock{}, errBack
	}
	return date, clock, nil
}

func (s *Session) future(ctx context.Context, pr directory.Practitioner) error {
	appts := s.clinic.Query.Future(pr.Code)
	if len(appts) == 0 {
		s.println("You have no scheduled appointments.")
		return nil
	}

	s.println("\nYour scheduled appointments:")
	if err := s.printNumbered(appts); err != nil {
		return err
	}

	manage, err := s.confirm("\nDo you want to manage an appointment? (y/n): ")
	if err != nil || !manage {
		return err
	}
	idx, err := s.choose("Enter the appointment number: ", len(appts))
	if err != nil {
		return err
	}
	selected := appts[idx]

	s.println("\nWhat do you want to do with this appointment?")
	s.println("1 - Confirm appointment")
	s.println("2 - Cancel appointment")
	s.println("3 - Reschedule appointment")
	s.println("0 - Back")

	action, err := s.promptInt("Choose an option: ")
	if err != nil {
		return err
	}
	switch action {
	case 0:
		return errBack
	case 1:
		s.printf("Appointment confirmed for %s\n", selected.FormattedDateTime())
		return nil
	case 2:
		return s.doCancel(ctx, selected)
	case 3:
		return s.doReschedule(ctx, selected)
	default:
		s.println("Invalid option.")
		return errBack
	}
}

var historyOptions = map[int]int{1: 7, 2: 30, 3: 90, 4: 180}

func (s *Session) history(pr directory.Practitioner) error {
	s.println("\n=== APPOINTMENT HISTORY ===")
	s.println("Select the period:")
	s.println("1 - Last week")
	s.println("2 - Last 30 days")
	s.println("3 - Last 90 days")
	s.println("4 - Last 180 days")
	s.println("5 - Custom period")
	s.println("0 - Back")

	option, err := s.promptInt("Choose an option: ")
	if err != nil {
		return err
	}

	var rng appointment.Range
	switch {
	case option == 0:
		return errBack
	case option == 5:
		rng, err = s.customRange()
		if err != nil {
			return err
		}
	case historyOptions[option] > 0:
		rng = appointment.LastDays(s.clinic.Query.Today(), historyOptions[option])
	default:
		s.println("Invalid option!")
		return errBack
	}

	appts := s.clinic.Query.History(pr.Code, rng)
	if len(appts) == 0 {
		s.println("No appointments found in the selected period.")
		return nil
	}

	s.printf("\nAppointments held from %s to %s:\n", rng.Start.Display(), rng.End.Display())
	return s.paginate(appointment.FormatLines(appts, s.clinic.Directory.Names()))
}

func (s *Session) customRange() (appointment.Range, error) {
	startStr, err := s.prompt("Enter the start date (yyyy-MM-dd): ")
	if err != nil {
		return appointment.Range{}, err
	}
	start, err := appointment.ParseDate(startStr)
	if err != nil {
		s.printf("Invalid date format: %v\n", err)
		return appointment.Range{}, errBack
	}
	endStr, err := s.prompt("Enter the end date (yyyy-MM-dd): ")
	if err != nil {
		return appointment.Range{}, err
	}
	end, err := appointment.ParseDate(endStr)
	if err != nil {
		s.printf("Invalid date format: %v\n", err)
		return appointment.Range{}, errBack
	}
	return appointment.Between(start, end), nil
}

func (s *Session) reschedule(ctx context.Context, pr directory.Practitioner) error {
	s.println("\n=== RESCHEDULE APPOINTMENTS ===")
	s.println("Select the filter:")
	s.println("1 - This week's appointments")
	s.println("2 - This month's appointments")
	s.println("3 - Appointments by patient")
	s.println("0 - Back")

	option, err := s.promptInt("Choose an option: ")
	if err != nil {
		return err
	}

	var window appointment.Window
	switch option {
	case 0:
		return errBack
	case 1:
		window = appointment.Window{Kind: appointment.WindowWeek}
	case 2:
		window = appointment.Window{Kind: appointment.WindowMonth}
	case 3:
		pt, err := s.selectPatient()
		if err != nil {
			return err
		}
		window = appointment.Window{Kind: appointment.WindowPatient, PatientCode: pt.Code}
	default:
		s.println("Invalid option!")
		return errBack
	}

	appts := s.clinic.Query.Upcoming(pr.Code, window)
	if len(appts) == 0 {
		s.println("No appointments found for the selected filter.")
		return nil
	}

	s.println("\nAppointments available for rescheduling:")
	if err := s.printNumbered(appts); err != nil {
		return err
	}

	idx, err := s.choose("\nEnter the number of the appointment to reschedule (0 to go back): ", len(appts))
	if err != nil {
		return err
	}
	return s.doReschedule(ctx, appts[idx])
}

func (s *Session) doReschedule(ctx context.Context, existing appointment.Appointment) error {
	date, clock, err := s.readSlot("Enter the new appointment date (yyyy-MM-dd): ", "Enter the new appointment time (HH:mm): ")
	if err != nil {
		return err
	}

	moved, err := s.clinic.Service.RescheduleAppointment(ctx, existing.Key(), date, clock)
	if err != nil {
		s.report(err)
		if !apperr.IsPersistence(err) {
			return errBack
		}
	}
	s.println("Appointment rescheduled successfully!")
	s.printf("New date and time: %s\n", moved.FormattedDateTime())
	return nil
}

func (s *Session) cancel(ctx context.Context, pr directory.Practitioner) error {
	appts := s.clinic.Query.Future(pr.Code)
	if len(appts) == 0 {
		s.println("You have no scheduled appointments to cancel.")
		return nil
	}

	s.println("\nAppointments that can be cancelled:")
	if err := s.printNumbered(appts); err != nil {
		return err
	}

	idx, err := s.choose("\nEnter the number of the appointment to cancel (0 to go back): ", len(appts))
	if err != nil {
		return err
	}
	selected := appts[idx]

	ok, err := s.confirm("\nAre you sure you want to cancel the appointment of " +
		s.clinic.Directory.PatientName(selected.PatientCode) + " on " + selected.FormattedDateTime() + "? (y/n): ")
	if err != nil || !ok {
		return err
	}
	return s.doCancel(ctx, selected)
}

func (s *Session) doCancel(ctx context.Context, selected appointment.Appointment) error {
	if _, err := s.clinic.Service.CancelAppointment(ctx, selected.Key()); err != nil {
		s.report(err)
		if !apperr.IsPersistence(err) {
			return errBack
		}
	}
	s.println("Appointment cancelled successfully!")
	return nil
}
