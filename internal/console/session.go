// Package console runs the interactive practitioner session: login by
// practitioner code, then a numbered menu over the scheduling operations.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/pagination"
)

// errBack unwinds a sub-flow back to the menu.
var errBack = errors.New("back")

type Session struct {
	clinic   *clinic.Clinic
	in       *bufio.Scanner
	out      io.Writer
	pageSize int
	log      zerolog.Logger
}

type Option func(*Session)

func WithPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func New(c *clinic.Clinic, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		clinic:   c,
		in:       bufio.NewScanner(in),
		out:      out,
		pageSize: pagination.DefaultLimit,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run logs a practitioner in and serves the menu until they exit. Running
// out of input ends the session without error.
func (s *Session) Run(ctx context.Context) error {
	pr, err := s.login()
	if errors.Is(err, io.EOF) || errors.Is(err, errBack) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info().Str("practitioner", pr.Code).Msg("console session started")
	s.printf("\nWelcome, Dr. %s!\n", pr.Name)

	err = s.menu(ctx, pr)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Session) login() (directory.Practitioner, error) {
	for {
		code, err := s.prompt("Enter your practitioner code (digits only): ")
		if err != nil {
			return directory.Practitioner{}, err
		}

		pr, err := s.clinic.Authenticate(code)
		switch {
		case err == nil:
			return pr, nil
		case apperr.IsValidation(err):
			s.println("Invalid code. It must contain only digits.")
		case errors.Is(err, directory.ErrPractitionerNotFound):
			ok, err := s.confirm("Practitioner not found. Try again? (y/n): ")
			if err != nil {
				return directory.Practitioner{}, err
			}
			if !ok {
				return directory.Practitioner{}, errBack
			}
		default:
			return directory.Practitioner{}, err
		}
	}
}

func (s *Session) menu(ctx context.Context, pr directory.Practitioner) error {
	for {
		s.println("\n===== PRACTITIONER MENU =====")
		s.println("1 - Schedule a new appointment")
		s.println("2 - View scheduled appointments")
		s.println("3 - View past appointments")
		s.println("4 - Reschedule appointments")
		s.println("5 - Cancel scheduled appointments")
		s.println("0 - Exit")

		option, err := s.promptInt("\nChoose an option: ")
		if errors.Is(err, errBack) {
			continue
		}
		if err != nil {
			return err
		}

		switch option {
		case 0:
			s.println("Goodbye!")
			return nil
		case 1:
			err = s.schedule(ctx, pr)
		case 2:
			err = s.future(ctx, pr)
		case 3:
			err = s.history(pr)
		case 4:
			err = s.reschedule(ctx, pr)
		case 5:
			err = s.cancel(ctx, pr)
		default:
			s.println("Invalid option!")
		}
		if err != nil && !errors.Is(err, errBack) {
			return err
		}
	}
}

// Input helpers

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Session) prompt(msg string) (string, error) {
	s.printf("%s", msg)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// promptInt reads a number. Anything else is reported and turned into
// errBack so the caller returns to its menu.
func (s *Session) promptInt(msg string) (int, error) {
	line, err := s.prompt(msg)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		s.println("Invalid input. Enter a number.")
		return 0, errBack
	}
	return n, nil
}

func (s *Session) confirm(msg string) (bool, error) {
	line, err := s.prompt(msg)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// choose reads a 1-based selection from n items; 0 goes back.
func (s *Session) choose(msg string, n int) (int, error) {
	sel, err := s.promptInt(msg)
	if err != nil {
		return 0, err
	}
	if sel == 0 {
		return 0, errBack
	}
	if sel < 1 || sel > n {
		s.println("Invalid selection.")
		return 0, errBack
	}
	return sel - 1, nil
}

// paginate prints lines one page at a time.
func (s *Session) paginate(lines []string) error {
	pager := pagination.NewPager(lines, s.pageSize)
	for {
		page, number, total := pager.Page()
		for _, line := range page {
			s.println(line)
		}
		if total > 1 {
			s.printf("-- page %d of %d --\n", number, total)
		}
		if !pager.HasNext() {
			return nil
		}
		answer, err := s.prompt("Press Enter for the next page or 0 to stop: ")
		if err != nil {
			return err
		}
		if answer == "0" {
			return nil
		}
		pager.Next()
	}
}

// printNumbered pages a numbered listing so the caller can pick by number.
func (s *Session) printNumbered(appts []appointment.Appointment) error {
	lines := make([]string, 0, len(appts))
	for i, a := range appts {
		lines = append(lines, fmt.Sprintf("%d - %s - Patient: %s", i+1, a.FormattedDateTime(), s.clinic.Directory.PatientName(a.PatientCode)))
	}
	return s.paginate(lines)
}

// report prints the outcome of a failed operation.
func (s *Session) report(err error) {
	switch {
	case errors.Is(err, appointment.ErrPastDate):
		s.println("The appointment date must not be in the past.")
	case errors.Is(err, appointment.ErrSlotConflict):
		s.println("There is already an appointment scheduled at this time.")
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		s.println("Error: appointment not found.")
	case apperr.IsValidation(err):
		s.printf("Invalid input: %v\n", err)
	case apperr.IsPersistence(err):
		s.printf("Warning: the change applies to this session but was not saved: %v\n", err)
	default:
		s.printf("Error: %v\n", err)
	}
}
