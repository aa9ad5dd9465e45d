package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

const PatientCodeLength = 11

var (
	ErrPractitionerNotFound = apperr.New(apperr.KindNotFound, "practitioner not found")
	ErrPatientNotFound      = apperr.New(apperr.KindNotFound, "patient not found")
)

type Practitioner struct {
	Code string
	Name string
}

type Patient struct {
	Code string
	Name string
}

// PatientWriter durably appends newly registered patients.
type PatientWriter interface {
	AppendPatient(ctx context.Context, p Patient) error
}

// Directory owns the practitioner and patient collections for a session.
// Practitioners are read-only after load; patients only grow.
type Directory struct {
	mu            sync.RWMutex
	practitioners []Practitioner
	patients      []Patient
	writer        PatientWriter
}

func New(practitioners []Practitioner, patients []Patient, writer PatientWriter) *Directory {
	return &Directory{
		practitioners: append([]Practitioner(nil), practitioners...),
		patients:      append([]Patient(nil), patients...),
		writer:        writer,
	}
}

// FindPractitioner returns the practitioner whose code matches exactly.
func (d *Directory) FindPractitioner(code string) (Practitioner, error) {
	code = strings.TrimSpace(code)
	if !isDigits(code) {
		return Practitioner{}, apperr.Validation("practitioner code must contain only digits")
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.practitioners {
		if p.Code == code {
			return p, nil
		}
	}
	return Practitioner{}, ErrPractitionerNotFound
}

// FindPatient returns the patient whose code matches exactly. Malformed codes
// are rejected before the lookup.
func (d *Directory) FindPatient(code string) (Patient, error) {
	code = strings.TrimSpace(code)
	if err := ValidatePatientCode(code); err != nil {
		return Patient{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.findPatientLocked(code); ok {
		return p, nil
	}
	return Patient{}, ErrPatientNotFound
}

// SearchPatients returns every patient whose name contains fragment,
// ignoring case, in insertion order.
func (d *Directory) SearchPatients(fragment string) []Patient {
	needle := strings.ToLower(strings.TrimSpace(fragment))

	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := []Patient{}
	for _, p := range d.patients {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return matches
}

// RegisterPatient adds a patient. Registration is idempotent on code: when
// the code already exists the stored record is returned with created=false.
// A durable write failure is returned as a persistence error but the patient
// stays in the in-memory collection.
func (d *Directory) RegisterPatient(ctx context.Context, name, code string) (Patient, bool, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return Patient{}, false, apperr.Validation("patient name must not be empty")
	}
	if err := ValidatePatientCode(code); err != nil {
		return Patient{}, false, err
	}

	d.mu.Lock()
	if existing, ok := d.findPatientLocked(code); ok {
		d.mu.Unlock()
		return existing, false, nil
	}
	p := Patient{Code: code, Name: name}
	d.patients = append(d.patients, p)
	d.mu.Unlock()

	if d.writer != nil {
		if err := d.writer.AppendPatient(ctx, p); err != nil {
			return p, true, apperr.Persistence("append patient", err)
		}
	}
	return p, true, nil
}

// PatientName resolves a display name for code.
func (d *Directory) PatientName(code string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.findPatientLocked(code); ok {
		return p.Name
	}
	return "(patient not found)"
}

// Names returns a code to name lookup over every known patient.
func (d *Directory) Names() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make(map[string]string, len(d.patients))
	for _, p := range d.patients {
		if _, seen := names[p.Code]; !seen {
			names[p.Code] = p.Name
		}
	}
	return names
}

func (d *Directory) PatientCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.patients)
}

func (d *Directory) findPatientLocked(code string) (Patient, bool) {
	for _, p := range d.patients {
		if p.Code == code {
			return p, true
		}
	}
	return Patient{}, false
}

// ValidatePatientCode checks that code is exactly eleven digits.
func ValidatePatientCode(code string) error {
	if len(code) != PatientCodeLength || !isDigits(code) {
		return apperr.Validation("patient code must contain exactly %d digits", PatientCodeLength)
	}
	return nil
}

// FormatPatientCode masks an eleven digit code as XXX.XXX.XXX-XX. Other
// values are returned unchanged.
func FormatPatientCode(code string) string {
	if len(code) != PatientCodeLength || !isDigits(code) {
		return code
	}
	return code[0:3] + "." + code[3:6] + "." + code[6:9] + "-" + code[9:11]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
