package prescription

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validation errors surfaced to the form user.
var (
	ErrEmptyName       = errors.New("patient name is required")
	ErrNoTreatment     = errors.New("a treatment type must be selected")
	ErrInvalidAge      = errors.New("age must be between 1 and 120")
	ErrSessionRequired = errors.New("session number is required for Diode Laser treatment")
	ErrInvalidSession  = errors.New("session number must be between 1 and 20")
)

// Record is a single prescription as submitted through the form. Records are
// immutable after construction and are never persisted locally; they are
// forwarded to the spreadsheet client and the document renderer only.
type Record struct {
	ID           string
	PatientName  string
	Age          int
	Date         time.Time
	Treatment    Treatment
	Session      string // "1".."20" for Diode Laser, otherwise "N/A"
	FollowUp     time.Time
	Instructions string
	SubmittedAt  time.Time
}

// NewRecord builds a Record from form input, stamping the submission time and
// the generated prescription ID. Session is forced to the sentinel for
// treatments that have no session count.
func NewRecord(name string, age int, date time.Time, treatment Treatment, session string, followUp time.Time, instructions string, now time.Time) Record {
	if treatment != TreatmentDiodeLaser {
		session = SessionNotApplicable
	}
	return Record{
		ID:           NewID(now),
		PatientName:  strings.TrimSpace(name),
		Age:          age,
		Date:         date,
		Treatment:    treatment,
		Session:      session,
		FollowUp:     followUp,
		Instructions: strings.TrimSpace(instructions),
		SubmittedAt:  now,
	}
}

// NewID generates a prescription ID for the given submission instant:
// "RX" followed by the timestamp to second granularity.
func NewID(t time.Time) string {
	return "RX" + t.Format("20060102150405")
}

// Validate checks the submission invariants: non-empty name, a selected
// treatment, and a real session number when the treatment is Diode Laser.
func (r Record) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrEmptyName
	}
	if r.Treatment == TreatmentPlaceholder || !r.Treatment.IsValid() {
		return ErrNoTreatment
	}
	if r.Age < MinAge || r.Age > MaxAge {
		return ErrInvalidAge
	}
	if r.Treatment == TreatmentDiodeLaser {
		if r.Session == "" || r.Session == SessionNotApplicable {
			return ErrSessionRequired
		}
		n, err := strconv.Atoi(r.Session)
		if err != nil || n < MinSession || n > MaxSession {
			return ErrInvalidSession
		}
	}
	return nil
}

// ArtifactFilename returns the download filename for the rendered PDF:
// prescription_{name with spaces replaced}_{date with slashes replaced}.pdf
func (r Record) ArtifactFilename() string {
	name := strings.ReplaceAll(r.PatientName, " ", "_")
	date := strings.ReplaceAll(r.Date.Format(DateLayout), "/", "-")
	return fmt.Sprintf("prescription_%s_%s.pdf", name, date)
}

// HeaderRow returns the spreadsheet header in the fixed column order.
func HeaderRow() []interface{} {
	return []interface{}{
		"Timestamp",
		"Patient Name",
		"Age",
		"Date",
		"Treatment Type",
		"Session Number",
		"Follow-up Date",
		"Instructions",
		"Prescription ID",
	}
}

// Row serializes the record into one spreadsheet row matching HeaderRow.
func (r Record) Row() []interface{} {
	return []interface{}{
		r.SubmittedAt.Format("2006-01-02 15:04:05"),
		r.PatientName,
		r.Age,
		r.Date.Format(DateLayout),
		r.Treatment.String(),
		r.Session,
		r.FollowUp.Format(DateLayout),
		r.Instructions,
		r.ID,
	}
}
