package prescription

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Validate(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{
			name: "rejects empty patient name",
			record: Record{
				PatientName: "   ",
				Age:         34,
				Treatment:   TreatmentHydraFacial,
				Session:     SessionNotApplicable,
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "rejects placeholder treatment",
			record: Record{
				PatientName: "Asha Rao",
				Age:         34,
				Treatment:   TreatmentPlaceholder,
				Session:     SessionNotApplicable,
			},
			wantErr: ErrNoTreatment,
		},
		{
			name: "rejects Diode Laser without session",
			record: Record{
				PatientName: "Asha Rao",
				Age:         34,
				Treatment:   TreatmentDiodeLaser,
				Session:     SessionNotApplicable,
			},
			wantErr: ErrSessionRequired,
		},
		{
			name: "rejects session out of range",
			record: Record{
				PatientName: "Asha Rao",
				Age:         34,
				Treatment:   TreatmentDiodeLaser,
				Session:     "21",
			},
			wantErr: ErrInvalidSession,
		},
		{
			name: "rejects age out of range",
			record: Record{
				PatientName: "Asha Rao",
				Age:         0,
				Treatment:   TreatmentHydraFacial,
				Session:     SessionNotApplicable,
			},
			wantErr: ErrInvalidAge,
		},
		{
			name: "accepts valid HydraFacial record",
			record: Record{
				PatientName: "Asha Rao",
				Age:         34,
				Date:        date,
				Treatment:   TreatmentHydraFacial,
				Session:     SessionNotApplicable,
				FollowUp:    date.AddDate(0, 0, 14),
				SubmittedAt: now,
			},
			wantErr: nil,
		},
		{
			name: "accepts valid Diode Laser record",
			record: Record{
				PatientName: "Asha Rao",
				Age:         34,
				Treatment:   TreatmentDiodeLaser,
				Session:     "3",
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewID_Format(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewID(ts)

	assert.Equal(t, "RX20250314092653", id)
	assert.Regexp(t, regexp.MustCompile(`^RX\d{14}$`), id)
}

func TestNewRecord_SessionSentinel(t *testing.T) {
	now := time.Now()

	// Session is forced to N/A for non-laser treatments even if supplied
	rec := NewRecord("Asha Rao", 34, now, TreatmentChemicalPeel, "5", now, "", now)
	assert.Equal(t, SessionNotApplicable, rec.Session)

	rec = NewRecord("Asha Rao", 34, now, TreatmentDiodeLaser, "5", now, "", now)
	assert.Equal(t, "5", rec.Session)
}

func TestRecord_ArtifactFilename(t *testing.T) {
	rec := Record{
		PatientName: "Asha Rao",
		Date:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "prescription_Asha_Rao_14-03-2025.pdf", rec.ArtifactFilename())
}

func TestRecord_Row(t *testing.T) {
	rec := Record{
		ID:           "RX20250314092653",
		PatientName:  "Asha Rao",
		Age:          34,
		Date:         time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Treatment:    TreatmentHydraFacial,
		Session:      SessionNotApplicable,
		FollowUp:     time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
		Instructions: "Avoid sun exposure",
		SubmittedAt:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	row := rec.Row()

	assert.Len(t, row, len(HeaderRow()))
	assert.Equal(t, []interface{}{
		"2025-03-14 09:26:53",
		"Asha Rao",
		34,
		"14/03/2025",
		"HydraFacial",
		"N/A",
		"28/03/2025",
		"Avoid sun exposure",
		"RX20250314092653",
	}, row)
}
