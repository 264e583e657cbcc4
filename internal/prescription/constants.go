package prescription

// Treatment is one of the clinic's offered treatment types.
type Treatment string

const (
	// TreatmentPlaceholder is the form's unselected choice and is never valid.
	TreatmentPlaceholder Treatment = "Select Treatment"

	TreatmentDiodeLaser   Treatment = "Diode Laser"
	TreatmentHydraFacial  Treatment = "HydraFacial"
	TreatmentChemicalPeel Treatment = "Chemical Peel"
	TreatmentPRPTherapy   Treatment = "PRP Therapy"
)

// SessionNotApplicable marks the session number for treatments that have no
// session count. It is a real value, not missing data, and is written as-is
// to the spreadsheet and the PDF.
const SessionNotApplicable = "N/A"

// Treatments lists the selectable treatments in form display order.
var Treatments = []Treatment{
	TreatmentDiodeLaser,
	TreatmentHydraFacial,
	TreatmentChemicalPeel,
	TreatmentPRPTherapy,
}

var validTreatments = map[Treatment]bool{
	TreatmentDiodeLaser:   true,
	TreatmentHydraFacial:  true,
	TreatmentChemicalPeel: true,
	TreatmentPRPTherapy:   true,
}

// IsValid returns true if the treatment is a selectable treatment type.
func (t Treatment) IsValid() bool {
	return validTreatments[t]
}

// String returns the display name of the treatment.
func (t Treatment) String() string {
	return string(t)
}

// DateLayout is the display layout for prescription dates (dd/mm/yyyy).
const DateLayout = "02/01/2006"

const (
	MinAge = 1
	MaxAge = 120

	MinSession = 1
	MaxSession = 20
)
