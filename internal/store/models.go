package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Medication frequencies offered by the medication form.
const (
	FrequencyOnceDaily   = "Once daily"
	FrequencyTwiceDaily  = "Twice daily"
	FrequencyThriceDaily = "Three times daily"
	FrequencyAsNeeded    = "As needed"
)

// Appointment types offered by the appointment form.
const (
	AppointmentCheckUp    = "Check-up"
	AppointmentFollowUp   = "Follow-up"
	AppointmentSpecialist = "Specialist"
	AppointmentLabTest    = "Lab Test"
	AppointmentOther      = "Other"
)

var (
	Frequencies      = []string{FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyThriceDaily, FrequencyAsNeeded}
	AppointmentTypes = []string{AppointmentCheckUp, AppointmentFollowUp, AppointmentSpecialist, AppointmentLabTest, AppointmentOther}
)

// Layouts used when the app itself formats dates.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type SymptomEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Date        string    `json:"date"` // YYYY-MM-DD of Timestamp
}

// NewSymptomEntry stamps description with at and its calendar date.
func NewSymptomEntry(description string, at time.Time) SymptomEntry {
	return SymptomEntry{
		Timestamp:   at,
		Description: description,
		Date:        at.Format(DateLayout),
	}
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	NextDose  string `json:"next_dose"` // free-form, usually YYYY-MM-DD HH:MM
	Notes     string `json:"notes"`
	AddedDate string `json:"added_date"`
}

type Appointment struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // free-form, usually YYYY-MM-DD HH:MM
	Doctor      string `json:"doctor"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedDate string `json:"created_date"`
}

type UserProfile struct {
	Age        string `json:"age"`
	Conditions string `json:"conditions"`
	Allergies  string `json:"allergies"`
	Lifestyle  string `json:"lifestyle"`
}
