package patient

import "time"

// CodeLength is the length of the external patient code. Queue entry codes
// are shorter; the two namespaces are independent.
const CodeLength = 6

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// Patient maps to the patients table. The external code is exposed as
// patient_id; the numeric primary key stays internal to URLs and FKs.
type Patient struct {
	ID               int64     `db:"id" json:"id"`
	Code             string    `db:"code" json:"patient_id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	DateOfBirth      time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender           string    `db:"gender" json:"gender"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	Email            *string   `db:"email" json:"email,omitempty"`
	Address          *string   `db:"address" json:"address,omitempty"`
	EmergencyContact *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
	MedicalHistory   *string   `db:"medical_history" json:"medical_history,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

// ValidGender reports whether g is an accepted gender value.
func ValidGender(g string) bool { return validGenders[g] }
