package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dateLayout is the wire format for date_of_birth on requests and responses.
const dateLayout = "2006-01-02"

// Patient maps to the patient table. The ID is assigned by the record store
// on first save and never changes afterwards.
type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Address     string    `db:"address" json:"address"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Response is the external representation returned by the API.
type Response struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
}

func (p *Patient) ToResponse() *Response {
	return &Response{
		ID:          p.ID.String(),
		Name:        p.Name,
		Email:       p.Email,
		Address:     p.Address,
		DateOfBirth: p.DateOfBirth.Format(dateLayout),
	}
}

// CreateRequest carries the fields accepted when registering a patient.
// DateOfBirth arrives as text and is parsed by the service.
type CreateRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
}

// Validate checks structural requirements on the request body. Date parsing
// is left to the service so the whole operation fails before any side effect.
func (r *CreateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(r.DateOfBirth) == "" {
		missing = append(missing, "date_of_birth")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// UpdateRequest carries the mutable fields for a full replace.
type UpdateRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
}

func (r *UpdateRequest) Validate() error {
	c := CreateRequest(*r)
	return c.Validate()
}

// ParseDateOfBirth parses the textual date of birth into a calendar date.
func ParseDateOfBirth(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid %s date", ErrInvalidDateOfBirth, s, dateLayout)
	}
	return t, nil
}

// NormalizeEmail lowercases and trims an email so the uniqueness constraint
// compares like with like.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
