package entities

import (
	"strings"
	"time"

	pkgerrors "filegraph/pkg/errors"
)

// MaxNameLength bounds person names.
const MaxNameLength = 255

// Person is the actor entity. A person is created lazily on first reference,
// identified globally by a case-sensitive unique name, and never deleted.
type Person struct {
	id        string
	name      string
	email     string
	createdAt time.Time
}

// NewPerson creates a person with business rule validation. An empty email is
// defaulted deterministically from the name so every person has one.
func NewPerson(name, email string) (*Person, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, pkgerrors.NewValidationError("name is too long")
	}

	if email == "" {
		email = DefaultEmail(name)
	}

	return &Person{
		name:      name,
		email:     email,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructPerson rebuilds a person from store data with preserved identity
// and timestamps.
func ReconstructPerson(id, name, email string, createdAt time.Time) *Person {
	return &Person{
		id:        id,
		name:      name,
		email:     email,
		createdAt: createdAt,
	}
}

// DefaultEmail derives a deterministic email address from a person's name.
func DefaultEmail(name string) string {
	local := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return local + "@fileshare.local"
}

// ID returns the store-assigned identifier, empty until persisted.
func (p *Person) ID() string { return p.id }

// SetID records the store-assigned identifier after creation.
func (p *Person) SetID(id string) { p.id = id }

// Name returns the globally unique person name.
func (p *Person) Name() string { return p.name }

// Email returns the person's email address.
func (p *Person) Email() string { return p.email }

// CreatedAt returns when the person was created.
func (p *Person) CreatedAt() time.Time { return p.createdAt }
