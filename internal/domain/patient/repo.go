package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the record store contract. Implementations must make the
// email-uniqueness check and the subsequent write safe under concurrent
// requests targeting the same email: the store constraint is the real guard,
// the Exists* checks are early rejects. Every method may fail with an error
// wrapping ErrStoreUnavailable.
type Repository interface {
	// FindAll returns every patient in store-native order.
	FindAll(ctx context.Context) ([]*Patient, error)

	// FindByID returns ErrNotFound when the id does not resolve.
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Save persists the patient, assigning an ID when it is zero and
	// updating in place otherwise. A write-time unique violation on email
	// is reported as ErrEmailExists.
	Save(ctx context.Context, p *Patient) error

	// Delete removes the patient row. Deletion is final; there is no
	// soft-delete.
	Delete(ctx context.Context, p *Patient) error

	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByEmailExcluding reports whether a patient other than the one
	// identified by id owns the email, for update-in-place checks.
	ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error)
}
