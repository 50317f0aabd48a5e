package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pm/patient-service/internal/platform/events"
)

// BillingClient provisions a billing account for a patient. The call is
// synchronous and blocking on the creation path: no patient may exist in the
// system of record without a billing account, so a failure here fails the
// whole create. The service never retries it.
type BillingClient interface {
	CreateBillingAccount(ctx context.Context, patientID, name, email string) error
}

// EventPublisher emits patient lifecycle events to the external stream.
type EventPublisher interface {
	PublishPatientCreated(ctx context.Context, evt events.PatientCreated) error
}

// Service orchestrates the patient lifecycle across the record store, the
// billing service, and the event stream. Each operation is a short-lived
// workflow with no persisted intermediate state: it either commits all of its
// side effects or fails after committing a prefix of them. Committed prefixes
// are never rolled back; the error tells the caller which step failed.
type Service struct {
	repo      Repository
	billing   BillingClient
	publisher EventPublisher
	log       zerolog.Logger
}

func NewService(repo Repository, billing BillingClient, publisher EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		billing:   billing,
		publisher: publisher,
		log:       log,
	}
}

// List returns every patient in store-native order.
func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.FindAll(ctx)
}

// Create runs the creation workflow: uniqueness check, then store write,
// then billing account provisioning, then event publish, sequentially. The
// billing call and the publish are outside the store's atomicity boundary:
// once the row is committed it stays committed even when a later step fails.
// Publish happens strictly after billing success so consumers of the event
// can always look up full patient and billing state.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Patient, error) {
	email := NormalizeEmail(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email uniqueness: %w", err)
	}
	if exists {
		s.log.Warn().Str("email", email).Msg("create rejected: email already registered")
		return nil, ErrEmailExists
	}

	dob, err := ParseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		Name:        req.Name,
		Email:       email,
		Address:     req.Address,
		DateOfBirth: dob,
	}
	if err := s.repo.Save(ctx, p); err != nil {
		// Save maps a write-time unique violation to ErrEmailExists: the
		// store constraint decides races the early check missed.
		return nil, fmt.Errorf("creating patient: %w", err)
	}
	s.log.Info().Str("patient_id", p.ID.String()).Msg("patient created")

	if err := s.billing.CreateBillingAccount(ctx, p.ID.String(), p.Name, p.Email); err != nil {
		s.log.Error().Err(err).Str("patient_id", p.ID.String()).
			Msg("billing account creation failed; patient record retained")
		return nil, fmt.Errorf("creating billing account for patient %s: %w", p.ID, err)
	}
	s.log.Info().Str("patient_id", p.ID.String()).Msg("billing account created")

	evt := events.PatientCreated{
		PatientID: p.ID.String(),
		Name:      p.Name,
		Email:     p.Email,
	}
	if err := s.publisher.PublishPatientCreated(ctx, evt); err != nil {
		s.log.Error().Err(err).Str("patient_id", p.ID.String()).
			Msg("event publish failed; patient record and billing account retained")
		return nil, fmt.Errorf("publishing created event for patient %s: %w", p.ID, err)
	}
	s.log.Info().Str("patient_id", p.ID.String()).Msg("patient created event published")

	return p, nil
}

// Update replaces the mutable fields of an existing patient. No billing or
// event side effects.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)
	taken, err := s.repo.ExistsByEmailExcluding(ctx, email, id)
	if err != nil {
		return nil, fmt.Errorf("checking email uniqueness: %w", err)
	}
	if taken {
		s.log.Warn().Str("patient_id", id.String()).Str("email", email).
			Msg("update rejected: email belongs to another patient")
		return nil, ErrEmailExists
	}

	dob, err := ParseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Email = email
	p.Address = req.Address
	p.DateOfBirth = dob

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("updating patient %s: %w", id, err)
	}
	s.log.Info().Str("patient_id", id.String()).Msg("patient updated")
	return p, nil
}

// Delete removes the patient record. Deletion is final and immediate; no
// compensating action is taken against the billing or event systems.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p); err != nil {
		return fmt.Errorf("deleting patient %s: %w", id, err)
	}
	s.log.Info().Str("patient_id", id.String()).Msg("patient deleted")
	return nil
}

// ExistsByID is a pass-through existence check used by the boundary to decide
// 404 before authorization-gated mutations.
func (s *Service) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.ExistsByID(ctx, id)
}
