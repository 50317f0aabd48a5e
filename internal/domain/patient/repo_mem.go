package patient

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// repoMem is an in-memory record store implementing the same contract as the
// PostgreSQL repository, including write-time email uniqueness under
// concurrency: the check and the write happen under one lock, mirroring the
// database unique constraint. Used as the test double for the orchestrator
// and usable as a standalone adapter in development.
type repoMem struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
	seq      int64
}

func NewRepoMem() Repository {
	return &repoMem{patients: make(map[uuid.UUID]*Patient)}
}

func (r *repoMem) FindAll(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		cp := *p
		result = append(result, &cp)
	}
	// Store-native order for this adapter is insertion order.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *repoMem) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *repoMem) Save(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(p.Email)
	for id, existing := range r.patients {
		if NormalizeEmail(existing.Email) == email && id != p.ID {
			return ErrEmailExists
		}
	}

	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = now
		// Distinct timestamps keep FindAll ordering stable for rapid inserts.
		r.seq++
		p.CreatedAt = p.CreatedAt.Add(time.Duration(r.seq))
	} else if existing, ok := r.patients[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	p.UpdatedAt = now

	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *repoMem) Delete(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[p.ID]; !ok {
		return ErrNotFound
	}
	delete(r.patients, p.ID)
	return nil
}

func (r *repoMem) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.patients[id]
	return ok, nil
}

func (r *repoMem) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, p := range r.patients {
		if NormalizeEmail(p.Email) == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *repoMem) ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = NormalizeEmail(email)
	for pid, p := range r.patients {
		if pid != id && NormalizeEmail(p.Email) == email {
			return true, nil
		}
	}
	return false, nil
}
