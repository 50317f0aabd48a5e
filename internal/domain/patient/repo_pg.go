package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, name, email, address, date_of_birth, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// storeErr maps a driver error to the repository's failure kinds. The unique
// index on email is the actual uniqueness enforcement; a violation racing
// past the early existence check must surface as ErrEmailExists, not as an
// infrastructure failure.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailExists
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func (r *repoPG) FindAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at`)
	if err != nil {
		return nil, storeErr("find all", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Address, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storeErr("scan patient", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate patients", err)
	}
	return patients, nil
}

func (r *repoPG) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p := &Patient{}
	err := r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Email, &p.Address, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, storeErr("find by id", err)
	}
	return p, nil
}

func (r *repoPG) Save(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		err := r.pool.QueryRow(ctx, `
			INSERT INTO patient (id, name, email, address, date_of_birth)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`,
			p.ID, p.Name, p.Email, p.Address, p.DateOfBirth,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			p.ID = uuid.Nil
			return storeErr("insert patient", err)
		}
		return nil
	}

	err := r.pool.QueryRow(ctx, `
		UPDATE patient SET
			name = $2, email = $3, address = $4, date_of_birth = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.Email, p.Address, p.DateOfBirth,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return storeErr("update patient", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, p.ID)
	if err != nil {
		return storeErr("delete patient", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, storeErr("exists by id", err)
	}
	return exists, nil
}

func (r *repoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE email = $1)`, NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, storeErr("exists by email", err)
	}
	return exists, nil
}

func (r *repoPG) ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE email = $1 AND id <> $2)`,
		NormalizeEmail(email), id).Scan(&exists)
	if err != nil {
		return false, storeErr("exists by email excluding", err)
	}
	return exists, nil
}
