package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

type profileRepository struct {
	db *sql.DB
}

const profileColumns = `id, email, role, approved, created_at, updated_at`

func scanProfile(row rowScanner) (*model.Profile, error) {
	var (
		p                    model.Profile
		id, role             string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &p.Email, &role, &p.Approved, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = types.UserID(id)
	p.Role = types.Role(role)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

func (r *profileRepository) Get(ctx context.Context, id types.UserID) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "profile not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("id", id))
	}
	return p, nil
}

func (r *profileRepository) Put(ctx context.Context, p *model.Profile) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			role = excluded.role,
			approved = excluded.approved,
			updated_at = excluded.updated_at`,
		p.ID.String(), p.Email, p.Role.String(), p.Approved,
		toUnix(p.CreatedAt), toUnix(p.UpdatedAt)); err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("id", p.ID))
	}
	return nil
}

func (r *profileRepository) List(ctx context.Context, pendingOnly bool) ([]*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	if pendingOnly {
		query += ` WHERE approved = 0`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list profiles")
	}
	defer rows.Close()

	profiles := []*model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan profile")
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate profiles")
	}
	return profiles, nil
}
