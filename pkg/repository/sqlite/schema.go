package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

type schemaRepository struct {
	db *sql.DB
}

const schemaColumns = `id, form_key, version, status, steps, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchema(row rowScanner) (*model.FormSchema, error) {
	var (
		s                    model.FormSchema
		formKey, status      string
		steps                string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&s.ID, &formKey, &s.Version, &status, &steps, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &s.Steps); err != nil {
		return nil, goerr.Wrap(err, "failed to decode schema steps", goerr.V("id", s.ID))
	}
	s.FormKey = types.FormKey(formKey)
	s.Status = types.SchemaStatus(status)
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updatedAt)
	return &s, nil
}

func (r *schemaRepository) queryOne(ctx context.Context, query string, args ...any) (*model.FormSchema, error) {
	s, err := scanSchema(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "schema not found", goerr.V("args", args))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query schema", goerr.V("args", args))
	}
	return s, nil
}

func (r *schemaRepository) Get(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error) {
	return r.queryOne(ctx,
		`SELECT `+schemaColumns+` FROM form_schemas WHERE form_key = ? AND version = ?`,
		formKey.String(), version)
}

func (r *schemaRepository) GetActive(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	return r.queryOne(ctx,
		`SELECT `+schemaColumns+` FROM form_schemas WHERE form_key = ? AND status = ? ORDER BY version_num DESC LIMIT 1`,
		formKey.String(), types.SchemaStatusActive.String())
}

func (r *schemaRepository) GetLatest(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	return r.queryOne(ctx,
		`SELECT `+schemaColumns+` FROM form_schemas WHERE form_key = ? ORDER BY seq DESC LIMIT 1`,
		formKey.String())
}

func (r *schemaRepository) List(ctx context.Context, formKey types.FormKey) ([]*model.FormSchema, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+schemaColumns+` FROM form_schemas WHERE form_key = ? ORDER BY seq DESC`,
		formKey.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list schemas", goerr.V("form_key", formKey))
	}
	defer rows.Close()

	schemas := []*model.FormSchema{}
	for rows.Next() {
		s, err := scanSchema(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan schema", goerr.V("form_key", formKey))
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate schemas", goerr.V("form_key", formKey))
	}
	return schemas, nil
}

func (r *schemaRepository) ListFormKeys(ctx context.Context) ([]types.FormKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT form_key FROM form_schemas ORDER BY form_key`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list form keys")
	}
	defer rows.Close()

	keys := []types.FormKey{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, goerr.Wrap(err, "failed to scan form key")
		}
		keys = append(keys, types.FormKey(k))
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate form keys")
	}
	return keys, nil
}

func (r *schemaRepository) Publish(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error) {
	steps, err := json.Marshal(schema.Steps)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode schema steps", goerr.V("form_key", schema.FormKey))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var latestVersion string
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM form_schemas WHERE form_key = ? ORDER BY seq DESC LIMIT 1`,
		schema.FormKey.String()).Scan(&latestVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(err, "failed to get latest version", goerr.V("form_key", schema.FormKey))
	}
	version := model.NextVersion(latestVersion)
	versionNum, _ := model.ParseVersion(version)

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE form_schemas SET status = ?, updated_at = ? WHERE form_key = ? AND status = ?`,
		types.SchemaStatusDeprecated.String(), toUnix(now),
		schema.FormKey.String(), types.SchemaStatusActive.String()); err != nil {
		return nil, goerr.Wrap(err, "failed to deprecate active schemas", goerr.V("form_key", schema.FormKey))
	}

	created := schema.Clone()
	created.ID = uuid.NewString()
	created.Version = version
	created.Status = types.SchemaStatusActive
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO form_schemas (id, form_key, version, version_num, status, steps, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.FormKey.String(), created.Version, versionNum,
		created.Status.String(), string(steps), toUnix(now), toUnix(now)); err != nil {
		if isUniqueViolation(err) {
			return nil, goerr.Wrap(interfaces.ErrVersionConflict, "version already exists",
				goerr.V("form_key", schema.FormKey),
				goerr.V("version", version))
		}
		return nil, goerr.Wrap(err, "failed to insert schema", goerr.V("form_key", schema.FormKey))
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit schema", goerr.V("form_key", schema.FormKey))
	}

	// round trip through JSON so the returned value matches what Get reads back
	var stored []model.FormStep
	if err := json.Unmarshal(steps, &stored); err != nil {
		return nil, goerr.Wrap(err, "failed to decode schema steps")
	}
	created.Steps = stored
	return created, nil
}
