package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

type propertyRepository struct {
	db *sql.DB
}

const propertyColumns = `id, created_by, form_key, form_version, data,
	title, city, area, address, property_type, listing_type, asking_price, area_sqft,
	created_at, updated_at`

func scanProperty(row rowScanner) (*model.Property, error) {
	var (
		p                            model.Property
		id, createdBy, formKey, data string
		createdAt, updatedAt         int64
	)
	if err := row.Scan(&id, &createdBy, &formKey, &p.FormVersion, &data,
		&p.Legacy.Title, &p.Legacy.City, &p.Legacy.Area, &p.Legacy.Address,
		&p.Legacy.PropertyType, &p.Legacy.ListingType, &p.Legacy.AskingPrice, &p.Legacy.AreaSqft,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
		return nil, goerr.Wrap(err, "failed to decode property data", goerr.V("id", id))
	}
	p.ID = types.PropertyID(id)
	p.CreatedBy = types.UserID(createdBy)
	p.FormKey = types.FormKey(formKey)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	created := p.Clone()
	if created.ID == "" {
		created.ID = types.NewPropertyID()
	}
	data, err := json.Marshal(created.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode property data", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	l := created.Legacy
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID.String(), created.CreatedBy.String(), created.FormKey.String(), created.FormVersion, string(data),
		l.Title, l.City, l.Area, l.Address, l.PropertyType, l.ListingType, l.AskingPrice, l.AreaSqft,
		toUnix(now), toUnix(now)); err != nil {
		return nil, goerr.Wrap(err, "failed to insert property", goerr.V("id", created.ID))
	}

	return r.Get(ctx, created.ID)
}

func (r *propertyRepository) Get(ctx context.Context, id types.PropertyID) (*model.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get property", goerr.V("id", id))
	}
	return p, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode property data", goerr.V("id", p.ID))
	}

	l := p.Legacy
	res, err := r.db.ExecContext(ctx,
		`UPDATE properties SET form_key = ?, form_version = ?, data = ?,
			title = ?, city = ?, area = ?, address = ?, property_type = ?, listing_type = ?,
			asking_price = ?, area_sqft = ?, updated_at = ?
		 WHERE id = ?`,
		p.FormKey.String(), p.FormVersion, string(data),
		l.Title, l.City, l.Area, l.Address, l.PropertyType, l.ListingType, l.AskingPrice, l.AreaSqft,
		toUnix(time.Now().UTC()), p.ID.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update property", goerr.V("id", p.ID))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get affected rows", goerr.V("id", p.ID))
	}
	if n == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", p.ID))
	}

	return r.Get(ctx, p.ID)
}

func propertyOrder(order interfaces.PropertySort) string {
	switch order {
	case interfaces.PropertySortOldest:
		return "created_at ASC, id ASC"
	case interfaces.PropertySortPriceAsc:
		return "asking_price ASC, created_at DESC, id DESC"
	case interfaces.PropertySortPriceDesc:
		return "asking_price DESC, created_at DESC, id DESC"
	case interfaces.PropertySortAreaDesc:
		return "area_sqft DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *propertyRepository) List(ctx context.Context, opts interfaces.ListPropertyOptions) ([]*model.Property, int, error) {
	var (
		conds []string
		args  []any
	)
	if opts.CreatedBy != "" {
		conds = append(conds, "created_by = ?")
		args = append(args, opts.CreatedBy.String())
	}
	if opts.Query != "" {
		// LIKE is case-insensitive for ASCII in sqlite
		conds = append(conds, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(opts.Query)+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count properties")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + propertyColumns + ` FROM properties` + where +
		` ORDER BY ` + propertyOrder(opts.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, max(opts.Offset, 0))...)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list properties")
	}
	defer rows.Close()

	props := []*model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to scan property")
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to iterate properties")
	}
	return props, total, nil
}
