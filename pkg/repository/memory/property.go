package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

type propertyRepository struct {
	mu         sync.RWMutex
	properties map[types.PropertyID]*model.Property
}

func newPropertyRepository() *propertyRepository {
	return &propertyRepository{
		properties: make(map[types.PropertyID]*model.Property),
	}
}

func (r *propertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := p.Clone()
	if created.ID == "" {
		created.ID = types.NewPropertyID()
	}
	if _, exists := r.properties[created.ID]; exists {
		return nil, goerr.New("property already exists", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.properties[created.ID] = created
	return created.Clone(), nil
}

func (r *propertyRepository) Get(ctx context.Context, id types.PropertyID) (*model.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.properties[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", id))
	}
	return p.Clone(), nil
}

func (r *propertyRepository) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.properties[p.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", p.ID))
	}

	updated := p.Clone()
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.properties[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *propertyRepository) List(ctx context.Context, opts interfaces.ListPropertyOptions) ([]*model.Property, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(opts.Query)
	matched := make([]*model.Property, 0, len(r.properties))
	for _, p := range r.properties {
		if opts.CreatedBy != "" && p.CreatedBy != opts.CreatedBy {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Legacy.Title), query) {
			continue
		}
		matched = append(matched, p)
	}

	sortProperties(matched, opts.Sort)

	total := len(matched)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	page := make([]*model.Property, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, p.Clone())
	}
	return page, total, nil
}

func sortProperties(props []*model.Property, order interfaces.PropertySort) {
	newer := func(a, b *model.Property) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}

	sort.SliceStable(props, func(i, j int) bool {
		a, b := props[i], props[j]
		switch order {
		case interfaces.PropertySortOldest:
			return newer(b, a)
		case interfaces.PropertySortPriceAsc:
			if a.Legacy.AskingPrice != b.Legacy.AskingPrice {
				return a.Legacy.AskingPrice < b.Legacy.AskingPrice
			}
		case interfaces.PropertySortPriceDesc:
			if a.Legacy.AskingPrice != b.Legacy.AskingPrice {
				return a.Legacy.AskingPrice > b.Legacy.AskingPrice
			}
		case interfaces.PropertySortAreaDesc:
			if a.Legacy.AreaSqft != b.Legacy.AreaSqft {
				return a.Legacy.AreaSqft > b.Legacy.AreaSqft
			}
		}
		return newer(a, b)
	})
}
