package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PropertyCollection is the base name of the property collection
const PropertyCollection = "properties"

type propertyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newPropertyRepository(client *firestore.Client) *propertyRepository {
	return &propertyRepository{client: client}
}

func (r *propertyRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, PropertyCollection))
}

func (r *propertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	created := p.Clone()
	if created.ID == "" {
		created.ID = types.NewPropertyID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, created); err != nil {
		return nil, goerr.Wrap(err, "failed to create property", goerr.V("id", created.ID))
	}
	return created, nil
}

func (r *propertyRepository) Get(ctx context.Context, id types.PropertyID) (*model.Property, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get property", goerr.V("id", id))
	}

	var p model.Property
	if err := doc.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode property", goerr.V("id", id))
	}
	return &p, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	var updated *model.Property
	ref := r.collection().Doc(p.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "property not found", goerr.V("id", p.ID))
			}
			return goerr.Wrap(err, "failed to get property", goerr.V("id", p.ID))
		}

		var existing model.Property
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode property", goerr.V("id", p.ID))
		}

		updated = p.Clone()
		updated.CreatedBy = existing.CreatedBy
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update property", goerr.V("id", p.ID))
	}
	return updated, nil
}

func orderProperties(q firestore.Query, order interfaces.PropertySort) firestore.Query {
	switch order {
	case interfaces.PropertySortOldest:
		return q.OrderBy("created_at", firestore.Asc)
	case interfaces.PropertySortPriceAsc:
		return q.OrderBy("legacy.asking_price", firestore.Asc).OrderBy("created_at", firestore.Desc)
	case interfaces.PropertySortPriceDesc:
		return q.OrderBy("legacy.asking_price", firestore.Desc).OrderBy("created_at", firestore.Desc)
	case interfaces.PropertySortAreaDesc:
		return q.OrderBy("legacy.area_sqft", firestore.Desc).OrderBy("created_at", firestore.Desc)
	default:
		return q.OrderBy("created_at", firestore.Desc)
	}
}

func (r *propertyRepository) List(ctx context.Context, opts interfaces.ListPropertyOptions) ([]*model.Property, int, error) {
	q := r.collection().Query
	if opts.CreatedBy != "" {
		q = q.Where("created_by", "==", opts.CreatedBy.String())
	}

	// title substring search is not expressible as a firestore filter, so
	// the filtered listing is paged on the client
	if opts.Query != "" {
		return r.listFiltered(ctx, orderProperties(q, opts.Sort), opts)
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	paged := orderProperties(q, opts.Sort)
	if opts.Offset > 0 {
		paged = paged.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		paged = paged.Limit(opts.Limit)
	}

	props, err := r.collect(ctx, paged, nil)
	if err != nil {
		return nil, 0, err
	}
	return props, total, nil
}

func (r *propertyRepository) listFiltered(ctx context.Context, q firestore.Query, opts interfaces.ListPropertyOptions) ([]*model.Property, int, error) {
	query := strings.ToLower(opts.Query)
	matched, err := r.collect(ctx, q, func(p *model.Property) bool {
		return strings.Contains(strings.ToLower(p.Legacy.Title), query)
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	return matched[start:end], total, nil
}

func (r *propertyRepository) collect(ctx context.Context, q firestore.Query, keep func(*model.Property) bool) ([]*model.Property, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	props := []*model.Property{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate properties")
		}

		var p model.Property
		if err := doc.DataTo(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode property", goerr.V("doc_id", doc.Ref.ID))
		}
		if keep == nil || keep(&p) {
			props = append(props, &p)
		}
	}
	return props, nil
}

func (r *propertyRepository) count(ctx context.Context, q firestore.Query) (int, error) {
	result, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count properties")
	}

	v, ok := result["total"].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result", goerr.V("result", result["total"]))
	}
	return int(v.GetIntegerValue()), nil
}
