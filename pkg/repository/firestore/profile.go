package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProfileCollection is the base name of the profile collection
const ProfileCollection = "profiles"

type profileRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, ProfileCollection))
}

func (r *profileRepository) Get(ctx context.Context, id types.UserID) (*model.Profile, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "profile not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("id", id))
	}

	var p model.Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("id", id))
	}
	return &p, nil
}

func (r *profileRepository) Put(ctx context.Context, p *model.Profile) error {
	if _, err := r.collection().Doc(p.ID.String()).Set(ctx, p); err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("id", p.ID))
	}
	return nil
}

func (r *profileRepository) List(ctx context.Context, pendingOnly bool) ([]*model.Profile, error) {
	q := r.collection().Query
	if pendingOnly {
		q = q.Where("approved", "==", false)
	}
	iter := q.OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	profiles := []*model.Profile{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate profiles")
		}

		var p model.Profile
		if err := doc.DataTo(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("doc_id", doc.Ref.ID))
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}
