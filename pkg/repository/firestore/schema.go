package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SchemaCollection is the base name of the schema collection
const SchemaCollection = "form_schemas"

type schemaRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

// schemaDoc adds the numeric version used for ordering active lookups
type schemaDoc struct {
	model.FormSchema
	VersionNum int `firestore:"version_num"`
}

func newSchemaRepository(client *firestore.Client) *schemaRepository {
	return &schemaRepository{client: client}
}

func (r *schemaRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, SchemaCollection))
}

// docID makes the document ID the uniqueness constraint of (form key, version)
func docID(formKey types.FormKey, version string) string {
	return formKey.String() + "@" + version
}

func decodeSchema(doc *firestore.DocumentSnapshot) (*model.FormSchema, error) {
	var d schemaDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode schema", goerr.V("doc_id", doc.Ref.ID))
	}
	return &d.FormSchema, nil
}

func (r *schemaRepository) Get(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error) {
	doc, err := r.collection().Doc(docID(formKey, version)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "schema not found",
				goerr.V("form_key", formKey),
				goerr.V("version", version))
		}
		return nil, goerr.Wrap(err, "failed to get schema",
			goerr.V("form_key", formKey),
			goerr.V("version", version))
	}
	return decodeSchema(doc)
}

func (r *schemaRepository) first(ctx context.Context, q firestore.Query, formKey types.FormKey) (*model.FormSchema, error) {
	iter := q.Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "schema not found", goerr.V("form_key", formKey))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query schema", goerr.V("form_key", formKey))
	}
	return decodeSchema(doc)
}

func (r *schemaRepository) GetActive(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	q := r.collection().
		Where("form_key", "==", formKey.String()).
		Where("status", "==", types.SchemaStatusActive.String()).
		OrderBy("version_num", firestore.Desc)
	return r.first(ctx, q, formKey)
}

func (r *schemaRepository) latestQuery(formKey types.FormKey) firestore.Query {
	return r.collection().
		Where("form_key", "==", formKey.String()).
		OrderBy("created_at", firestore.Desc)
}

func (r *schemaRepository) GetLatest(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	return r.first(ctx, r.latestQuery(formKey), formKey)
}

func (r *schemaRepository) List(ctx context.Context, formKey types.FormKey) ([]*model.FormSchema, error) {
	iter := r.latestQuery(formKey).Documents(ctx)
	defer iter.Stop()

	var schemas []*model.FormSchema
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate schemas", goerr.V("form_key", formKey))
		}

		s, err := decodeSchema(doc)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}

	if schemas == nil {
		schemas = []*model.FormSchema{}
	}
	return schemas, nil
}

func (r *schemaRepository) ListFormKeys(ctx context.Context) ([]types.FormKey, error) {
	iter := r.collection().Select("form_key").Documents(ctx)
	defer iter.Stop()

	seen := make(map[types.FormKey]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate schemas")
		}

		v, err := doc.DataAt("form_key")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read form key", goerr.V("doc_id", doc.Ref.ID))
		}
		if s, ok := v.(string); ok {
			seen[types.FormKey(s)] = true
		}
	}

	keys := make([]types.FormKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (r *schemaRepository) Publish(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error) {
	var created *model.FormSchema

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// all reads precede writes in a firestore transaction
		latestDocs, err := tx.Documents(r.latestQuery(schema.FormKey).Limit(1)).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to get latest schema")
		}
		var latestVersion string
		if len(latestDocs) > 0 {
			latest, err := decodeSchema(latestDocs[0])
			if err != nil {
				return err
			}
			latestVersion = latest.Version
		}
		version := model.NextVersion(latestVersion)
		versionNum, _ := model.ParseVersion(version)

		ref := r.collection().Doc(docID(schema.FormKey, version))
		if _, err := tx.Get(ref); err == nil {
			return goerr.Wrap(interfaces.ErrVersionConflict, "version already exists",
				goerr.V("form_key", schema.FormKey),
				goerr.V("version", version))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check version", goerr.V("version", version))
		}

		activeDocs, err := tx.Documents(r.collection().
			Where("form_key", "==", schema.FormKey.String()).
			Where("status", "==", types.SchemaStatusActive.String())).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to get active schemas")
		}

		now := time.Now().UTC()
		created = schema.Clone()
		created.ID = uuid.NewString()
		created.Version = version
		created.Status = types.SchemaStatusActive
		created.CreatedAt = now
		created.UpdatedAt = now

		if err := tx.Create(ref, schemaDoc{FormSchema: *created, VersionNum: versionNum}); err != nil {
			return goerr.Wrap(err, "failed to create schema")
		}
		for _, doc := range activeDocs {
			if err := tx.Update(doc.Ref, []firestore.Update{
				{Path: "status", Value: types.SchemaStatusDeprecated.String()},
				{Path: "updated_at", Value: now},
			}); err != nil {
				return goerr.Wrap(err, "failed to deprecate schema", goerr.V("doc_id", doc.Ref.ID))
			}
		}
		return nil
	})

	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrVersionConflict, "version created concurrently",
				goerr.V("form_key", schema.FormKey),
				goerr.V("reason", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to publish schema", goerr.V("form_key", schema.FormKey))
	}

	return created, nil
}
