package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/repository/firestore"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("PLOTLINE_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("PLOTLINE_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix of every Firestore collection name",
				Sources:     cli.EnvVars("PLOTLINE_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			// Get index configuration
			indexConfig := getIndexConfig(collectionPrefix)

			// Create fireconf client
			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
			} else {
				logger.Info("Applying migrations")
				if err := client.Migrate(ctx, indexConfig); err != nil {
					return goerr.Wrap(err, "failed to apply migrations")
				}
				logger.Info("Migrations applied successfully")
			}

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration for the queries
// issued by the Firestore repository
func getIndexConfig(prefix string) *fireconf.Config {
	byCreated := func(fields ...fireconf.IndexField) fireconf.Index {
		return fireconf.Index{
			Fields: append(fields, fireconf.IndexField{Path: "created_at", Order: fireconf.OrderDescending}),
		}
	}
	owner := fireconf.IndexField{Path: "created_by", Order: fireconf.OrderAscending}
	priceAsc := fireconf.IndexField{Path: "legacy.asking_price", Order: fireconf.OrderAscending}
	priceDesc := fireconf.IndexField{Path: "legacy.asking_price", Order: fireconf.OrderDescending}
	areaDesc := fireconf.IndexField{Path: "legacy.area_sqft", Order: fireconf.OrderDescending}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionName(prefix, firestore.SchemaCollection),
				Indexes: []fireconf.Index{
					// GetActive: form_key ASC, status ASC, version_num DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "form_key", Order: fireconf.OrderAscending},
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "version_num", Order: fireconf.OrderDescending},
						},
					},
					// GetLatest, List: form_key ASC, created_at DESC
					byCreated(fireconf.IndexField{Path: "form_key", Order: fireconf.OrderAscending}),
				},
			},
			{
				Name: firestore.CollectionName(prefix, firestore.PropertyCollection),
				Indexes: []fireconf.Index{
					// own listing, newest and oldest first
					byCreated(owner),
					{
						Fields: []fireconf.IndexField{
							owner,
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
					// price and area sorts, with and without the owner filter
					byCreated(priceAsc),
					byCreated(priceDesc),
					byCreated(areaDesc),
					byCreated(owner, priceAsc),
					byCreated(owner, priceDesc),
					byCreated(owner, areaDesc),
				},
			},
			{
				Name: firestore.CollectionName(prefix, firestore.ProfileCollection),
				Indexes: []fireconf.Index{
					// pending users: approved ASC, created_at ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "approved", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
