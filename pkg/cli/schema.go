package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/cli/config"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/usecase"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
	"github.com/plotline-dev/plotline/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// cliPrincipal acts for schema operations issued from the command line
var cliPrincipal = &auth.Principal{
	ID:       "cli",
	Role:     types.RoleAdmin,
	Approved: true,
}

func cmdSchema() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Manage form schema definitions",
		Commands: []*cli.Command{
			cmdSchemaImport(),
			cmdSchemaExport(),
			cmdSchemaLint(),
		},
	}
}

func cmdSchemaImport() *cli.Command {
	var repoCfg config.Repository
	var builtin string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "builtin",
			Usage:       "Publish the built-in property template under the given form key",
			Destination: &builtin,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:      "import",
		Usage:     "Publish schema files as new active versions",
		ArgsUsage: "[schema.toml ...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 && builtin == "" {
				return goerr.New("no schema file given, pass files or --builtin")
			}

			schemas := make([]*model.FormSchema, len(paths))
			eg, egCtx := errgroup.WithContext(ctx)
			for i, path := range paths {
				eg.Go(func() error {
					if err := egCtx.Err(); err != nil {
						return err
					}
					schema, err := config.LoadSchemaFile(path)
					if err != nil {
						return err
					}
					schemas[i] = schema
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			if builtin != "" {
				key := types.FormKey(builtin)
				if err := key.Validate(); err != nil {
					return goerr.Wrap(err, "invalid built-in form key")
				}
				schemas = append(schemas, model.PropertyTemplate(key))
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)
			ctx = auth.ContextWithPrincipal(ctx, cliPrincipal)

			// Publish in argument order so repeated keys end with the last file active
			for _, schema := range schemas {
				saved, err := uc.Schema.SaveSchema(ctx, schema)
				if err != nil {
					return goerr.Wrap(err, "failed to publish schema", goerr.V("form_key", schema.FormKey))
				}
				logging.Default().Info("Schema published",
					"form_key", saved.FormKey,
					"version", saved.Version,
					"id", saved.ID)
			}
			return nil
		},
	}
}

func cmdSchemaExport() *cli.Command {
	var repoCfg config.Repository
	var formKey string
	var version string
	var output string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "form-key",
			Usage:       "Form key to export",
			Required:    true,
			Destination: &formKey,
		},
		&cli.StringFlag{
			Name:        "version",
			Usage:       "Exact version to export (defaults to the active one)",
			Destination: &version,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file (defaults to stdout)",
			Destination: &output,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Write a stored schema version as TOML",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)
			ctx = auth.ContextWithPrincipal(ctx, cliPrincipal)

			schema, err := uc.Schema.GetSchema(ctx, types.FormKey(formKey), version)
			if err != nil {
				return err
			}

			data, err := config.MarshalSchema(schema)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := writerOf(c).Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return goerr.Wrap(err, "failed to write schema file", goerr.V("path", output))
			}
			return nil
		},
	}
}

func cmdSchemaLint() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Check schema files without publishing them",
		ArgsUsage: "schema.toml [...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("no schema file given")
			}

			w := writerOf(c)
			ok := color.New(color.FgGreen, color.Bold)
			fail := color.New(color.FgRed, color.Bold)

			var failed int
			for _, path := range paths {
				schema, err := config.LoadSchemaFile(path)
				if err != nil {
					failed++
					_, _ = fail.Fprint(w, "FAIL")
					_, _ = io.WriteString(w, " "+path+": "+err.Error()+"\n")
					logging.Default().Debug("schema lint failed", "path", path, "error", err)
					continue
				}
				_, _ = ok.Fprint(w, "OK")
				_, _ = io.WriteString(w, " "+path+" ("+schema.FormKey.String()+")\n")
			}

			if failed > 0 {
				return goerr.New("schema lint failed", goerr.V("failed", failed), goerr.V("total", len(paths)))
			}
			return nil
		},
	}
}

func writerOf(c *cli.Command) io.Writer {
	if root := c.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
