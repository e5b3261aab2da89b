package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/cli"
	"github.com/plotline-dev/plotline/pkg/cli/config"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

const listingSchema = `
form_key = "LISTING"

[[steps]]
step_id = "basic"
title = "Basic Info"

  [[steps.fields]]
  key = "title"
  type = "text"
  label = "Title"
  validation = { required = true }

  [[steps.fields]]
  key = "asking_price"
  type = "number"
  label = "Asking Price"
  validation = { min = 0.0 }
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestRun_SchemaLint(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "listing.toml", listingSchema)

	t.Run("valid file passes", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{"plotline", "schema", "lint", valid}, "test")
		gt.NoError(t, err)
	})

	t.Run("duplicate field key fails", func(t *testing.T) {
		broken := writeFile(t, dir, "broken.toml", listingSchema+`
  [[steps.fields]]
  key = "title"
  type = "text"
  label = "Again"
`)
		err := cli.Run(context.Background(), []string{"plotline", "schema", "lint", valid, broken}, "test")
		gt.Error(t, err)
	})

	t.Run("unknown key fails", func(t *testing.T) {
		broken := writeFile(t, dir, "unknown.toml", listingSchema+"\ncolour = \"red\"\n")
		err := cli.Run(context.Background(), []string{"plotline", "schema", "lint", broken}, "test")
		gt.Error(t, err)
	})

	t.Run("no file given", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{"plotline", "schema", "lint"}, "test")
		gt.Error(t, err)
	})
}

func TestRun_SchemaImportExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "plotline.db")
	schemaPath := writeFile(t, dir, "listing.toml", listingSchema)
	repoArgs := []string{"--repository-backend", "sqlite", "--sqlite-path", dbPath}

	importArgs := append([]string{"plotline", "schema", "import"}, repoArgs...)
	importArgs = append(importArgs, "--builtin", "PROPERTY", schemaPath)
	gt.NoError(t, cli.Run(context.Background(), importArgs, "test")).Required()

	// second import of the same file publishes v2
	again := append([]string{"plotline", "schema", "import"}, repoArgs...)
	again = append(again, schemaPath)
	gt.NoError(t, cli.Run(context.Background(), again, "test")).Required()

	t.Run("export active version", func(t *testing.T) {
		out := filepath.Join(dir, "active.toml")
		args := append([]string{"plotline", "schema", "export"}, repoArgs...)
		args = append(args, "--form-key", "LISTING", "--output", out)
		gt.NoError(t, cli.Run(context.Background(), args, "test")).Required()

		schema, err := config.LoadSchemaFile(out)
		gt.NoError(t, err).Required()
		gt.Value(t, schema.FormKey).Equal(types.FormKey("LISTING"))
		gt.Value(t, schema.Version).Equal("v2")
		gt.A(t, schema.Steps).Length(1)
		gt.A(t, schema.Steps[0].Fields).Length(2)
	})

	t.Run("export exact version", func(t *testing.T) {
		out := filepath.Join(dir, "v1.toml")
		args := append([]string{"plotline", "schema", "export"}, repoArgs...)
		args = append(args, "--form-key", "LISTING", "--version", "v1", "--output", out)
		gt.NoError(t, cli.Run(context.Background(), args, "test")).Required()

		schema, err := config.LoadSchemaFile(out)
		gt.NoError(t, err).Required()
		gt.Value(t, schema.Version).Equal("v1")
	})

	t.Run("export built-in template", func(t *testing.T) {
		out := filepath.Join(dir, "property.toml")
		args := append([]string{"plotline", "schema", "export"}, repoArgs...)
		args = append(args, "--form-key", "PROPERTY", "--output", out)
		gt.NoError(t, cli.Run(context.Background(), args, "test")).Required()

		schema, err := config.LoadSchemaFile(out)
		gt.NoError(t, err).Required()
		gt.A(t, schema.Steps).Length(3)
		_, ok := schema.Field("asking_price")
		gt.Bool(t, ok).True()
	})

	t.Run("missing version fails", func(t *testing.T) {
		args := append([]string{"plotline", "schema", "export"}, repoArgs...)
		args = append(args, "--form-key", "LISTING", "--version", "v9", "--output", filepath.Join(dir, "none.toml"))
		gt.Error(t, cli.Run(context.Background(), args, "test"))
	})
}

func TestRun_SchemaImportRequiresInput(t *testing.T) {
	err := cli.Run(context.Background(), []string{"plotline", "schema", "import", "--repository-backend", "memory"}, "test")
	gt.Error(t, err)
}
