package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

func TestProjectLegacy(t *testing.T) {
	t.Run("defaults when absent", func(t *testing.T) {
		cols := model.ProjectLegacy(map[string]any{})
		gt.Value(t, cols).Equal(model.LegacyColumns{
			Title:        "Untitled Property",
			PropertyType: "apartment",
			ListingType:  "sale",
		})
	})

	t.Run("coerces numbers", func(t *testing.T) {
		cols := model.ProjectLegacy(map[string]any{
			"title":        "Plot A",
			"city":         "Pune",
			"asking_price": "500000",
			"area_sqft":    1200.0,
			"listing_type": "rent",
		})
		gt.Value(t, cols.Title).Equal("Plot A")
		gt.Value(t, cols.City).Equal("Pune")
		gt.Value(t, cols.AskingPrice).Equal(500000.0)
		gt.Value(t, cols.AreaSqft).Equal(1200.0)
		gt.Value(t, cols.ListingType).Equal("rent")
		gt.Value(t, cols.PropertyType).Equal("apartment")
	})

	t.Run("unparsable number becomes zero", func(t *testing.T) {
		cols := model.ProjectLegacy(map[string]any{"asking_price": "a lot"})
		gt.Value(t, cols.AskingPrice).Equal(0.0)
	})
}

func TestPatchLegacy(t *testing.T) {
	existing := model.LegacyColumns{
		Title:        "Plot A",
		City:         "Pune",
		PropertyType: "plot",
		ListingType:  "sale",
		AskingPrice:  100,
	}

	t.Run("only present keys overwrite", func(t *testing.T) {
		cols := model.PatchLegacy(existing, map[string]any{"asking_price": 500000})
		gt.Value(t, cols.AskingPrice).Equal(500000.0)
		gt.Value(t, cols.City).Equal("Pune")
		gt.Value(t, cols.Title).Equal("Plot A")
	})

	t.Run("empty values are absent", func(t *testing.T) {
		cols := model.PatchLegacy(existing, map[string]any{"city": "", "title": nil})
		gt.Value(t, cols).Equal(existing)
	})

	t.Run("zero is a value", func(t *testing.T) {
		cols := model.PatchLegacy(existing, map[string]any{"asking_price": 0.0})
		gt.Value(t, cols.AskingPrice).Equal(0.0)
	})
}

func TestNewPayload(t *testing.T) {
	schema := newTestSchema()
	raw := map[string]any{
		"title":         "Plot A",
		"asking_price":  "500000",
		"internal_note": "sneaky",
		"legacy_extra":  "kept",
		"kind":          "",
	}

	typed, err := model.NewFieldValidator().ValidateSchema(schema, types.RoleBroker, raw)
	gt.NoError(t, err).Required()

	payload := model.NewPayload(schema, types.RoleBroker, typed, raw)
	gt.Value(t, payload["title"]).Equal(any("Plot A"))
	gt.Value(t, payload["asking_price"]).Equal(any(500000.0))
	gt.Value(t, payload["legacy_extra"]).Equal(any("kept"))

	// an optional field left blank is stored as submitted
	kind, ok := payload["kind"]
	gt.Bool(t, ok).True()
	gt.Value(t, kind).Equal(any(""))

	_, ok = payload["internal_note"]
	gt.Bool(t, ok).False()
}

func TestLegacyKeys(t *testing.T) {
	keys := model.LegacyKeys()
	gt.A(t, keys).Length(8)
	gt.A(t, keys).Has("asking_price")
}

func TestProperty_Clone(t *testing.T) {
	p := &model.Property{ID: "p1", Data: map[string]any{"title": "Plot A"}}
	c := p.Clone()
	c.Data["title"] = "Changed"
	gt.Value(t, p.Data["title"]).Equal(any("Plot A"))
}
