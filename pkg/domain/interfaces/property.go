package interfaces

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// PropertySort is the order of a property listing
type PropertySort string

const (
	PropertySortNewest    PropertySort = "newest"
	PropertySortOldest    PropertySort = "oldest"
	PropertySortPriceAsc  PropertySort = "price_asc"
	PropertySortPriceDesc PropertySort = "price_desc"
	PropertySortAreaDesc  PropertySort = "area_desc"
)

// ParsePropertySort returns the sort for s, falling back to newest
func ParsePropertySort(s string) PropertySort {
	switch PropertySort(s) {
	case PropertySortOldest, PropertySortPriceAsc, PropertySortPriceDesc, PropertySortAreaDesc:
		return PropertySort(s)
	default:
		return PropertySortNewest
	}
}

// ListPropertyOptions filters and pages a property listing
type ListPropertyOptions struct {
	// CreatedBy limits the listing to one owner when not empty
	CreatedBy types.UserID
	// Query matches the title case-insensitively as a substring
	Query  string
	Sort   PropertySort
	Offset int
	Limit  int
}

// PropertyRepository stores submitted properties
type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) (*model.Property, error)
	Get(ctx context.Context, id types.PropertyID) (*model.Property, error)
	Update(ctx context.Context, p *model.Property) (*model.Property, error)

	// List returns one page of properties and the total number of matches
	List(ctx context.Context, opts ListPropertyOptions) ([]*model.Property, int, error)
}
