package memory

import (
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
)

// Memory keeps every record in process memory. Data is lost on exit.
type Memory struct {
	schema   *schemaRepository
	property *propertyRepository
	profile  *profileRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		schema:   newSchemaRepository(),
		property: newPropertyRepository(),
		profile:  newProfileRepository(),
	}
}

func (m *Memory) Schema() interfaces.SchemaRepository {
	return m.schema
}

func (m *Memory) Property() interfaces.PropertyRepository {
	return m.property
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) Close() error {
	return nil
}
