package interfaces

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned by every repository when the requested record does not exist
	ErrNotFound = goerr.New("not found")

	// ErrVersionConflict is returned by SchemaRepository.Publish when another
	// writer took the allocated (form key, version) pair first
	ErrVersionConflict = goerr.New("schema version conflict")
)

// Repository defines the interface for data persistence
type Repository interface {
	Schema() SchemaRepository
	Property() PropertyRepository
	Profile() ProfileRepository

	Close() error
}
