package bootstrap

import "context"

// Storage is the shared infrastructure handle passed to optional modules.
// Applications pass their database pool here.
type Storage any

// Seeder loads reference data into a storage implementation.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks an application runs once its
// storage is up.
type Modules struct {
	Seeders []Seeder
}

// Seed runs every registered seeder in order, stopping at the first error.
func (m Modules) Seed(ctx context.Context, storage Storage) error {
	for _, s := range m.Seeders {
		if err := s.Seed(ctx, storage); err != nil {
			return err
		}
	}
	return nil
}
