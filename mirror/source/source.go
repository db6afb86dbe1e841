package source

import "context"

// Repository describes one repository on the source
// platform, reduced to the fields a mirroring run needs.
type Repository struct {
	// Name is the repository name without the owner part.
	Name string
	// DefaultBranch is the branch that gets mirrored. An
	// empty value means the repository has no commits.
	DefaultBranch string
	// CloneURL is the HTTPS URL used to clone the
	// repository.
	CloneURL string
}

// Lister enumerates the repositories of the source
// platform that are eligible for mirroring.
//
// Pattern: Strategy -- swap the source platform without
// changing the synchronization logic.
type Lister interface {
	// List returns eligible repositories sorted by name.
	List(ctx context.Context) ([]Repository, error)
}

// ListerFunc is a function adapter implementing Lister.
type ListerFunc func(ctx context.Context) ([]Repository, error)

// List calls f.
func (f ListerFunc) List(ctx context.Context) ([]Repository, error) {
	return f(ctx)
}
