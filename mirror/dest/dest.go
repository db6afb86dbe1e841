package dest

import (
	"context"
	"strings"
)

// Pattern: Strategy -- swap destination platform without
// changing the mirroring logic.

// Destination lists and creates repositories on the
// destination git hosting platform and builds the
// authenticated URLs used for pushing.
type Destination interface {
	// List returns the names of the repositories that
	// already exist on the destination.
	List(ctx context.Context) ([]string, error)

	// Create provisions a repository. Implementations
	// treat an already existing name as success so a
	// rerun converges instead of failing.
	Create(ctx context.Context, name string) error

	// PushURL returns the HTTPS URL for pushing to the
	// named repository, with the access token embedded
	// as userinfo. Never log the result unredacted.
	PushURL(name string) string

	// Host returns the platform host for log records.
	Host() string
}

// NormalizeName rewrites a repository name that is not
// accepted by destination platforms. A leading period
// becomes a leading underscore; everything else passes
// through unchanged.
func NormalizeName(name string) string {
	if strings.HasPrefix(name, ".") {
		return "_" + name[1:]
	}

	return name
}
