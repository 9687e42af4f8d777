package warehouse

import (
	"fmt"
	"strings"

	"catalog-sync/core/catalog"
)

// RemoteQueryError reports a failed listing. It is returned as a value so a caller can
// record it against the scope that failed and move on to the next one.
type RemoteQueryError struct {
	Kind  catalog.Kind
	Scope []string
	Query string
	Err   error
}

func (e *RemoteQueryError) Error() string {
	if len(e.Scope) == 0 {
		return fmt.Sprintf("listing %s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("listing %s in %s failed: %v", e.Kind, strings.Join(e.Scope, "."), e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}
