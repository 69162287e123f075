package judge

import (
	"errors"
	"strings"
)

// Marker is the substitution point in every wrapper template where the
// solution code is spliced in.
const Marker = "{USER_CODE}"

// ErrMissingMarker means a wrapper template has no substitution point.
// Problem authoring validates wrappers up front, so hitting this at
// submission time indicates a stored problem that predates that check.
var ErrMissingMarker = errors.New("wrapper template is missing the " + Marker + " marker")

// ComposeSource splices the solution into the wrapper at the first marker
// occurrence. The solution is inserted verbatim; the rest of the wrapper is
// unchanged.
func ComposeSource(solution, wrapper string) (string, error) {
	if !strings.Contains(wrapper, Marker) {
		return "", ErrMissingMarker
	}
	return strings.Replace(wrapper, Marker, solution, 1), nil
}

// HasMarker reports whether a wrapper template contains the substitution
// point. Used by problem authoring to reject bad wrappers before any
// dispatch.
func HasMarker(wrapper string) bool {
	return strings.Contains(wrapper, Marker)
}
