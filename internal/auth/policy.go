package auth

import (
	"github.com/nahid/queryhive-server/internal/apperror"
)

// AssertOwner is the single ownership policy for the whole API.
//
// Every owner-only handler compares the authenticated identity against the
// owner email of the resource being requested with this one function. The
// app this replaces had three hand-copied variants of the comparison, which
// had already started to drift; centralizing it makes the rule impossible
// to get subtly wrong per route.
//
// Returns nil when identity matches owner, apperror Unauthenticated when
// there is no identity at all, and apperror Forbidden on a mismatch.
func AssertOwner(identity, owner string) error {
	if identity == "" {
		return apperror.Unauthenticated("authentication required")
	}
	if identity != owner {
		return apperror.Forbidden("you do not have access to this resource")
	}
	return nil
}
