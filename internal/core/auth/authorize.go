package auth

import (
	"fmt"

	"marketplace-api/internal/domain"
)

// Authorize checks the authenticated principal against the roles an operation
// requires. Called explicitly at the top of each workflow entry point.
func Authorize(c *Claims, roles ...string) error {
	if c == nil {
		return fmt.Errorf("%w: no principal", domain.ErrForbidden)
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if c.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s not allowed", domain.ErrForbidden, c.Role)
}
