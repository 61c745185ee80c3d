package repo

import (
	"fmt"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

func notFound(t store.Table) error {
	return fmt.Errorf("no matching %s row: %w", t.Name, shop.ErrNotFound)
}

// checkRange rejects values the integer columns cannot hold.
func checkRange(name string, n int) error {
	if n > shop.MaxInt {
		return invalid("%s must not exceed %d, got %d", name, shop.MaxInt, n)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shop.ErrInvalid, fmt.Sprintf(format, args...))
}
