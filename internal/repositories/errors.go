package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup resolves no row.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means a missing record, regardless of
// which layer produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
