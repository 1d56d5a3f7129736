/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity is returned when the configured cache capacity is not positive.
var ErrInvalidCapacity = errors.New("invalid capacity, must be greater than 0")

func checkCapacity(maxSize int) error {
	if maxSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, maxSize)
	}
	return nil
}
