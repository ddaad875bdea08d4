// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"errors"
	"fmt"

	"github.com/hexframe/hexmap/services/mapcache/coord"
)

// Sentinel errors for the normalized store.
var (
	// ErrInvalidKey indicates an action referenced a malformed coordinate-id.
	ErrInvalidKey = errors.New("invalid coordinate-id key")

	// ErrUnknownAction indicates a value outside the Action union reached
	// the reducer.
	ErrUnknownAction = errors.New("unknown store action")
)

func checkKey(id string) error {
	if !coord.ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, id)
	}
	return nil
}
