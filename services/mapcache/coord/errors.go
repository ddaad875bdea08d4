// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coord

import "errors"

// Sentinel errors for coordinate parsing and rebasing.
var (
	// ErrMalformedID indicates a coordinate-id that does not match the
	// canonical "owner,group:d1,d2,..." form.
	ErrMalformedID = errors.New("malformed coordinate id")

	// ErrBadDirection indicates a path segment outside the valid
	// direction range.
	ErrBadDirection = errors.New("direction out of range")

	// ErrNotDescendant indicates a rebase of a coordinate that is not
	// inside the old prefix's subtree.
	ErrNotDescendant = errors.New("coordinate not within old prefix subtree")
)
