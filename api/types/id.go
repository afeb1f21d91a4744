/*
 * Copyright 2025 The TeamPulse Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package types provides the types shared by the server packages and external
// callers of the core.
package types

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

var (
	// ErrInvalidID is returned when the given ID is not a valid xid.
	ErrInvalidID = errors.New("invalid ID")
)

// ID represents an ID of an entity. IDs are xid strings: they embed their
// creation time, so the lexicographic order of IDs agrees with creation
// order. Feeds rely on this to keep `(createdAt desc, id desc)` a total
// order expressible as a plain ID comparison.
type ID string

// MaxID is the highest possible ID value. It is used as the starting offset
// for backward iteration when no cursor is given.
const MaxID = ID("zzzzzzzzzzzzzzzzzzzz")

// NewID returns a new time-ordered ID.
func NewID() ID {
	return ID(xid.New().String())
}

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns an error if this ID is not a well-formed xid string.
func (id ID) Validate() error {
	if _, err := xid.FromString(id.String()); err != nil {
		return fmt.Errorf("%s: %w", id, ErrInvalidID)
	}

	return nil
}

// Time returns the creation time embedded in this ID.
func (id ID) Time() (int64, error) {
	parsed, err := xid.FromString(id.String())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", id, ErrInvalidID)
	}

	return parsed.Time().Unix(), nil
}
