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

package types

import "time"

// User is the public profile projection of a user. It never carries
// credentials.
type User struct {
	// ID is the unique ID of the user.
	ID ID `json:"id"`

	// Username is the unique username of the user.
	Username string `json:"username"`

	// Nickname is the display name of the user.
	Nickname string `json:"nickname"`

	// Bio is the short self-description of the user.
	Bio string `json:"bio"`

	// CreatedAt is the time when the user was created.
	CreatedAt time.Time `json:"created_at"`
}

// SignUpFields is a set of fields used to sign up. The slug constraint keeps
// usernames lowercase, which makes them a stable mention target.
type SignUpFields struct {
	Username string `validate:"required,min=2,max=30,slug"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=30"`
}

// Validate validates the SignUpFields.
func (f *SignUpFields) Validate() error {
	return validateStruct(f)
}

// UpdatableUserFields is a set of fields used to update a user profile.
// Fields left nil are not touched.
type UpdatableUserFields struct {
	Nickname *string `bson:"nickname,omitempty" validate:"omitempty,max=30"`
	Bio      *string `bson:"bio,omitempty" validate:"omitempty,max=500"`
}

// Validate validates the UpdatableUserFields.
func (f *UpdatableUserFields) Validate() error {
	if f.Nickname == nil && f.Bio == nil {
		return ErrEmptyUserFields
	}

	return validateStruct(f)
}
