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

// Team is a team that groups projects and members.
type Team struct {
	// ID is the unique ID of the team.
	ID ID `json:"id"`

	// Slug is the unique slug of the team.
	Slug string `json:"slug"`

	// Name is the display name of the team.
	Name string `json:"name"`

	// Owner is the ID of the user who owns the team.
	Owner ID `json:"owner"`

	// Members are the members of the team including the owner.
	Members []TeamMember `json:"members"`

	// DefaultVisibility is the visibility applied to newly created projects.
	DefaultVisibility string `json:"default_visibility"`

	// CreatedAt is the time when the team was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time when the team was updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamMember is a single membership entry of a team.
type TeamMember struct {
	// UserID is the ID of the member.
	UserID ID `json:"user_id"`

	// Username is the username of the member, filled from the identity
	// directory on enrichment.
	Username string `json:"username,omitempty"`

	// Role is the role of the member in the team.
	Role string `json:"role"`

	// JoinedAt is the time when the member joined the team.
	JoinedAt time.Time `json:"joined_at"`
}

// CreateTeamFields is a set of fields used to create a team.
type CreateTeamFields struct {
	Slug string `validate:"required,min=2,max=30,slug,reservedslug"`
	Name string `validate:"required,min=1,max=50"`
}

// Validate validates the CreateTeamFields.
func (f *CreateTeamFields) Validate() error {
	return validateStruct(f)
}
