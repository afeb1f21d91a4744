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

// Project is a project that collects status updates inside a team.
type Project struct {
	// ID is the unique ID of the project.
	ID ID `json:"id"`

	// TeamID is the ID of the team that owns the project.
	TeamID ID `json:"team_id"`

	// Slug is the slug of the project, unique within the team.
	Slug string `json:"slug"`

	// Name is the display name of the project.
	Name string `json:"name"`

	// Owner is the ID of the user who owns the project.
	Owner ID `json:"owner"`

	// Collaborators are the explicit per-user grants on the project.
	Collaborators []Collaborator `json:"collaborators"`

	// AllUsersAccess is the blanket capability grant applying to any
	// authenticated user absent a more specific grant. One of "", "none",
	// "view", "edit"; "" and "none" are the same logical state.
	AllUsersAccess string `json:"all_users_access"`

	// ShareEnabled is whether anonymous read access via the share token is on.
	ShareEnabled bool `json:"share_enabled"`

	// Stats is the cached aggregate over the project's updates.
	Stats ProjectStats `json:"stats"`

	// PinnedUpdateID is the ID of the currently pinned update, if any.
	PinnedUpdateID ID `json:"pinned_update_id,omitempty"`

	// CreatedAt is the time when the project was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time when the project was updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Collaborator is a single explicit grant entry of a project.
type Collaborator struct {
	// UserID is the ID of the collaborator.
	UserID ID `json:"user_id"`

	// Username is the username of the collaborator, filled on enrichment.
	Username string `json:"username,omitempty"`

	// Role is the role of the collaborator in the project.
	Role string `json:"role"`

	// AddedAt is the time when the collaborator was added.
	AddedAt time.Time `json:"added_at"`
}

// ProjectStats is the cached aggregate over a project's updates. TotalUpdates
// is maintained by increment and decrement on every insert and delete path,
// never recomputed by counting.
type ProjectStats struct {
	// TotalUpdates is the number of updates in the project.
	TotalUpdates int64 `json:"total_updates"`

	// LastUpdateAt is the creation time of the most recent update.
	LastUpdateAt time.Time `json:"last_update_at"`
}

// CreateProjectFields is a set of fields used to create a project.
type CreateProjectFields struct {
	Slug string `validate:"required,min=2,max=30,slug,reservedslug"`
	Name string `validate:"required,min=1,max=50"`
}

// Validate validates the CreateProjectFields.
func (f *CreateProjectFields) Validate() error {
	return validateStruct(f)
}
