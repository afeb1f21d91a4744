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

package database

import (
	"fmt"
	"time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/pkg/errors"
)

const (
	// ProjectOwner is the owner role of a project.
	ProjectOwner ProjectRole = "owner"
	// ProjectEditor is the editor role of a project.
	ProjectEditor ProjectRole = "editor"
	// ProjectViewer is the read-only role of a project.
	ProjectViewer ProjectRole = "viewer"
)

const (
	// AccessNone grants nothing to unlisted users.
	AccessNone AccessLevel = "none"
	// AccessView grants read access to any authenticated user.
	AccessView AccessLevel = "view"
	// AccessEdit grants edit access to any authenticated user.
	AccessEdit AccessLevel = "edit"
)

var (
	// ErrInvalidProjectRole is returned when the given project role is not valid.
	ErrInvalidProjectRole = errors.InvalidArgument("invalid project role").WithCode("ErrInvalidProjectRole")

	// ErrInvalidAccessLevel is returned when the given access level is not valid.
	ErrInvalidAccessLevel = errors.InvalidArgument("invalid access level").WithCode("ErrInvalidAccessLevel")
)

// ProjectRole represents a role of a project collaborator.
type ProjectRole string

// projectRoleRanks orders project roles for "role X or higher" checks.
var projectRoleRanks = map[ProjectRole]int{
	ProjectViewer: 1,
	ProjectEditor: 2,
	ProjectOwner:  3,
}

// String returns the string representation of the role.
func (r ProjectRole) String() string {
	return string(r)
}

// Validate validates the given project role.
func (r ProjectRole) Validate() error {
	if _, ok := projectRoleRanks[r]; !ok {
		return fmt.Errorf("%s: %w", r, ErrInvalidProjectRole)
	}
	return nil
}

// IsAtLeast returns true if this role ranks at or above the required role.
func (r ProjectRole) IsAtLeast(required ProjectRole) bool {
	return projectRoleRanks[r] >= projectRoleRanks[required]
}

// NewProjectRole parses and validates a role string into a ProjectRole.
func NewProjectRole(role string) (ProjectRole, error) {
	r := ProjectRole(role)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// AccessLevel is the blanket "all users" capability grant of a project. It is
// a data-driven grant, not a role: the empty value and AccessNone are the
// same logical state.
type AccessLevel string

// Validate validates the given access level.
func (a AccessLevel) Validate() error {
	switch a {
	case "", AccessNone, AccessView, AccessEdit:
		return nil
	default:
		return fmt.Errorf("%s: %w", a, ErrInvalidAccessLevel)
	}
}

// Grant returns the role granted by this access level to unlisted users.
func (a AccessLevel) Grant() (ProjectRole, bool) {
	switch a {
	case AccessEdit:
		return ProjectEditor, true
	case AccessView:
		return ProjectViewer, true
	default:
		return "", false
	}
}

// CollaboratorInfo is a single explicit grant entry embedded in a project.
// The project exclusively owns its collaborator list.
type CollaboratorInfo struct {
	// UserID is the ID of the collaborator.
	UserID types.ID `bson:"user_id"`

	// Role is the role of the collaborator in the project.
	Role ProjectRole `bson:"role"`

	// AddedAt is the time when the collaborator was added.
	AddedAt time.Time `bson:"added_at"`
}

// ProjectStatsInfo is the cached aggregate over a project's updates.
type ProjectStatsInfo struct {
	// TotalUpdates is the number of updates in the project. It is maintained
	// by increment and decrement on every insert and delete path.
	TotalUpdates int64 `bson:"total_updates"`

	// LastUpdateAt is the creation time of the most recent update.
	LastUpdateAt time.Time `bson:"last_update_at"`
}

// ProjectInfo is a struct for project information.
type ProjectInfo struct {
	// ID is the unique ID of the project.
	ID types.ID `bson:"_id"`

	// TeamID is the ID of the team that owns the project.
	TeamID types.ID `bson:"team_id"`

	// Slug is the slug of the project, unique within the team.
	Slug string `bson:"slug"`

	// Name is the display name of the project.
	Name string `bson:"name"`

	// Owner is the ID of the user who owns the project.
	Owner types.ID `bson:"owner"`

	// Collaborators are the explicit per-user grants on the project.
	Collaborators []CollaboratorInfo `bson:"collaborators"`

	// AllUsersAccess is the blanket access grant of the project.
	AllUsersAccess AccessLevel `bson:"all_users_access"`

	// ShareToken is the opaque token gating anonymous reads. Retained across
	// disable so re-enabling keeps existing links working.
	ShareToken string `bson:"share_token,omitempty"`

	// ShareEnabled is whether anonymous read access is on.
	ShareEnabled bool `bson:"share_enabled"`

	// Stats is the cached aggregate over the project's updates.
	Stats ProjectStatsInfo `bson:"stats"`

	// PinnedUpdateID is the ID of the currently pinned update, if any.
	PinnedUpdateID types.ID `bson:"pinned_update_id,omitempty"`

	// CreatedAt is the time when the project was created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time when the project was updated.
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewProjectInfo creates a new ProjectInfo with the given team, slug, name
// and owner.
func NewProjectInfo(teamID types.ID, slug, name string, owner types.ID) *ProjectInfo {
	return &ProjectInfo{
		TeamID:    teamID,
		Slug:      slug,
		Name:      name,
		Owner:     owner,
		CreatedAt: time.Now(),
	}
}

// DeepCopy returns a deep copy of the ProjectInfo.
func (i *ProjectInfo) DeepCopy() *ProjectInfo {
	if i == nil {
		return nil
	}

	copied := *i
	copied.Collaborators = make([]CollaboratorInfo, len(i.Collaborators))
	copy(copied.Collaborators, i.Collaborators)
	return &copied
}

// ResolveRole returns the effective role of the given user on the project.
// The precedence is fixed: ownership wins, then an explicit collaborator
// grant, then the blanket all-users grant. It must not be reordered.
func (i *ProjectInfo) ResolveRole(userID types.ID) (ProjectRole, bool) {
	if i.Owner == userID {
		return ProjectOwner, true
	}

	for _, c := range i.Collaborators {
		if c.UserID == userID {
			return c.Role, true
		}
	}

	return i.AllUsersAccess.Grant()
}

// AddCollaborator appends an explicit grant for the user.
func (i *ProjectInfo) AddCollaborator(userID types.ID, role ProjectRole) error {
	if err := role.Validate(); err != nil {
		return err
	}
	for _, c := range i.Collaborators {
		if c.UserID == userID {
			return ErrCollaboratorAlreadyExists
		}
	}

	i.Collaborators = append(i.Collaborators, CollaboratorInfo{
		UserID:  userID,
		Role:    role,
		AddedAt: time.Now(),
	})
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateCollaboratorRole changes the explicit grant of the user. The owner
// has no collaborator entry, so the owner's access can never be altered here.
func (i *ProjectInfo) UpdateCollaboratorRole(userID types.ID, role ProjectRole) error {
	if err := role.Validate(); err != nil {
		return err
	}
	if userID == i.Owner {
		return ErrOwnerImmutable
	}

	for idx, c := range i.Collaborators {
		if c.UserID == userID {
			i.Collaborators[idx].Role = role
			i.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrCollaboratorNotFound
}

// RemoveCollaborator removes the explicit grant of the user.
func (i *ProjectInfo) RemoveCollaborator(userID types.ID) error {
	if userID == i.Owner {
		return ErrOwnerImmutable
	}

	for idx, c := range i.Collaborators {
		if c.UserID == userID {
			i.Collaborators = append(i.Collaborators[:idx], i.Collaborators[idx+1:]...)
			i.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrCollaboratorNotFound
}

// ToProject converts the ProjectInfo to a Project. The share token is not
// part of the projection; it is only disclosed through the share management
// operations.
func (i *ProjectInfo) ToProject() *types.Project {
	collaborators := make([]types.Collaborator, len(i.Collaborators))
	for idx, c := range i.Collaborators {
		collaborators[idx] = types.Collaborator{
			UserID:  c.UserID,
			Role:    c.Role.String(),
			AddedAt: c.AddedAt,
		}
	}

	return &types.Project{
		ID:             i.ID,
		TeamID:         i.TeamID,
		Slug:           i.Slug,
		Name:           i.Name,
		Owner:          i.Owner,
		Collaborators:  collaborators,
		AllUsersAccess: string(i.AllUsersAccess),
		ShareEnabled:   i.ShareEnabled,
		Stats: types.ProjectStats{
			TotalUpdates: i.Stats.TotalUpdates,
			LastUpdateAt: i.Stats.LastUpdateAt,
		},
		PinnedUpdateID: i.PinnedUpdateID,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
