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
	// TeamAdmin is the admin role of a team.
	TeamAdmin TeamRole = "admin"
	// TeamMember is the regular member role of a team.
	TeamMember TeamRole = "member"
	// TeamViewer is the read-only role of a team.
	TeamViewer TeamRole = "viewer"
)

// ErrInvalidTeamRole is returned when the given team role is not valid.
var ErrInvalidTeamRole = errors.InvalidArgument("invalid team role").WithCode("ErrInvalidTeamRole")

// TeamRole represents a role of a team member.
type TeamRole string

// teamRoleRanks orders team roles for "role X or higher" checks.
var teamRoleRanks = map[TeamRole]int{
	TeamViewer: 1,
	TeamMember: 2,
	TeamAdmin:  3,
}

// String returns the string representation of the role.
func (r TeamRole) String() string {
	return string(r)
}

// Validate validates the given team role.
func (r TeamRole) Validate() error {
	if _, ok := teamRoleRanks[r]; !ok {
		return fmt.Errorf("%s: %w", r, ErrInvalidTeamRole)
	}
	return nil
}

// IsAtLeast returns true if this role ranks at or above the required role.
func (r TeamRole) IsAtLeast(required TeamRole) bool {
	return teamRoleRanks[r] >= teamRoleRanks[required]
}

// NewTeamRole parses and validates a role string into a TeamRole.
func NewTeamRole(role string) (TeamRole, error) {
	r := TeamRole(role)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// TeamMemberInfo is a single membership entry embedded in a team. The team
// exclusively owns its member list; entries have no independent lifecycle.
type TeamMemberInfo struct {
	// UserID is the ID of the member.
	UserID types.ID `bson:"user_id"`

	// Role is the role of the member in the team.
	Role TeamRole `bson:"role"`

	// JoinedAt is the time when the member joined the team.
	JoinedAt time.Time `bson:"joined_at"`
}

// TeamInfo is a struct for team information.
type TeamInfo struct {
	// ID is the unique ID of the team.
	ID types.ID `bson:"_id"`

	// Slug is the unique slug of the team.
	Slug string `bson:"slug"`

	// Name is the display name of the team.
	Name string `bson:"name"`

	// Owner is the ID of the user who owns the team. The owner is always
	// present in Members with the admin role.
	Owner types.ID `bson:"owner"`

	// Members are the members of the team including the owner.
	Members []TeamMemberInfo `bson:"members"`

	// DefaultVisibility is the blanket access applied to newly created
	// projects of the team.
	DefaultVisibility string `bson:"default_visibility"`

	// CreatedAt is the time when the team was created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time when the team was updated.
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewTeamInfo creates a new TeamInfo with the given slug, name and owner.
// The owner is seeded as an admin member.
func NewTeamInfo(slug, name string, owner types.ID) *TeamInfo {
	now := time.Now()
	return &TeamInfo{
		Slug:  slug,
		Name:  name,
		Owner: owner,
		Members: []TeamMemberInfo{{
			UserID:   owner,
			Role:     TeamAdmin,
			JoinedAt: now,
		}},
		CreatedAt: now,
	}
}

// DeepCopy returns a deep copy of the TeamInfo.
func (i *TeamInfo) DeepCopy() *TeamInfo {
	if i == nil {
		return nil
	}

	copied := *i
	copied.Members = make([]TeamMemberInfo, len(i.Members))
	copy(copied.Members, i.Members)
	return &copied
}

// ResolveRole returns the role of the given user in the team. Absence of a
// member entry means no access.
func (i *TeamInfo) ResolveRole(userID types.ID) (TeamRole, bool) {
	for _, m := range i.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// AddMember appends the user to the member list.
func (i *TeamInfo) AddMember(userID types.ID, role TeamRole) error {
	if err := role.Validate(); err != nil {
		return err
	}
	if _, ok := i.ResolveRole(userID); ok {
		return ErrMemberAlreadyExists
	}

	i.Members = append(i.Members, TeamMemberInfo{
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	})
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateMemberRole changes the role of the given member. The owner's entry
// can never be changed.
func (i *TeamInfo) UpdateMemberRole(userID types.ID, role TeamRole) error {
	if err := role.Validate(); err != nil {
		return err
	}
	if userID == i.Owner {
		return ErrOwnerImmutable
	}

	for idx, m := range i.Members {
		if m.UserID == userID {
			i.Members[idx].Role = role
			i.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrMemberNotFound
}

// RemoveMember removes the given member. The owner's entry can never be
// removed.
func (i *TeamInfo) RemoveMember(userID types.ID) error {
	if userID == i.Owner {
		return ErrOwnerImmutable
	}

	for idx, m := range i.Members {
		if m.UserID == userID {
			i.Members = append(i.Members[:idx], i.Members[idx+1:]...)
			i.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrMemberNotFound
}

// ToTeam converts the TeamInfo to a Team.
func (i *TeamInfo) ToTeam() *types.Team {
	members := make([]types.TeamMember, len(i.Members))
	for idx, m := range i.Members {
		members[idx] = types.TeamMember{
			UserID:   m.UserID,
			Role:     m.Role.String(),
			JoinedAt: m.JoinedAt,
		}
	}

	return &types.Team{
		ID:                i.ID,
		Slug:              i.Slug,
		Name:              i.Name,
		Owner:             i.Owner,
		Members:           members,
		DefaultVisibility: i.DefaultVisibility,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}
