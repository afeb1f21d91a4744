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

// Package database provides the database interface for the TeamPulse backend.
package database

import (
	"context"
	gotime "time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/pkg/errors"
)

var (
	// ErrUserNotFound is returned when the user is not found.
	ErrUserNotFound = errors.NotFound("user not found").WithCode("ErrUserNotFound")

	// ErrUserAlreadyExists is returned when a user with the same username or
	// email already exists.
	ErrUserAlreadyExists = errors.AlreadyExists("user already exists").WithCode("ErrUserAlreadyExists")

	// ErrTeamNotFound is returned when the team is not found.
	ErrTeamNotFound = errors.NotFound("team not found").WithCode("ErrTeamNotFound")

	// ErrTeamAlreadyExists is returned when a team with the same slug already exists.
	ErrTeamAlreadyExists = errors.AlreadyExists("team already exists").WithCode("ErrTeamAlreadyExists")

	// ErrProjectNotFound is returned when the project is not found.
	ErrProjectNotFound = errors.NotFound("project not found").WithCode("ErrProjectNotFound")

	// ErrProjectAlreadyExists is returned when a project with the same slug
	// already exists in the team.
	ErrProjectAlreadyExists = errors.AlreadyExists("project already exists").WithCode("ErrProjectAlreadyExists")

	// ErrUpdateNotFound is returned when the update is not found.
	ErrUpdateNotFound = errors.NotFound("update not found").WithCode("ErrUpdateNotFound")

	// ErrInviteNotFound is returned when the invite is not found.
	ErrInviteNotFound = errors.NotFound("invite not found").WithCode("ErrInviteNotFound")

	// ErrInviteAlreadyExists is returned when the invite token collides with
	// an existing one.
	ErrInviteAlreadyExists = errors.AlreadyExists("invite already exists").WithCode("ErrInviteAlreadyExists")

	// ErrInviteNotPending is returned when a transition is attempted on an
	// invite that is not pending.
	ErrInviteNotPending = errors.FailedPrecond("invite is not pending").WithCode("ErrInviteNotPending")

	// ErrMemberNotFound is returned when the user is not a member of the team.
	ErrMemberNotFound = errors.NotFound("member not found").WithCode("ErrMemberNotFound")

	// ErrMemberAlreadyExists is returned when the user is already a member of the team.
	ErrMemberAlreadyExists = errors.AlreadyExists("member already exists").WithCode("ErrMemberAlreadyExists")

	// ErrCollaboratorNotFound is returned when the user is not a collaborator
	// of the project.
	ErrCollaboratorNotFound = errors.NotFound("collaborator not found").WithCode("ErrCollaboratorNotFound")

	// ErrCollaboratorAlreadyExists is returned when the user is already a
	// collaborator of the project.
	ErrCollaboratorAlreadyExists = errors.AlreadyExists("collaborator already exists").WithCode("ErrCollaboratorAlreadyExists")

	// ErrOwnerImmutable is returned when a member-management operation targets
	// the owner of a team or project.
	ErrOwnerImmutable = errors.FailedPrecond("owner cannot be modified").WithCode("ErrOwnerImmutable")

	// ErrConflictOnUpdate is returned when a conflict occurs during update.
	ErrConflictOnUpdate = errors.FailedPrecond("conflict on update").WithCode("ErrConflictOnUpdate")
)

// FeedSelector selects the scope of a feed query. Exactly one of ProjectID,
// TeamID, or TeamIDs is set; Category optionally narrows the result by exact
// match without altering ordering.
type FeedSelector struct {
	// ProjectID selects a single project's feed.
	ProjectID types.ID

	// TeamID selects a single team's feed.
	TeamID types.ID

	// TeamIDs selects the merged feed across the given teams.
	TeamIDs []types.ID

	// Category filters updates by exact category match.
	Category string
}

// Database represents the storage layer that reads and saves TeamPulse data.
// Implementations must enforce the unique indexes described on each method
// and provide atomic single-document conditional updates for the invite
// transitions and counter mutations.
type Database interface {
	// Close closes all resources of this database.
	Close() error

	// CreateUserInfo creates a new user. The username and the case-folded
	// email are unique across the system.
	CreateUserInfo(ctx context.Context, username, email, hashedPassword string) (*UserInfo, error)

	// FindUserInfoByID returns a user by the given ID.
	FindUserInfoByID(ctx context.Context, id types.ID) (*UserInfo, error)

	// FindUserInfoByUsername returns a user by the given username.
	FindUserInfoByUsername(ctx context.Context, username string) (*UserInfo, error)

	// FindUserInfoByEmail returns a user by the given case-folded email.
	FindUserInfoByEmail(ctx context.Context, email string) (*UserInfo, error)

	// FindUserInfosByUsernames returns the users matching the given
	// usernames. Unknown usernames are silently skipped.
	FindUserInfosByUsernames(ctx context.Context, usernames []string) ([]*UserInfo, error)

	// UpdateUserProfile applies the given fields to the user's profile.
	UpdateUserProfile(ctx context.Context, id types.ID, fields *types.UpdatableUserFields) (*UserInfo, error)

	// ListUserInfos returns all users.
	ListUserInfos(ctx context.Context) ([]*UserInfo, error)

	// CreateTeamInfo creates a new team with the given owner. The owner is
	// stored as an admin member. The slug is unique across the system.
	CreateTeamInfo(ctx context.Context, slug, name string, owner types.ID) (*TeamInfo, error)

	// FindTeamInfoByID returns a team by the given ID.
	FindTeamInfoByID(ctx context.Context, id types.ID) (*TeamInfo, error)

	// FindTeamInfoBySlug returns a team by the given slug.
	FindTeamInfoBySlug(ctx context.Context, slug string) (*TeamInfo, error)

	// ListTeamInfosByUser returns the teams the given user is a member of.
	ListTeamInfosByUser(ctx context.Context, userID types.ID) ([]*TeamInfo, error)

	// AddTeamMember adds the user to the team's member list.
	AddTeamMember(ctx context.Context, teamID, userID types.ID, role TeamRole) (*TeamInfo, error)

	// UpdateTeamMemberRole changes the role of the given member. The owner's
	// entry cannot be changed.
	UpdateTeamMemberRole(ctx context.Context, teamID, userID types.ID, role TeamRole) (*TeamInfo, error)

	// RemoveTeamMember removes the given member from the team. The owner's
	// entry cannot be removed.
	RemoveTeamMember(ctx context.Context, teamID, userID types.ID) (*TeamInfo, error)

	// DeleteTeamInfo removes the team record. The caller is responsible for
	// cascading deletes of the team's projects and updates beforehand.
	DeleteTeamInfo(ctx context.Context, teamID types.ID) error

	// CreateProjectInfo creates a new project inside the team. The slug is
	// unique within the team.
	CreateProjectInfo(ctx context.Context, teamID types.ID, slug, name string, owner types.ID) (*ProjectInfo, error)

	// FindProjectInfoByID returns a project by the given ID.
	FindProjectInfoByID(ctx context.Context, id types.ID) (*ProjectInfo, error)

	// FindProjectInfoBySlug returns a project by the given team and slug.
	FindProjectInfoBySlug(ctx context.Context, teamID types.ID, slug string) (*ProjectInfo, error)

	// ListProjectInfosByTeam returns all projects of the team.
	ListProjectInfosByTeam(ctx context.Context, teamID types.ID) ([]*ProjectInfo, error)

	// AddCollaborator adds an explicit grant for the user on the project.
	AddCollaborator(ctx context.Context, projectID, userID types.ID, role ProjectRole) (*ProjectInfo, error)

	// UpdateCollaboratorRole changes the role of the given collaborator.
	UpdateCollaboratorRole(ctx context.Context, projectID, userID types.ID, role ProjectRole) (*ProjectInfo, error)

	// RemoveCollaborator removes the explicit grant of the user.
	RemoveCollaborator(ctx context.Context, projectID, userID types.ID) (*ProjectInfo, error)

	// SetAllUsersAccess sets the blanket access grant of the project.
	SetAllUsersAccess(ctx context.Context, projectID types.ID, access AccessLevel) (*ProjectInfo, error)

	// SetPinnedUpdate sets or clears the project's pinned update reference.
	SetPinnedUpdate(ctx context.Context, projectID, updateID types.ID) (*ProjectInfo, error)

	// EnableShare enables anonymous read access. The candidate token is used
	// only if the project has no token yet; an existing token is kept.
	EnableShare(ctx context.Context, projectID types.ID, token string) (*ProjectInfo, error)

	// DisableShare clears the enabled flag. The token is retained for
	// future re-enabling.
	DisableShare(ctx context.Context, projectID types.ID) (*ProjectInfo, error)

	// RegenerateShare unconditionally replaces the token with the given one
	// and re-enables sharing. The old token becomes immediately unusable.
	RegenerateShare(ctx context.Context, projectID types.ID, token string) (*ProjectInfo, error)

	// FindProjectInfoByShareToken returns the project with the given token
	// only if sharing is enabled. A disabled share behaves exactly like a
	// missing one.
	FindProjectInfoByShareToken(ctx context.Context, token string) (*ProjectInfo, error)

	// IncrementUpdateCount adjusts the cached update counter of the project
	// by delta. A positive delta also advances Stats.LastUpdateAt.
	IncrementUpdateCount(ctx context.Context, projectID types.ID, delta int64, lastUpdateAt gotime.Time) error

	// DeleteProjectInfo removes the project record. The caller is responsible
	// for cascading deletes of the project's updates beforehand.
	DeleteProjectInfo(ctx context.Context, projectID types.ID) error

	// CreateInviteInfo creates a new invite. The token is unique across the
	// system; a collision is reported as ErrInviteAlreadyExists.
	CreateInviteInfo(
		ctx context.Context,
		scope InviteScope,
		email string,
		role string,
		token string,
		inviter types.ID,
		expiresAt gotime.Time,
	) (*InviteInfo, error)

	// FindInviteInfoByID returns an invite by the given ID.
	FindInviteInfoByID(ctx context.Context, id types.ID) (*InviteInfo, error)

	// FindInviteInfoByToken returns an invite by the given token.
	FindInviteInfoByToken(ctx context.Context, token string) (*InviteInfo, error)

	// ListInviteInfosByScope returns all invites targeting the given scope.
	ListInviteInfosByScope(ctx context.Context, scope InviteScope) ([]*InviteInfo, error)

	// AcceptInviteInfo transitions the invite with the given token to
	// accepted. The transition is a single conditional update keyed on the
	// token, pending status, and unexpired expiry: of two concurrent calls
	// exactly one succeeds, the other observes ErrInviteNotFound or
	// ErrInviteNotPending.
	AcceptInviteInfo(ctx context.Context, token string, userID types.ID, now gotime.Time) (*InviteInfo, error)

	// RevokeInviteInfo transitions the invite to revoked, only from pending.
	RevokeInviteInfo(ctx context.Context, id types.ID) (*InviteInfo, error)

	// RotateInviteToken replaces the token and expiry of a pending invite.
	// The old token becomes immediately unusable.
	RotateInviteToken(ctx context.Context, id types.ID, token string, expiresAt gotime.Time) (*InviteInfo, error)

	// ExpireInviteInfos sweeps all pending invites whose expiry lies before
	// the given time to expired and returns the number of swept invites.
	// It never touches non-pending invites, so it is safe to run concurrently
	// with normal traffic.
	ExpireInviteInfos(ctx context.Context, before gotime.Time) (int, error)

	// CreateUpdateInfo stores the given update.
	CreateUpdateInfo(ctx context.Context, info *UpdateInfo) (*UpdateInfo, error)

	// FindUpdateInfoByID returns an update by the given ID.
	FindUpdateInfoByID(ctx context.Context, id types.ID) (*UpdateInfo, error)

	// UpdateUpdateInfoContent applies a content change to the update, marking
	// it edited. Fields not present in the change are left untouched.
	UpdateUpdateInfoContent(ctx context.Context, id types.ID, change *ContentChange) (*UpdateInfo, error)

	// AddReaction adds a reaction, first removing any existing entry of the
	// same (user, emoji) pair so at most one persists.
	AddReaction(ctx context.Context, updateID, userID types.ID, emoji string) (*UpdateInfo, error)

	// RemoveReaction removes the matching (user, emoji) entry only.
	RemoveReaction(ctx context.Context, updateID, userID types.ID, emoji string) (*UpdateInfo, error)

	// SetUpdatePinned toggles the pinned flag of the update.
	SetUpdatePinned(ctx context.Context, updateID types.ID, pinned bool) (*UpdateInfo, error)

	// DeleteUpdateInfo removes the update record.
	DeleteUpdateInfo(ctx context.Context, id types.ID) error

	// DeleteUpdateInfosByTeam removes all updates scoped to the team and
	// returns the number of removed updates.
	DeleteUpdateInfosByTeam(ctx context.Context, teamID types.ID) (int64, error)

	// DeleteUpdateInfosByProject removes all updates scoped to the project
	// and returns the number of removed updates.
	DeleteUpdateInfosByProject(ctx context.Context, projectID types.ID) (int64, error)

	// FindUpdateInfosByFeed returns up to paging.PageSize updates matching
	// the selector, ordered by ID descending, strictly below paging.Offset
	// when an offset is given. The ID order is the feed's
	// `(createdAt desc, id desc)` total order.
	FindUpdateInfosByFeed(
		ctx context.Context,
		selector FeedSelector,
		paging types.Paging[types.ID],
	) ([]*UpdateInfo, error)
}
