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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"
	gotime "time"

	"github.com/hashicorp/go-memdb"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// CreateUserInfo creates a new user. The username and the case-folded email
// are unique across the system.
func (d *DB) CreateUserInfo(
	_ context.Context,
	username, email, hashedPassword string,
) (*database.UserInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info := database.NewUserInfo(username, email, hashedPassword)

	existing, err := txn.First(tblUsers, "username", info.Username)
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", username, database.ErrUserAlreadyExists)
	}

	existing, err = txn.First(tblUsers, "email", info.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", info.Email, database.ErrUserAlreadyExists)
	}

	info.ID = types.NewID()
	if err := txn.Insert(tblUsers, info); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindUserInfoByID finds a user by the given ID.
func (d *DB) FindUserInfoByID(_ context.Context, id types.ID) (*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblUsers, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrUserNotFound)
	}

	return raw.(*database.UserInfo).DeepCopy(), nil
}

// FindUserInfoByUsername finds a user by the given username.
func (d *DB) FindUserInfoByUsername(_ context.Context, username string) (*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblUsers, "username", username)
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", username, database.ErrUserNotFound)
	}

	return raw.(*database.UserInfo).DeepCopy(), nil
}

// FindUserInfoByEmail finds a user by the given case-folded email.
func (d *DB) FindUserInfoByEmail(_ context.Context, email string) (*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblUsers, "email", email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", email, database.ErrUserNotFound)
	}

	return raw.(*database.UserInfo).DeepCopy(), nil
}

// FindUserInfosByUsernames finds the users matching the given usernames.
// Unknown usernames are silently skipped.
func (d *DB) FindUserInfosByUsernames(
	_ context.Context,
	usernames []string,
) ([]*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	var infos []*database.UserInfo
	for _, username := range usernames {
		raw, err := txn.First(tblUsers, "username", username)
		if err != nil {
			return nil, fmt.Errorf("find user by username: %w", err)
		}
		if raw == nil {
			continue
		}
		infos = append(infos, raw.(*database.UserInfo).DeepCopy())
	}

	return infos, nil
}

// UpdateUserProfile applies the given fields to the user's profile.
func (d *DB) UpdateUserProfile(
	_ context.Context,
	id types.ID,
	fields *types.UpdatableUserFields,
) (*database.UserInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblUsers, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrUserNotFound)
	}

	info := raw.(*database.UserInfo).DeepCopy()
	info.UpdateFields(fields)

	if err := txn.Insert(tblUsers, info); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// ListUserInfos returns all users.
func (d *DB) ListUserInfos(_ context.Context) ([]*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblUsers, "id")
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	var infos []*database.UserInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.UserInfo).DeepCopy())
	}

	return infos, nil
}

// CreateTeamInfo creates a new team with the given owner.
func (d *DB) CreateTeamInfo(
	_ context.Context,
	slug, name string,
	owner types.ID,
) (*database.TeamInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblTeams, "slug", slug)
	if err != nil {
		return nil, fmt.Errorf("find team by slug: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", slug, database.ErrTeamAlreadyExists)
	}

	info := database.NewTeamInfo(slug, name, owner)
	info.ID = types.NewID()
	if err := txn.Insert(tblTeams, info); err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindTeamInfoByID finds a team by the given ID.
func (d *DB) FindTeamInfoByID(_ context.Context, id types.ID) (*database.TeamInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblTeams, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find team by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrTeamNotFound)
	}

	return raw.(*database.TeamInfo).DeepCopy(), nil
}

// FindTeamInfoBySlug finds a team by the given slug.
func (d *DB) FindTeamInfoBySlug(_ context.Context, slug string) (*database.TeamInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblTeams, "slug", slug)
	if err != nil {
		return nil, fmt.Errorf("find team by slug: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", slug, database.ErrTeamNotFound)
	}

	return raw.(*database.TeamInfo).DeepCopy(), nil
}

// ListTeamInfosByUser returns the teams the given user is a member of.
func (d *DB) ListTeamInfosByUser(_ context.Context, userID types.ID) ([]*database.TeamInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblTeams, "id")
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	var infos []*database.TeamInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.TeamInfo)
		if _, ok := info.ResolveRole(userID); ok {
			infos = append(infos, info.DeepCopy())
		}
	}

	return infos, nil
}

// AddTeamMember adds the user to the team's member list.
func (d *DB) AddTeamMember(
	_ context.Context,
	teamID, userID types.ID,
	role database.TeamRole,
) (*database.TeamInfo, error) {
	return d.updateTeamInfo(teamID, func(info *database.TeamInfo) error {
		return info.AddMember(userID, role)
	})
}

// UpdateTeamMemberRole changes the role of the given member.
func (d *DB) UpdateTeamMemberRole(
	_ context.Context,
	teamID, userID types.ID,
	role database.TeamRole,
) (*database.TeamInfo, error) {
	return d.updateTeamInfo(teamID, func(info *database.TeamInfo) error {
		return info.UpdateMemberRole(userID, role)
	})
}

// RemoveTeamMember removes the given member from the team.
func (d *DB) RemoveTeamMember(
	_ context.Context,
	teamID, userID types.ID,
) (*database.TeamInfo, error) {
	return d.updateTeamInfo(teamID, func(info *database.TeamInfo) error {
		return info.RemoveMember(userID)
	})
}

// DeleteTeamInfo removes the team record.
func (d *DB) DeleteTeamInfo(_ context.Context, teamID types.ID) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblTeams, "id", teamID.String())
	if err != nil {
		return fmt.Errorf("find team by id: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", teamID, database.ErrTeamNotFound)
	}

	if err := txn.Delete(tblTeams, raw); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	txn.Commit()

	return nil
}

// updateTeamInfo applies mutate to a deep copy of the team inside a single
// write transaction.
func (d *DB) updateTeamInfo(
	teamID types.ID,
	mutate func(*database.TeamInfo) error,
) (*database.TeamInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblTeams, "id", teamID.String())
	if err != nil {
		return nil, fmt.Errorf("find team by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", teamID, database.ErrTeamNotFound)
	}

	info := raw.(*database.TeamInfo).DeepCopy()
	if err := mutate(info); err != nil {
		return nil, err
	}

	if err := txn.Insert(tblTeams, info); err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// CreateProjectInfo creates a new project inside the team.
func (d *DB) CreateProjectInfo(
	_ context.Context,
	teamID types.ID,
	slug, name string,
	owner types.ID,
) (*database.ProjectInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblProjects, "team_id_slug", teamID.String(), slug)
	if err != nil {
		return nil, fmt.Errorf("find project by slug: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", slug, database.ErrProjectAlreadyExists)
	}

	info := database.NewProjectInfo(teamID, slug, name, owner)
	info.ID = types.NewID()
	if err := txn.Insert(tblProjects, info); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindProjectInfoByID finds a project by the given ID.
func (d *DB) FindProjectInfoByID(_ context.Context, id types.ID) (*database.ProjectInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblProjects, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrProjectNotFound)
	}

	return raw.(*database.ProjectInfo).DeepCopy(), nil
}

// FindProjectInfoBySlug finds a project by the given team and slug.
func (d *DB) FindProjectInfoBySlug(
	_ context.Context,
	teamID types.ID,
	slug string,
) (*database.ProjectInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblProjects, "team_id_slug", teamID.String(), slug)
	if err != nil {
		return nil, fmt.Errorf("find project by slug: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", slug, database.ErrProjectNotFound)
	}

	return raw.(*database.ProjectInfo).DeepCopy(), nil
}

// ListProjectInfosByTeam returns all projects of the team.
func (d *DB) ListProjectInfosByTeam(
	_ context.Context,
	teamID types.ID,
) ([]*database.ProjectInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblProjects, "team_id", teamID.String())
	if err != nil {
		return nil, fmt.Errorf("fetch projects by team: %w", err)
	}

	var infos []*database.ProjectInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.ProjectInfo).DeepCopy())
	}

	return infos, nil
}

// AddCollaborator adds an explicit grant for the user on the project.
func (d *DB) AddCollaborator(
	_ context.Context,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		return info.AddCollaborator(userID, role)
	})
}

// UpdateCollaboratorRole changes the role of the given collaborator.
func (d *DB) UpdateCollaboratorRole(
	_ context.Context,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		return info.UpdateCollaboratorRole(userID, role)
	})
}

// RemoveCollaborator removes the explicit grant of the user.
func (d *DB) RemoveCollaborator(
	_ context.Context,
	projectID, userID types.ID,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		return info.RemoveCollaborator(userID)
	})
}

// SetAllUsersAccess sets the blanket access grant of the project.
func (d *DB) SetAllUsersAccess(
	_ context.Context,
	projectID types.ID,
	access database.AccessLevel,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		if err := access.Validate(); err != nil {
			return err
		}
		info.AllUsersAccess = access
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// SetPinnedUpdate sets or clears the project's pinned update reference.
func (d *DB) SetPinnedUpdate(
	_ context.Context,
	projectID, updateID types.ID,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		info.PinnedUpdateID = updateID
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// EnableShare enables anonymous read access. An existing token is kept; the
// candidate token is used only on first enabling.
func (d *DB) EnableShare(
	_ context.Context,
	projectID types.ID,
	token string,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		if info.ShareToken == "" {
			info.ShareToken = token
		}
		info.ShareEnabled = true
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// DisableShare clears the enabled flag but retains the token.
func (d *DB) DisableShare(_ context.Context, projectID types.ID) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		info.ShareEnabled = false
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// RegenerateShare replaces the token with the given one and re-enables
// sharing.
func (d *DB) RegenerateShare(
	_ context.Context,
	projectID types.ID,
	token string,
) (*database.ProjectInfo, error) {
	return d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		info.ShareToken = token
		info.ShareEnabled = true
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// FindProjectInfoByShareToken finds the project with the given token only if
// sharing is enabled. A disabled share behaves exactly like a missing one.
func (d *DB) FindProjectInfoByShareToken(
	_ context.Context,
	token string,
) (*database.ProjectInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblProjects, "share_token", token)
	if err != nil {
		return nil, fmt.Errorf("find project by share token: %w", err)
	}
	if raw == nil {
		return nil, database.ErrProjectNotFound
	}

	info := raw.(*database.ProjectInfo)
	if !info.ShareEnabled {
		return nil, database.ErrProjectNotFound
	}

	return info.DeepCopy(), nil
}

// IncrementUpdateCount adjusts the cached update counter of the project by
// delta. A positive delta also advances Stats.LastUpdateAt.
func (d *DB) IncrementUpdateCount(
	_ context.Context,
	projectID types.ID,
	delta int64,
	lastUpdateAt gotime.Time,
) error {
	_, err := d.updateProjectInfo(projectID, func(info *database.ProjectInfo) error {
		info.Stats.TotalUpdates += delta
		if delta > 0 && lastUpdateAt.After(info.Stats.LastUpdateAt) {
			info.Stats.LastUpdateAt = lastUpdateAt
		}
		info.UpdatedAt = gotime.Now()
		return nil
	})
	return err
}

// DeleteProjectInfo removes the project record.
func (d *DB) DeleteProjectInfo(_ context.Context, projectID types.ID) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblProjects, "id", projectID.String())
	if err != nil {
		return fmt.Errorf("find project by id: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", projectID, database.ErrProjectNotFound)
	}

	if err := txn.Delete(tblProjects, raw); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	txn.Commit()

	return nil
}

// updateProjectInfo applies mutate to a deep copy of the project inside a
// single write transaction.
func (d *DB) updateProjectInfo(
	projectID types.ID,
	mutate func(*database.ProjectInfo) error,
) (*database.ProjectInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblProjects, "id", projectID.String())
	if err != nil {
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", projectID, database.ErrProjectNotFound)
	}

	info := raw.(*database.ProjectInfo).DeepCopy()
	if err := mutate(info); err != nil {
		return nil, err
	}

	if err := txn.Insert(tblProjects, info); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// CreateInviteInfo creates a new invite with the given unique token.
func (d *DB) CreateInviteInfo(
	_ context.Context,
	scope database.InviteScope,
	email string,
	role string,
	token string,
	inviter types.ID,
	expiresAt gotime.Time,
) (*database.InviteInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblInvites, "token", token)
	if err != nil {
		return nil, fmt.Errorf("find invite by token: %w", err)
	}
	if existing != nil {
		return nil, database.ErrInviteAlreadyExists
	}

	info, err := database.NewInviteInfo(scope, email, role, token, inviter, expiresAt)
	if err != nil {
		return nil, err
	}

	info.ID = types.NewID()
	if err := txn.Insert(tblInvites, info); err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindInviteInfoByID finds an invite by the given ID.
func (d *DB) FindInviteInfoByID(_ context.Context, id types.ID) (*database.InviteInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblInvites, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find invite by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrInviteNotFound)
	}

	return raw.(*database.InviteInfo).DeepCopy(), nil
}

// FindInviteInfoByToken finds an invite by the given token.
func (d *DB) FindInviteInfoByToken(_ context.Context, token string) (*database.InviteInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblInvites, "token", token)
	if err != nil {
		return nil, fmt.Errorf("find invite by token: %w", err)
	}
	if raw == nil {
		return nil, database.ErrInviteNotFound
	}

	return raw.(*database.InviteInfo).DeepCopy(), nil
}

// ListInviteInfosByScope returns all invites targeting the given scope.
func (d *DB) ListInviteInfosByScope(
	_ context.Context,
	scope database.InviteScope,
) ([]*database.InviteInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblInvites, "id")
	if err != nil {
		return nil, fmt.Errorf("fetch invites: %w", err)
	}

	var infos []*database.InviteInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.InviteInfo)
		if info.Scope == scope {
			infos = append(infos, info.DeepCopy())
		}
	}

	return infos, nil
}

// AcceptInviteInfo transitions the invite with the given token to accepted.
// The whole check-and-set runs in one write transaction, so of two
// concurrent calls exactly one observes the pending state.
func (d *DB) AcceptInviteInfo(
	_ context.Context,
	token string,
	userID types.ID,
	now gotime.Time,
) (*database.InviteInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblInvites, "token", token)
	if err != nil {
		return nil, fmt.Errorf("find invite by token: %w", err)
	}
	if raw == nil {
		return nil, database.ErrInviteNotFound
	}

	info := raw.(*database.InviteInfo).DeepCopy()
	if !info.Status.CanTransition(database.InviteAccepted) {
		return nil, database.ErrInviteNotPending
	}
	if info.IsExpired(now) {
		return nil, database.ErrInviteNotPending
	}

	info.Status = database.InviteAccepted
	info.AcceptedAt = now
	info.AcceptedBy = userID

	if err := txn.Insert(tblInvites, info); err != nil {
		return nil, fmt.Errorf("update invite: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// RevokeInviteInfo transitions the invite to revoked, only from pending.
func (d *DB) RevokeInviteInfo(_ context.Context, id types.ID) (*database.InviteInfo, error) {
	return d.updateInviteInfo(id, func(info *database.InviteInfo) error {
		if !info.Status.CanTransition(database.InviteRevoked) {
			return database.ErrInviteNotPending
		}
		info.Status = database.InviteRevoked
		return nil
	})
}

// RotateInviteToken replaces the token and expiry of a pending invite.
func (d *DB) RotateInviteToken(
	_ context.Context,
	id types.ID,
	token string,
	expiresAt gotime.Time,
) (*database.InviteInfo, error) {
	return d.updateInviteInfo(id, func(info *database.InviteInfo) error {
		if !info.Status.CanTransition(database.InvitePending) {
			return database.ErrInviteNotPending
		}
		info.Token = token
		info.ExpiresAt = expiresAt
		return nil
	})
}

// ExpireInviteInfos sweeps all pending invites whose expiry lies before the
// given time to expired.
func (d *DB) ExpireInviteInfos(_ context.Context, before gotime.Time) (int, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblInvites, "status", database.InvitePending.String())
	if err != nil {
		return 0, fmt.Errorf("fetch pending invites: %w", err)
	}

	var expired []*database.InviteInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.InviteInfo)
		if info.ExpiresAt.Before(before) {
			copied := info.DeepCopy()
			copied.Status = database.InviteExpired
			expired = append(expired, copied)
		}
	}

	for _, info := range expired {
		if err := txn.Insert(tblInvites, info); err != nil {
			return 0, fmt.Errorf("update invite: %w", err)
		}
	}
	txn.Commit()

	return len(expired), nil
}

// updateInviteInfo applies mutate to a deep copy of the invite inside a
// single write transaction.
func (d *DB) updateInviteInfo(
	id types.ID,
	mutate func(*database.InviteInfo) error,
) (*database.InviteInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblInvites, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find invite by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrInviteNotFound)
	}

	info := raw.(*database.InviteInfo).DeepCopy()
	if err := mutate(info); err != nil {
		return nil, err
	}

	if err := txn.Insert(tblInvites, info); err != nil {
		return nil, fmt.Errorf("update invite: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// CreateUpdateInfo stores the given update.
func (d *DB) CreateUpdateInfo(
	_ context.Context,
	info *database.UpdateInfo,
) (*database.UpdateInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	copied := info.DeepCopy()
	if copied.ID == "" {
		copied.ID = types.NewID()
	}

	if err := txn.Insert(tblUpdates, copied); err != nil {
		return nil, fmt.Errorf("insert update: %w", err)
	}
	txn.Commit()

	return copied.DeepCopy(), nil
}

// FindUpdateInfoByID finds an update by the given ID.
func (d *DB) FindUpdateInfoByID(_ context.Context, id types.ID) (*database.UpdateInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblUpdates, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find update by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
	}

	return raw.(*database.UpdateInfo).DeepCopy(), nil
}

// UpdateUpdateInfoContent applies a content change to the update.
func (d *DB) UpdateUpdateInfoContent(
	_ context.Context,
	id types.ID,
	change *database.ContentChange,
) (*database.UpdateInfo, error) {
	return d.updateUpdateInfo(id, func(info *database.UpdateInfo) error {
		info.ApplyContentChange(change)
		return nil
	})
}

// AddReaction adds a reaction, first removing any existing entry of the same
// (user, emoji) pair so at most one persists.
func (d *DB) AddReaction(
	_ context.Context,
	updateID, userID types.ID,
	emoji string,
) (*database.UpdateInfo, error) {
	return d.updateUpdateInfo(updateID, func(info *database.UpdateInfo) error {
		info.Reactions = withoutReaction(info.Reactions, userID, emoji)
		info.Reactions = append(info.Reactions, database.ReactionInfo{
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: gotime.Now(),
		})
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// RemoveReaction removes the matching (user, emoji) entry only.
func (d *DB) RemoveReaction(
	_ context.Context,
	updateID, userID types.ID,
	emoji string,
) (*database.UpdateInfo, error) {
	return d.updateUpdateInfo(updateID, func(info *database.UpdateInfo) error {
		info.Reactions = withoutReaction(info.Reactions, userID, emoji)
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// SetUpdatePinned toggles the pinned flag of the update.
func (d *DB) SetUpdatePinned(
	_ context.Context,
	updateID types.ID,
	pinned bool,
) (*database.UpdateInfo, error) {
	return d.updateUpdateInfo(updateID, func(info *database.UpdateInfo) error {
		info.IsPinned = pinned
		info.UpdatedAt = gotime.Now()
		return nil
	})
}

// DeleteUpdateInfo removes the update record.
func (d *DB) DeleteUpdateInfo(_ context.Context, id types.ID) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblUpdates, "id", id.String())
	if err != nil {
		return fmt.Errorf("find update by id: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
	}

	if err := txn.Delete(tblUpdates, raw); err != nil {
		return fmt.Errorf("delete update: %w", err)
	}
	txn.Commit()

	return nil
}

// DeleteUpdateInfosByTeam removes all updates scoped to the team.
func (d *DB) DeleteUpdateInfosByTeam(_ context.Context, teamID types.ID) (int64, error) {
	return d.deleteUpdateInfosBy("team_id_id", teamID)
}

// DeleteUpdateInfosByProject removes all updates scoped to the project.
func (d *DB) DeleteUpdateInfosByProject(_ context.Context, projectID types.ID) (int64, error) {
	return d.deleteUpdateInfosBy("project_id_id", projectID)
}

func (d *DB) deleteUpdateInfosBy(index string, id types.ID) (int64, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblUpdates, index+"_prefix", id.String())
	if err != nil {
		return 0, fmt.Errorf("fetch updates: %w", err)
	}

	var victims []interface{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		victims = append(victims, raw)
	}

	for _, raw := range victims {
		if err := txn.Delete(tblUpdates, raw); err != nil {
			return 0, fmt.Errorf("delete update: %w", err)
		}
	}
	txn.Commit()

	return int64(len(victims)), nil
}

// updateUpdateInfo applies mutate to a deep copy of the update inside a
// single write transaction.
func (d *DB) updateUpdateInfo(
	id types.ID,
	mutate func(*database.UpdateInfo) error,
) (*database.UpdateInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblUpdates, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find update by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
	}

	info := raw.(*database.UpdateInfo).DeepCopy()
	if err := mutate(info); err != nil {
		return nil, err
	}

	if err := txn.Insert(tblUpdates, info); err != nil {
		return nil, fmt.Errorf("update update: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// withoutReaction returns reactions with the matching (user, emoji) entry
// removed.
func withoutReaction(
	reactions []database.ReactionInfo,
	userID types.ID,
	emoji string,
) []database.ReactionInfo {
	filtered := reactions[:0:0]
	for _, r := range reactions {
		if r.UserID == userID && r.Emoji == emoji {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// FindUpdateInfosByFeed returns up to paging.PageSize updates matching the
// selector, ordered by ID descending, strictly below paging.Offset when an
// offset is given.
func (d *DB) FindUpdateInfosByFeed(
	_ context.Context,
	selector database.FeedSelector,
	paging types.Paging[types.ID],
) ([]*database.UpdateInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	offset := paging.Offset
	if offset == "" {
		offset = types.MaxID
	}

	switch {
	case selector.ProjectID != "":
		return feedScan(txn, "project_id_id", selector.ProjectID, offset, selector.Category, paging.PageSize)
	case selector.TeamID != "":
		return feedScan(txn, "team_id_id", selector.TeamID, offset, selector.Category, paging.PageSize)
	default:
		return feedScanTeams(txn, selector.TeamIDs, offset, selector.Category, paging.PageSize)
	}
}

// feedScan walks one compound index downward from offset, collecting up to
// limit updates strictly below it.
func feedScan(
	txn *memdb.Txn,
	index string,
	scopeID types.ID,
	offset types.ID,
	category string,
	limit int,
) ([]*database.UpdateInfo, error) {
	iter, err := txn.ReverseLowerBound(tblUpdates, index, scopeID.String(), offset.String())
	if err != nil {
		return nil, fmt.Errorf("fetch updates by feed: %w", err)
	}

	var infos []*database.UpdateInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.UpdateInfo)
		if scopeOf(index, info) != scopeID {
			break
		}
		if info.ID >= offset {
			continue
		}
		if category != "" && info.Category != category {
			continue
		}

		infos = append(infos, info.DeepCopy())
		if limit > 0 && len(infos) >= limit {
			break
		}
	}

	return infos, nil
}

// feedScanTeams merges the per-team scans into a single ID-descending page.
func feedScanTeams(
	txn *memdb.Txn,
	teamIDs []types.ID,
	offset types.ID,
	category string,
	limit int,
) ([]*database.UpdateInfo, error) {
	var merged []*database.UpdateInfo
	for _, teamID := range teamIDs {
		infos, err := feedScan(txn, "team_id_id", teamID, offset, category, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, infos...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ID > merged[j].ID
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return merged, nil
}

func scopeOf(index string, info *database.UpdateInfo) types.ID {
	if index == "team_id_id" {
		return info.TeamID
	}
	return info.ProjectID
}
