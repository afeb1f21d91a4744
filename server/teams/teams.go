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

// Package teams provides the team related business logic.
package teams

import (
	"context"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
)

// CreateTeam creates a team of the given slug and name owned by the given
// user. The owner joins as an admin member.
func CreateTeam(
	ctx context.Context,
	be *backend.Backend,
	fields *types.CreateTeamFields,
	owner types.ID,
) (*types.Team, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	info, err := be.DB.CreateTeamInfo(ctx, fields.Slug, fields.Name, owner)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// GetTeam returns a team by the given slug.
func GetTeam(
	ctx context.Context,
	be *backend.Backend,
	slug string,
) (*types.Team, error) {
	info, err := be.DB.FindTeamInfoBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// GetTeamByID returns a team by the given ID.
func GetTeamByID(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Team, error) {
	info, err := be.DB.FindTeamInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// ListTeams returns the teams the given user belongs to.
func ListTeams(
	ctx context.Context,
	be *backend.Backend,
	userID types.ID,
) ([]*types.Team, error) {
	infos, err := be.DB.ListTeamInfosByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams := make([]*types.Team, 0, len(infos))
	for _, info := range infos {
		teams = append(teams, info.ToTeam())
	}

	return teams, nil
}

// AddMember adds the user to the team with the given role.
func AddMember(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
	role database.TeamRole,
) (*types.Team, error) {
	info, err := be.DB.AddTeamMember(ctx, teamID, userID, role)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// ChangeMemberRole changes the role of the given member. The owner's role
// can never be changed.
func ChangeMemberRole(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
	role database.TeamRole,
) (*types.Team, error) {
	info, err := be.DB.UpdateTeamMemberRole(ctx, teamID, userID, role)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// RemoveMember removes the given member from the team. The owner can never
// be removed.
func RemoveMember(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
) (*types.Team, error) {
	info, err := be.DB.RemoveTeamMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	return info.ToTeam(), nil
}

// LeaveTeam removes the requesting user from the team. Leaving as the owner
// is rejected with the same guard as removal.
func LeaveTeam(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
) error {
	if _, err := be.DB.RemoveTeamMember(ctx, teamID, userID); err != nil {
		return err
	}

	return nil
}

// DeleteTeam removes the team after cascading over its projects and their
// updates. Sweeping the children first keeps a crash from orphaning them
// silently behind a missing team.
func DeleteTeam(
	ctx context.Context,
	be *backend.Backend,
	teamID types.ID,
) error {
	projects, err := be.DB.ListProjectInfosByTeam(ctx, teamID)
	if err != nil {
		return err
	}

	count, err := be.DB.DeleteUpdateInfosByTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if be.Metrics != nil && count > 0 {
		be.Metrics.AddUpdatesDeleted("team_cascade", count)
	}

	for _, project := range projects {
		if err := be.DB.DeleteProjectInfo(ctx, project.ID); err != nil {
			return err
		}
	}

	if err := be.DB.DeleteTeamInfo(ctx, teamID); err != nil {
		return err
	}

	logging.From(ctx).Infof("team %s deleted: %d projects, %d updates", teamID, len(projects), count)
	return nil
}
