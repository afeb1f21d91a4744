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

// Package projects provides the project related business logic.
package projects

import (
	"context"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
)

// CreateProject creates a project of the given slug and name inside the
// team. The team's default visibility is applied as the initial blanket
// access.
func CreateProject(
	ctx context.Context,
	be *backend.Backend,
	teamID types.ID,
	fields *types.CreateProjectFields,
	owner types.ID,
) (*types.Project, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	team, err := be.DB.FindTeamInfoByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	info, err := be.DB.CreateProjectInfo(ctx, teamID, fields.Slug, fields.Name, owner)
	if err != nil {
		return nil, err
	}

	if team.DefaultVisibility != "" {
		info, err = be.DB.SetAllUsersAccess(
			ctx,
			info.ID,
			database.AccessLevel(team.DefaultVisibility),
		)
		if err != nil {
			return nil, err
		}
	}

	return info.ToProject(), nil
}

// GetProject returns a project by the given team and slug.
func GetProject(
	ctx context.Context,
	be *backend.Backend,
	teamID types.ID,
	slug string,
) (*types.Project, error) {
	info, err := be.DB.FindProjectInfoBySlug(ctx, teamID, slug)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// GetProjectByID returns a project by the given ID.
func GetProjectByID(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Project, error) {
	info, err := be.DB.FindProjectInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// ListProjects returns all projects of the team.
func ListProjects(
	ctx context.Context,
	be *backend.Backend,
	teamID types.ID,
) ([]*types.Project, error) {
	infos, err := be.DB.ListProjectInfosByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	projects := make([]*types.Project, 0, len(infos))
	for _, info := range infos {
		projects = append(projects, info.ToProject())
	}

	return projects, nil
}

// AddCollaborator adds an explicit grant for the user on the project.
func AddCollaborator(
	ctx context.Context,
	be *backend.Backend,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*types.Project, error) {
	info, err := be.DB.AddCollaborator(ctx, projectID, userID, role)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// ChangeCollaboratorRole changes the explicit grant of the user. The owner's
// access can never be altered.
func ChangeCollaboratorRole(
	ctx context.Context,
	be *backend.Backend,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*types.Project, error) {
	info, err := be.DB.UpdateCollaboratorRole(ctx, projectID, userID, role)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// RemoveCollaborator removes the explicit grant of the user. The user may
// still retain access through the blanket all-users grant afterwards.
func RemoveCollaborator(
	ctx context.Context,
	be *backend.Backend,
	projectID, userID types.ID,
) (*types.Project, error) {
	info, err := be.DB.RemoveCollaborator(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// SetAllUsersAccess sets the blanket access grant of the project.
func SetAllUsersAccess(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
	access database.AccessLevel,
) (*types.Project, error) {
	info, err := be.DB.SetAllUsersAccess(ctx, projectID, access)
	if err != nil {
		return nil, err
	}

	return info.ToProject(), nil
}

// DeleteProject removes the project after cascading over its updates.
func DeleteProject(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
) error {
	count, err := be.DB.DeleteUpdateInfosByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if be.Metrics != nil && count > 0 {
		be.Metrics.AddUpdatesDeleted("project_cascade", count)
	}

	if err := be.DB.DeleteProjectInfo(ctx, projectID); err != nil {
		return err
	}

	logging.From(ctx).Infof("project %s deleted: %d updates", projectID, count)
	return nil
}
