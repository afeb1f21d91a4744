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

// Package authz resolves the effective role of a user on a team or project
// and enforces "role X or higher" checks.
package authz

import (
	"context"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/pkg/errors"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
)

var (
	// ErrNoAccess is returned when the user has no role on the target.
	ErrNoAccess = errors.PermissionDenied("no access").WithCode("ErrNoAccess")

	// ErrInsufficientPermission is returned when the user's role ranks below
	// the required one.
	ErrInsufficientPermission = errors.PermissionDenied(
		"insufficient permission",
	).WithCode("ErrInsufficientPermission")
)

// TeamRole resolves the role of the user in the team. The second return
// value reports whether the user is a member at all.
func TeamRole(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
) (database.TeamRole, bool, error) {
	info, err := be.DB.FindTeamInfoByID(ctx, teamID)
	if err != nil {
		return "", false, err
	}

	role, ok := info.ResolveRole(userID)
	return role, ok, nil
}

// RequireTeamRole resolves the user's team role and rejects it unless it
// ranks at or above the required one.
func RequireTeamRole(
	ctx context.Context,
	be *backend.Backend,
	teamID, userID types.ID,
	required database.TeamRole,
) (database.TeamRole, error) {
	role, ok, err := TeamRole(ctx, be, teamID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoAccess
	}
	if !role.IsAtLeast(required) {
		return "", ErrInsufficientPermission
	}

	return role, nil
}

// ProjectRole resolves the effective role of the user on the project. The
// precedence is fixed: ownership wins, then an explicit collaborator grant,
// then the blanket all-users grant. The second return value reports whether
// any grant applies.
func ProjectRole(
	ctx context.Context,
	be *backend.Backend,
	projectID, userID types.ID,
) (database.ProjectRole, bool, error) {
	info, err := be.DB.FindProjectInfoByID(ctx, projectID)
	if err != nil {
		return "", false, err
	}

	role, ok := info.ResolveRole(userID)
	return role, ok, nil
}

// RequireProjectRole resolves the user's project role and rejects it unless
// it ranks at or above the required one.
func RequireProjectRole(
	ctx context.Context,
	be *backend.Backend,
	projectID, userID types.ID,
	required database.ProjectRole,
) (database.ProjectRole, error) {
	role, ok, err := ProjectRole(ctx, be, projectID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoAccess
	}
	if !role.IsAtLeast(required) {
		return "", ErrInsufficientPermission
	}

	return role, nil
}
