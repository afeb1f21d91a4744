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

package teams_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/backend/housekeeping"
	"github.com/teampulse/teampulse/server/profiling/prometheus"
	"github.com/teampulse/teampulse/server/projects"
	"github.com/teampulse/teampulse/server/teams"
	"github.com/teampulse/teampulse/server/updates"
	"github.com/teampulse/teampulse/server/users"
)

func setupTestBackend(t *testing.T) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	assert.NoError(t, err)

	be, err := backend.New(
		&backend.Config{UserCacheSize: 100, Hostname: "test"},
		nil,
		&housekeeping.Config{Interval: "1m"},
		metrics,
	)
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, be.Shutdown())
	})

	return be
}

func TestTeams(t *testing.T) {
	t.Run("membership test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		owner, err := users.SignUp(ctx, be, "olive", "olive@teampulse.dev", "secret-pw")
		assert.NoError(t, err)
		bob, err := users.SignUp(ctx, be, "bob", "bob@teampulse.dev", "secret-pw")
		assert.NoError(t, err)

		team, err := teams.CreateTeam(ctx, be, &types.CreateTeamFields{
			Slug: "acme",
			Name: "Acme",
		}, owner.ID)
		assert.NoError(t, err)
		assert.Len(t, team.Members, 1)
		assert.Equal(t, "admin", team.Members[0].Role)

		// 01. Members join, change role, and leave.
		joined, err := teams.AddMember(ctx, be, team.ID, bob.ID, database.TeamMember)
		assert.NoError(t, err)
		assert.Len(t, joined.Members, 2)

		_, err = teams.ChangeMemberRole(ctx, be, team.ID, bob.ID, database.TeamViewer)
		assert.NoError(t, err)
		assert.NoError(t, teams.LeaveTeam(ctx, be, team.ID, bob.ID))

		// 02. The owner can neither be demoted nor removed.
		_, err = teams.ChangeMemberRole(ctx, be, team.ID, owner.ID, database.TeamViewer)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)
		_, err = teams.RemoveMember(ctx, be, team.ID, owner.ID)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)
		assert.ErrorIs(t, teams.LeaveTeam(ctx, be, team.ID, owner.ID), database.ErrOwnerImmutable)

		// 03. Team listing follows membership.
		listed, err := teams.ListTeams(ctx, be, owner.ID)
		assert.NoError(t, err)
		assert.Len(t, listed, 1)
		listed, err = teams.ListTeams(ctx, be, bob.ID)
		assert.NoError(t, err)
		assert.Len(t, listed, 0)
	})

	t.Run("delete team cascade test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		owner, err := users.SignUp(ctx, be, "olive", "olive@teampulse.dev", "secret-pw")
		assert.NoError(t, err)
		team, err := teams.CreateTeam(ctx, be, &types.CreateTeamFields{
			Slug: "acme",
			Name: "Acme",
		}, owner.ID)
		assert.NoError(t, err)

		launch, err := projects.CreateProject(ctx, be, team.ID, &types.CreateProjectFields{
			Slug: "launch",
			Name: "Launch",
		}, owner.ID)
		assert.NoError(t, err)
		ops, err := projects.CreateProject(ctx, be, team.ID, &types.CreateProjectFields{
			Slug: "ops",
			Name: "Ops",
		}, owner.ID)
		assert.NoError(t, err)

		update, err := updates.Create(ctx, be, launch.ID, &types.CreateUpdateFields{
			Content: "kickoff",
		}, owner.ID)
		assert.NoError(t, err)
		_, err = updates.Create(ctx, be, ops.ID, &types.CreateUpdateFields{
			Content: "runbook ready",
		}, owner.ID)
		assert.NoError(t, err)

		// Deleting the team removes its projects and their updates.
		assert.NoError(t, teams.DeleteTeam(ctx, be, team.ID))

		_, err = teams.GetTeamByID(ctx, be, team.ID)
		assert.ErrorIs(t, err, database.ErrTeamNotFound)
		_, err = projects.GetProjectByID(ctx, be, launch.ID)
		assert.ErrorIs(t, err, database.ErrProjectNotFound)
		_, err = updates.Get(ctx, be, update.ID)
		assert.ErrorIs(t, err, database.ErrUpdateNotFound)
	})
}
