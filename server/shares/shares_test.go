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

package shares_test

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
	"github.com/teampulse/teampulse/server/shares"
	"github.com/teampulse/teampulse/server/teams"
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

func TestShares(t *testing.T) {
	ctx := context.Background()
	be := setupTestBackend(t)

	owner, err := users.SignUp(ctx, be, "olive", "olive@teampulse.dev", "secret-pw")
	assert.NoError(t, err)
	team, err := teams.CreateTeam(ctx, be, &types.CreateTeamFields{
		Slug: "acme",
		Name: "Acme",
	}, owner.ID)
	assert.NoError(t, err)
	project, err := projects.CreateProject(ctx, be, team.ID, &types.CreateProjectFields{
		Slug: "launch",
		Name: "Launch",
	}, owner.ID)
	assert.NoError(t, err)

	t.Run("share lifecycle test", func(t *testing.T) {
		// 01. A fresh project resolves nothing.
		_, err := shares.Resolve(ctx, be, "nosuchtoken")
		assert.ErrorIs(t, err, database.ErrProjectNotFound)

		// 02. Enabling mints a token that resolves to the project.
		share, err := shares.Enable(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.True(t, share.Enabled)
		assert.NotEmpty(t, share.Token)

		resolved, err := shares.Resolve(ctx, be, share.Token)
		assert.NoError(t, err)
		assert.Equal(t, project.ID, resolved.ID)

		// 03. While disabled the token is indistinguishable from an unknown
		// one.
		_, err = shares.Disable(ctx, be, project.ID)
		assert.NoError(t, err)
		_, err = shares.Resolve(ctx, be, share.Token)
		assert.ErrorIs(t, err, database.ErrProjectNotFound)

		// 04. Re-enabling keeps the original token so old links survive a
		// disable/enable cycle.
		reEnabled, err := shares.Enable(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, share.Token, reEnabled.Token)

		// 05. Regenerating invalidates the old token immediately.
		regenerated, err := shares.Regenerate(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.True(t, regenerated.Enabled)
		assert.NotEqual(t, share.Token, regenerated.Token)

		_, err = shares.Resolve(ctx, be, share.Token)
		assert.ErrorIs(t, err, database.ErrProjectNotFound)
		resolved, err = shares.Resolve(ctx, be, regenerated.Token)
		assert.NoError(t, err)
		assert.Equal(t, project.ID, resolved.ID)
	})
}
