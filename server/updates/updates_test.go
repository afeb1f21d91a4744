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

package updates_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
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

func setupTestProject(
	t *testing.T,
	ctx context.Context,
	be *backend.Backend,
) (*types.User, *types.Project) {
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

	return owner, project
}

func TestUpdates(t *testing.T) {
	t.Run("create update test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		update, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content:  "shipped the beta",
			Category: "progress",
			Mood:     "excited",
		}, owner.ID)
		assert.NoError(t, err)
		assert.Equal(t, project.ID, update.ProjectID)
		assert.Equal(t, project.TeamID, update.TeamID)
		assert.Equal(t, owner.ID, update.AuthorID)
		assert.Equal(t, "shipped the beta", update.Content)
		assert.False(t, update.IsEdited)

		info, err := projects.GetProjectByID(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), info.Stats.TotalUpdates)
		assert.Equal(t, update.CreatedAt, info.Stats.LastUpdateAt)
	})

	t.Run("mention rendering test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		bob, err := users.SignUp(ctx, be, "bob", "bob@teampulse.dev", "secret-pw")
		assert.NoError(t, err)

		// 01. A mention of a known user is wrapped and resolved.
		update, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "pairing with @bob today",
		}, owner.ID)
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{bob.ID}, update.Mentions)
		assert.Contains(t, update.ContentHTML, fmt.Sprintf(
			`<span class="mention" data-user-id=%q>@bob</span>`, bob.ID,
		))

		// 02. A mention of an unknown user stays plain text.
		update, err = updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "waiting on @ghost",
		}, owner.ID)
		assert.NoError(t, err)
		assert.Empty(t, update.Mentions)
		assert.NotContains(t, update.ContentHTML, "mention")
		assert.Contains(t, update.ContentHTML, "@ghost")

		// 03. Markup is escaped before mentions are wrapped, so an injected
		// tag never survives and linebreaks become <br>.
		update, err = updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "<b>bold</b> claim\ncc @bob",
		}, owner.ID)
		assert.NoError(t, err)
		assert.NotContains(t, update.ContentHTML, "<b>")
		assert.Contains(t, update.ContentHTML, "&lt;b&gt;bold&lt;/b&gt;")
		assert.Contains(t, update.ContentHTML, "<br>")
		assert.Equal(t, []types.ID{bob.ID}, update.Mentions)

		// 04. A user mentioned twice is resolved once, and mention tokens
		// are case-folded before resolution.
		update, err = updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "@BOB and again @bob",
		}, owner.ID)
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{bob.ID}, update.Mentions)
	})

	t.Run("edit update test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		update, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content:  "first draft",
			Category: "progress",
		}, owner.ID)
		assert.NoError(t, err)

		// 01. Editing the content re-renders it and marks the update edited,
		// but never moves its feed position.
		content := "final draft"
		edited, err := updates.Edit(ctx, be, update.ID, &types.UpdatableUpdateFields{
			Content: &content,
		})
		assert.NoError(t, err)
		assert.Equal(t, "final draft", edited.Content)
		assert.Equal(t, "final draft", edited.ContentHTML)
		assert.True(t, edited.IsEdited)
		assert.Equal(t, update.CreatedAt, edited.CreatedAt)
		assert.Equal(t, "progress", edited.Category)

		// 02. Editing only the metadata carries the content through.
		mood := "tired"
		edited, err = updates.Edit(ctx, be, update.ID, &types.UpdatableUpdateFields{
			Mood: &mood,
		})
		assert.NoError(t, err)
		assert.Equal(t, "final draft", edited.Content)
		assert.Equal(t, "tired", edited.Mood)
	})

	t.Run("delete update test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		first, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "keep me",
		}, owner.ID)
		assert.NoError(t, err)
		second, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "delete me",
		}, owner.ID)
		assert.NoError(t, err)

		// 01. Deleting the pinned update clears the project's pin.
		_, err = updates.Pin(ctx, be, second.ID)
		assert.NoError(t, err)
		assert.NoError(t, updates.Delete(ctx, be, second.ID))

		info, err := projects.GetProjectByID(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, types.ID(""), info.PinnedUpdateID)
		assert.Equal(t, int64(1), info.Stats.TotalUpdates)

		// 02. The remaining update is untouched.
		_, err = updates.Get(ctx, be, first.ID)
		assert.NoError(t, err)
	})

	t.Run("reaction test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		update, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "demo day",
		}, owner.ID)
		assert.NoError(t, err)

		// 01. Re-adding the same emoji keeps a single reaction.
		_, err = updates.AddReaction(ctx, be, update.ID, owner.ID, "🎉")
		assert.NoError(t, err)
		reacted, err := updates.AddReaction(ctx, be, update.ID, owner.ID, "🎉")
		assert.NoError(t, err)
		assert.Len(t, reacted.Reactions, 1)

		// 02. A different emoji of the same user is a separate reaction.
		reacted, err = updates.AddReaction(ctx, be, update.ID, owner.ID, "👀")
		assert.NoError(t, err)
		assert.Len(t, reacted.Reactions, 2)

		// 03. Removing one leaves the other in place.
		reacted, err = updates.RemoveReaction(ctx, be, update.ID, owner.ID, "🎉")
		assert.NoError(t, err)
		assert.Len(t, reacted.Reactions, 1)
		assert.Equal(t, "👀", reacted.Reactions[0].Emoji)
	})

	t.Run("pin switch test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		first, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "first",
		}, owner.ID)
		assert.NoError(t, err)
		second, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "second",
		}, owner.ID)
		assert.NoError(t, err)

		// 01. Pinning the second update displaces the first pin.
		_, err = updates.Pin(ctx, be, first.ID)
		assert.NoError(t, err)
		_, err = updates.Pin(ctx, be, second.ID)
		assert.NoError(t, err)

		info, err := projects.GetProjectByID(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, second.ID, info.PinnedUpdateID)

		unpinned, err := updates.Get(ctx, be, first.ID)
		assert.NoError(t, err)
		assert.False(t, unpinned.IsPinned)

		// 02. Unpinning clears both the flag and the project's reference.
		_, err = updates.Unpin(ctx, be, second.ID)
		assert.NoError(t, err)
		info, err = projects.GetProjectByID(ctx, be, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, types.ID(""), info.PinnedUpdateID)
	})
}

func TestFeed(t *testing.T) {
	t.Run("feed pagination test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		for i := 0; i < 25; i++ {
			_, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
				Content: fmt.Sprintf("update %02d", i),
			}, owner.ID)
			assert.NoError(t, err)
		}

		// 01. The first page holds the default page size, newest first.
		page, err := updates.GetFeed(ctx, be, &updates.FeedQuery{ProjectID: project.ID})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, updates.DefaultFeedPageSize)
		assert.True(t, page.HasMore)
		assert.Equal(t, "update 24", page.Updates[0].Content)
		for i := 1; i < len(page.Updates); i++ {
			assert.Greater(t, page.Updates[i-1].ID, page.Updates[i].ID)
		}

		// 02. The cursor continues strictly below the previous page.
		next, err := updates.GetFeed(ctx, be, &updates.FeedQuery{
			ProjectID: project.ID,
			Cursor:    page.NextCursor,
		})
		assert.NoError(t, err)
		assert.Len(t, next.Updates, 5)
		assert.False(t, next.HasMore)
		assert.Equal(t, types.ID(""), next.NextCursor)
		assert.Less(t, next.Updates[0].ID, page.Updates[len(page.Updates)-1].ID)

		// 03. Out-of-range page sizes are clamped.
		page, err = updates.GetFeed(ctx, be, &updates.FeedQuery{
			ProjectID: project.ID,
			PageSize:  1000,
		})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, 25)

		page, err = updates.GetFeed(ctx, be, &updates.FeedQuery{
			ProjectID: project.ID,
			PageSize:  -1,
		})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, updates.DefaultFeedPageSize)
	})

	t.Run("feed author enrichment test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		_, err := updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content: "hello",
		}, owner.ID)
		assert.NoError(t, err)

		page, err := updates.GetFeed(ctx, be, &updates.FeedQuery{ProjectID: project.ID})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, 1)
		assert.NotNil(t, page.Updates[0].Author)
		assert.Equal(t, "olive", page.Updates[0].Author.Username)
	})

	t.Run("feed scope test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)
		owner, project := setupTestProject(t, ctx, be)

		team, err := teams.GetTeamByID(ctx, be, project.TeamID)
		assert.NoError(t, err)
		other, err := projects.CreateProject(ctx, be, team.ID, &types.CreateProjectFields{
			Slug: "ops",
			Name: "Ops",
		}, owner.ID)
		assert.NoError(t, err)

		secondTeam, err := teams.CreateTeam(ctx, be, &types.CreateTeamFields{
			Slug: "skunk",
			Name: "Skunkworks",
		}, owner.ID)
		assert.NoError(t, err)
		secondProject, err := projects.CreateProject(ctx, be, secondTeam.ID, &types.CreateProjectFields{
			Slug: "lab",
			Name: "Lab",
		}, owner.ID)
		assert.NoError(t, err)

		_, err = updates.Create(ctx, be, project.ID, &types.CreateUpdateFields{
			Content:  "from launch",
			Category: "progress",
		}, owner.ID)
		assert.NoError(t, err)
		_, err = updates.Create(ctx, be, other.ID, &types.CreateUpdateFields{
			Content:  "from ops",
			Category: "blocker",
		}, owner.ID)
		assert.NoError(t, err)
		_, err = updates.Create(ctx, be, secondProject.ID, &types.CreateUpdateFields{
			Content: "from lab",
		}, owner.ID)
		assert.NoError(t, err)

		// 01. The team feed spans the team's projects only.
		page, err := updates.GetFeed(ctx, be, &updates.FeedQuery{TeamID: team.ID})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, 2)

		// 02. The category filter narrows the scope.
		page, err = updates.GetFeed(ctx, be, &updates.FeedQuery{
			TeamID:   team.ID,
			Category: "blocker",
		})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, 1)
		assert.Equal(t, "from ops", page.Updates[0].Content)

		// 03. The team-set feed merges both teams newest first.
		page, err = updates.GetFeed(ctx, be, &updates.FeedQuery{
			TeamIDs: []types.ID{team.ID, secondTeam.ID},
		})
		assert.NoError(t, err)
		assert.Len(t, page.Updates, 3)
		assert.Equal(t, "from lab", page.Updates[0].Content)
	})
}
