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

package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/backend/database/memory"
)

func setupTestWithDummyData(t *testing.T) *memory.DB {
	t.Helper()

	db, err := memory.New()
	assert.NoError(t, err)
	return db
}

func createUpdates(
	t *testing.T,
	db *memory.DB,
	projectID, teamID, author types.ID,
	count int,
	category string,
) []*database.UpdateInfo {
	t.Helper()

	ctx := context.Background()
	var infos []*database.UpdateInfo
	for i := 0; i < count; i++ {
		info, err := database.NewUpdateInfo(
			projectID, teamID, author,
			fmt.Sprintf("status %d", i), fmt.Sprintf("<p>status %d</p>", i),
			category, "", nil, nil,
		)
		assert.NoError(t, err)

		created, err := db.CreateUpdateInfo(ctx, info)
		assert.NoError(t, err)
		infos = append(infos, created)
	}
	return infos
}

func TestDB(t *testing.T) {
	ctx := context.Background()

	t.Run("create user test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		info, err := db.CreateUserInfo(ctx, "alice", "Alice@Example.com", "hashed")
		assert.NoError(t, err)
		assert.Equal(t, "alice", info.Username)
		assert.Equal(t, "alice@example.com", info.Email)
		assert.NoError(t, info.ID.Validate())

		// 01. creating with the same username must fail.
		_, err = db.CreateUserInfo(ctx, "alice", "other@example.com", "hashed")
		assert.ErrorIs(t, err, database.ErrUserAlreadyExists)

		// 02. creating with the same email, differently cased, must fail.
		_, err = db.CreateUserInfo(ctx, "bob", "ALICE@example.com", "hashed")
		assert.ErrorIs(t, err, database.ErrUserAlreadyExists)

		found, err := db.FindUserInfoByUsername(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, info.ID, found.ID)

		found, err = db.FindUserInfoByEmail(ctx, "alice@example.com")
		assert.NoError(t, err)
		assert.Equal(t, info.ID, found.ID)

		_, err = db.FindUserInfoByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, database.ErrUserNotFound)
	})

	t.Run("find users by usernames test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		_, err := db.CreateUserInfo(ctx, "alice", "alice@example.com", "hashed")
		assert.NoError(t, err)
		_, err = db.CreateUserInfo(ctx, "bob", "bob@example.com", "hashed")
		assert.NoError(t, err)

		// unknown usernames are skipped, not reported.
		infos, err := db.FindUserInfosByUsernames(ctx, []string{"alice", "ghost", "bob"})
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
	})

	t.Run("update user profile test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		info, err := db.CreateUserInfo(ctx, "alice", "alice@example.com", "hashed")
		assert.NoError(t, err)

		nickname := "Alice"
		updated, err := db.UpdateUserProfile(ctx, info.ID, &types.UpdatableUserFields{
			Nickname: &nickname,
		})
		assert.NoError(t, err)
		assert.Equal(t, "Alice", updated.Nickname)
		assert.Equal(t, "", updated.Bio)
	})

	t.Run("team membership test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		member, err := db.CreateUserInfo(ctx, "member", "member@example.com", "hashed")
		assert.NoError(t, err)

		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)

		// 01. the owner is seeded as an admin member.
		role, ok := team.ResolveRole(owner.ID)
		assert.True(t, ok)
		assert.Equal(t, database.TeamAdmin, role)

		// 02. duplicate slugs are rejected.
		_, err = db.CreateTeamInfo(ctx, "acme", "Acme 2", owner.ID)
		assert.ErrorIs(t, err, database.ErrTeamAlreadyExists)

		// 03. members can be added once.
		team, err = db.AddTeamMember(ctx, team.ID, member.ID, database.TeamMember)
		assert.NoError(t, err)
		_, err = db.AddTeamMember(ctx, team.ID, member.ID, database.TeamMember)
		assert.ErrorIs(t, err, database.ErrMemberAlreadyExists)

		// 04. the owner's entry cannot be changed or removed.
		_, err = db.UpdateTeamMemberRole(ctx, team.ID, owner.ID, database.TeamViewer)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)
		_, err = db.RemoveTeamMember(ctx, team.ID, owner.ID)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)

		// 05. a regular member can be demoted and removed.
		team, err = db.UpdateTeamMemberRole(ctx, team.ID, member.ID, database.TeamViewer)
		assert.NoError(t, err)
		role, ok = team.ResolveRole(member.ID)
		assert.True(t, ok)
		assert.Equal(t, database.TeamViewer, role)

		team, err = db.RemoveTeamMember(ctx, team.ID, member.ID)
		assert.NoError(t, err)
		_, ok = team.ResolveRole(member.ID)
		assert.False(t, ok)

		teams, err := db.ListTeamInfosByUser(ctx, owner.ID)
		assert.NoError(t, err)
		assert.Len(t, teams, 1)

		teams, err = db.ListTeamInfosByUser(ctx, member.ID)
		assert.NoError(t, err)
		assert.Len(t, teams, 0)
	})

	t.Run("project role precedence test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		viewer, err := db.CreateUserInfo(ctx, "viewer", "viewer@example.com", "hashed")
		assert.NoError(t, err)
		stranger, err := db.CreateUserInfo(ctx, "stranger", "stranger@example.com", "hashed")
		assert.NoError(t, err)

		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		// 01. the owner always resolves to owner.
		role, ok := project.ResolveRole(owner.ID)
		assert.True(t, ok)
		assert.Equal(t, database.ProjectOwner, role)

		// 02. unlisted users resolve to nothing while access is none.
		_, ok = project.ResolveRole(stranger.ID)
		assert.False(t, ok)

		// 03. a blanket edit grant covers unlisted users.
		project, err = db.SetAllUsersAccess(ctx, project.ID, database.AccessEdit)
		assert.NoError(t, err)
		role, ok = project.ResolveRole(stranger.ID)
		assert.True(t, ok)
		assert.Equal(t, database.ProjectEditor, role)

		// 04. an explicit viewer grant beats the blanket edit grant.
		project, err = db.AddCollaborator(ctx, project.ID, viewer.ID, database.ProjectViewer)
		assert.NoError(t, err)
		role, ok = project.ResolveRole(viewer.ID)
		assert.True(t, ok)
		assert.Equal(t, database.ProjectViewer, role)

		// 05. the owner's access cannot be altered through collaborators.
		_, err = db.UpdateCollaboratorRole(ctx, project.ID, owner.ID, database.ProjectViewer)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)
		_, err = db.RemoveCollaborator(ctx, project.ID, owner.ID)
		assert.ErrorIs(t, err, database.ErrOwnerImmutable)

		// 06. slugs are unique within a team only.
		_, err = db.CreateProjectInfo(ctx, team.ID, "launch", "Launch 2", owner.ID)
		assert.ErrorIs(t, err, database.ErrProjectAlreadyExists)
		team2, err := db.CreateTeamInfo(ctx, "other", "Other", owner.ID)
		assert.NoError(t, err)
		_, err = db.CreateProjectInfo(ctx, team2.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)
	})

	t.Run("share lifecycle test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		// 01. before enabling, resolution fails.
		_, err = db.FindProjectInfoByShareToken(ctx, "token-1")
		assert.ErrorIs(t, err, database.ErrProjectNotFound)

		// 02. enabling mints the token and resolution succeeds.
		project, err = db.EnableShare(ctx, project.ID, "token-1")
		assert.NoError(t, err)
		assert.True(t, project.ShareEnabled)
		found, err := db.FindProjectInfoByShareToken(ctx, "token-1")
		assert.NoError(t, err)
		assert.Equal(t, project.ID, found.ID)

		// 03. re-enabling keeps the existing token.
		project, err = db.EnableShare(ctx, project.ID, "token-ignored")
		assert.NoError(t, err)
		assert.Equal(t, "token-1", project.ShareToken)

		// 04. a disabled share behaves exactly like a missing one.
		_, err = db.DisableShare(ctx, project.ID)
		assert.NoError(t, err)
		_, err = db.FindProjectInfoByShareToken(ctx, "token-1")
		assert.ErrorIs(t, err, database.ErrProjectNotFound)

		// 05. regeneration invalidates the old token immediately.
		project, err = db.RegenerateShare(ctx, project.ID, "token-2")
		assert.NoError(t, err)
		assert.True(t, project.ShareEnabled)
		_, err = db.FindProjectInfoByShareToken(ctx, "token-1")
		assert.ErrorIs(t, err, database.ErrProjectNotFound)
		found, err = db.FindProjectInfoByShareToken(ctx, "token-2")
		assert.NoError(t, err)
		assert.Equal(t, project.ID, found.ID)
	})

	t.Run("update counter test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		now := time.Now()
		assert.NoError(t, db.IncrementUpdateCount(ctx, project.ID, 1, now))
		assert.NoError(t, db.IncrementUpdateCount(ctx, project.ID, 1, now.Add(time.Second)))
		assert.NoError(t, db.IncrementUpdateCount(ctx, project.ID, -1, time.Time{}))

		project, err = db.FindProjectInfoByID(ctx, project.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), project.Stats.TotalUpdates)
		assert.Equal(t, now.Add(time.Second).Unix(), project.Stats.LastUpdateAt.Unix())
	})

	t.Run("invite lifecycle test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		invitee, err := db.CreateUserInfo(ctx, "invitee", "invitee@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)

		scope := database.InviteScope{Kind: database.ScopeTeam, ID: team.ID}
		expiresAt := time.Now().Add(database.InviteTTL)

		invite, err := db.CreateInviteInfo(
			ctx, scope, "Invitee@Example.com", "member", "tok-1", owner.ID, expiresAt,
		)
		assert.NoError(t, err)
		assert.Equal(t, database.InvitePending, invite.Status)
		assert.Equal(t, "invitee@example.com", invite.Email)

		// 01. token collisions are rejected.
		_, err = db.CreateInviteInfo(
			ctx, scope, "other@example.com", "member", "tok-1", owner.ID, expiresAt,
		)
		assert.ErrorIs(t, err, database.ErrInviteAlreadyExists)

		// 02. rotation invalidates the old token.
		invite, err = db.RotateInviteToken(ctx, invite.ID, "tok-2", time.Now().Add(database.InviteTTL))
		assert.NoError(t, err)
		_, err = db.FindInviteInfoByToken(ctx, "tok-1")
		assert.ErrorIs(t, err, database.ErrInviteNotFound)

		// 03. of two accepts on the same token, exactly one wins.
		accepted, err := db.AcceptInviteInfo(ctx, "tok-2", invitee.ID, time.Now())
		assert.NoError(t, err)
		assert.Equal(t, database.InviteAccepted, accepted.Status)
		assert.Equal(t, invitee.ID, accepted.AcceptedBy)

		_, err = db.AcceptInviteInfo(ctx, "tok-2", invitee.ID, time.Now())
		assert.ErrorIs(t, err, database.ErrInviteNotPending)

		// 04. accepted invites cannot be revoked or rotated.
		_, err = db.RevokeInviteInfo(ctx, invite.ID)
		assert.ErrorIs(t, err, database.ErrInviteNotPending)
		_, err = db.RotateInviteToken(ctx, invite.ID, "tok-3", expiresAt)
		assert.ErrorIs(t, err, database.ErrInviteNotPending)

		invites, err := db.ListInviteInfosByScope(ctx, scope)
		assert.NoError(t, err)
		assert.Len(t, invites, 1)
	})

	t.Run("invite expiry test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		scope := database.InviteScope{Kind: database.ScopeTeam, ID: team.ID}

		stale, err := db.CreateInviteInfo(
			ctx, scope, "stale@example.com", "member", "tok-stale", owner.ID,
			time.Now().Add(-time.Hour),
		)
		assert.NoError(t, err)
		fresh, err := db.CreateInviteInfo(
			ctx, scope, "fresh@example.com", "member", "tok-fresh", owner.ID,
			time.Now().Add(database.InviteTTL),
		)
		assert.NoError(t, err)

		// 01. an expired token cannot be accepted even before the sweep.
		_, err = db.AcceptInviteInfo(ctx, "tok-stale", owner.ID, time.Now())
		assert.ErrorIs(t, err, database.ErrInviteNotPending)

		// 02. the sweep only touches stale pending invites.
		count, err := db.ExpireInviteInfos(ctx, time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		info, err := db.FindInviteInfoByID(ctx, stale.ID)
		assert.NoError(t, err)
		assert.Equal(t, database.InviteExpired, info.Status)

		info, err = db.FindInviteInfoByID(ctx, fresh.ID)
		assert.NoError(t, err)
		assert.Equal(t, database.InvitePending, info.Status)

		// 03. the sweep is idempotent.
		count, err = db.ExpireInviteInfos(ctx, time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("reaction invariant test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		infos := createUpdates(t, db, project.ID, team.ID, owner.ID, 1, "")
		updateID := infos[0].ID

		// 01. re-adding the same (user, emoji) pair keeps a single entry.
		_, err = db.AddReaction(ctx, updateID, owner.ID, "👍")
		assert.NoError(t, err)
		info, err := db.AddReaction(ctx, updateID, owner.ID, "👍")
		assert.NoError(t, err)
		assert.Len(t, info.Reactions, 1)

		// 02. a different emoji from the same user is a separate entry.
		info, err = db.AddReaction(ctx, updateID, owner.ID, "🎉")
		assert.NoError(t, err)
		assert.Len(t, info.Reactions, 2)

		// 03. removal only touches the matching pair.
		info, err = db.RemoveReaction(ctx, updateID, owner.ID, "👍")
		assert.NoError(t, err)
		assert.Len(t, info.Reactions, 1)
		assert.Equal(t, "🎉", info.Reactions[0].Emoji)

		// 04. removing an absent pair is a no-op.
		info, err = db.RemoveReaction(ctx, updateID, owner.ID, "👍")
		assert.NoError(t, err)
		assert.Len(t, info.Reactions, 1)
	})

	t.Run("content edit test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		infos := createUpdates(t, db, project.ID, team.ID, owner.ID, 1, "progress")
		created := infos[0]

		editedAt := time.Now()
		edited, err := db.UpdateUpdateInfoContent(ctx, created.ID, &database.ContentChange{
			Content:     "revised",
			ContentHTML: "<p>revised</p>",
			EditedAt:    editedAt,
		})
		assert.NoError(t, err)
		assert.True(t, edited.IsEdited)
		assert.Equal(t, "revised", edited.Content)
		// an edit never moves the feed position.
		assert.Equal(t, created.CreatedAt.Unix(), edited.CreatedAt.Unix())
		// category is untouched when the change omits it.
		assert.Equal(t, "progress", edited.Category)
	})

	t.Run("feed pagination test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		project, err := db.CreateProjectInfo(ctx, team.ID, "launch", "Launch", owner.ID)
		assert.NoError(t, err)

		created := createUpdates(t, db, project.ID, team.ID, owner.ID, 25, "")

		// 01. the first page returns the newest 20 in descending order.
		page, err := db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{ProjectID: project.ID},
			types.Paging[types.ID]{PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 20)
		assert.Equal(t, created[24].ID, page[0].ID)
		for i := 0; i < len(page)-1; i++ {
			assert.Greater(t, page[i].ID.String(), page[i+1].ID.String())
		}

		// 02. the second page returns the remaining 5 with no overlap.
		seen := map[types.ID]bool{}
		for _, info := range page {
			seen[info.ID] = true
		}

		page, err = db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{ProjectID: project.ID},
			types.Paging[types.ID]{Offset: page[len(page)-1].ID, PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 5)
		for _, info := range page {
			assert.False(t, seen[info.ID])
		}
		assert.Equal(t, created[0].ID, page[len(page)-1].ID)
	})

	t.Run("feed scope and category test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		teamA, err := db.CreateTeamInfo(ctx, "team-a", "Team A", owner.ID)
		assert.NoError(t, err)
		teamB, err := db.CreateTeamInfo(ctx, "team-b", "Team B", owner.ID)
		assert.NoError(t, err)
		projectA, err := db.CreateProjectInfo(ctx, teamA.ID, "a", "A", owner.ID)
		assert.NoError(t, err)
		projectB, err := db.CreateProjectInfo(ctx, teamB.ID, "b", "B", owner.ID)
		assert.NoError(t, err)

		createUpdates(t, db, projectA.ID, teamA.ID, owner.ID, 3, "progress")
		createUpdates(t, db, projectA.ID, teamA.ID, owner.ID, 2, "blocker")
		createUpdates(t, db, projectB.ID, teamB.ID, owner.ID, 4, "progress")

		// 01. team scope covers all projects of the team.
		page, err := db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{TeamID: teamA.ID},
			types.Paging[types.ID]{PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 5)

		// 02. the category filter narrows without reordering.
		page, err = db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{TeamID: teamA.ID, Category: "progress"},
			types.Paging[types.ID]{PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 3)

		// 03. the merged team-set feed interleaves by ID descending.
		page, err = db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{TeamIDs: []types.ID{teamA.ID, teamB.ID}},
			types.Paging[types.ID]{PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 9)
		for i := 0; i < len(page)-1; i++ {
			assert.Greater(t, page[i].ID.String(), page[i+1].ID.String())
		}
	})

	t.Run("cascade delete test", func(t *testing.T) {
		db := setupTestWithDummyData(t)

		owner, err := db.CreateUserInfo(ctx, "owner", "owner@example.com", "hashed")
		assert.NoError(t, err)
		team, err := db.CreateTeamInfo(ctx, "acme", "Acme", owner.ID)
		assert.NoError(t, err)
		projectA, err := db.CreateProjectInfo(ctx, team.ID, "a", "A", owner.ID)
		assert.NoError(t, err)
		projectB, err := db.CreateProjectInfo(ctx, team.ID, "b", "B", owner.ID)
		assert.NoError(t, err)

		createUpdates(t, db, projectA.ID, team.ID, owner.ID, 3, "")
		createUpdates(t, db, projectB.ID, team.ID, owner.ID, 2, "")

		count, err := db.DeleteUpdateInfosByProject(ctx, projectA.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)

		count, err = db.DeleteUpdateInfosByTeam(ctx, team.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)

		page, err := db.FindUpdateInfosByFeed(
			ctx,
			database.FeedSelector{TeamID: team.ID},
			types.Paging[types.ID]{PageSize: 20},
		)
		assert.NoError(t, err)
		assert.Len(t, page, 0)
	})
}
