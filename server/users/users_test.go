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

package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/backend/housekeeping"
	"github.com/teampulse/teampulse/server/profiling/prometheus"
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

func TestUsers(t *testing.T) {
	t.Run("sign up test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		user, err := users.SignUp(ctx, be, "olive", "Olive@TeamPulse.dev", "secret-pw")
		assert.NoError(t, err)
		assert.Equal(t, "olive", user.Username)

		// The stored hash verifies the password, never the plain text.
		verified, err := users.IsCorrectPassword(ctx, be, "olive", "secret-pw")
		assert.NoError(t, err)
		assert.Equal(t, user.ID, verified.ID)
		_, err = users.IsCorrectPassword(ctx, be, "olive", "wrong-pw")
		assert.Error(t, err)

		// Usernames are unique, emails are unique after case folding.
		_, err = users.SignUp(ctx, be, "olive", "other@teampulse.dev", "secret-pw")
		assert.ErrorIs(t, err, database.ErrUserAlreadyExists)
		_, err = users.SignUp(ctx, be, "olive2", "OLIVE@teampulse.dev", "secret-pw")
		assert.ErrorIs(t, err, database.ErrUserAlreadyExists)
	})

	t.Run("sign up validation test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		// 01. Usernames are canonical lowercase, so an uppercase one never
		// makes it into the directory.
		_, err := users.SignUp(ctx, be, "Dave", "dave@teampulse.dev", "secret-pw")
		var fieldsErr *types.InvalidFieldsError
		assert.ErrorAs(t, err, &fieldsErr)

		// 02. Malformed emails and short passwords are rejected.
		_, err = users.SignUp(ctx, be, "dave", "not-an-email", "secret-pw")
		assert.ErrorAs(t, err, &fieldsErr)
		_, err = users.SignUp(ctx, be, "dave", "dave@teampulse.dev", "short")
		assert.ErrorAs(t, err, &fieldsErr)

		// 03. A lowercase rendition of the same name signs up fine and is
		// reachable as a mention target.
		dave, err := users.SignUp(ctx, be, "dave", "dave@teampulse.dev", "secret-pw")
		assert.NoError(t, err)

		infos, err := be.DB.FindUserInfosByUsernames(ctx, []string{"dave"})
		assert.NoError(t, err)
		assert.Len(t, infos, 1)
		assert.Equal(t, dave.ID, infos[0].ID)
	})

	t.Run("batched lookup test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		olive, err := users.SignUp(ctx, be, "olive", "olive@teampulse.dev", "secret-pw")
		assert.NoError(t, err)
		bob, err := users.SignUp(ctx, be, "bob", "bob@teampulse.dev", "secret-pw")
		assert.NoError(t, err)

		// Unknown IDs are silently absent, duplicates are fetched once.
		found, err := users.GetUsersByIDs(ctx, be, []types.ID{
			olive.ID, bob.ID, olive.ID, types.NewID(),
		})
		assert.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, "olive", found[olive.ID].Username)
		assert.Equal(t, "bob", found[bob.ID].Username)

		// Email lookup folds case; the directory lists everyone.
		byEmail, err := users.GetUserByEmail(ctx, be, "Bob@TeamPulse.dev")
		assert.NoError(t, err)
		assert.Equal(t, bob.ID, byEmail.ID)

		listed, err := users.ListUsers(ctx, be)
		assert.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("profile update test", func(t *testing.T) {
		ctx := context.Background()
		be := setupTestBackend(t)

		user, err := users.SignUp(ctx, be, "olive", "olive@teampulse.dev", "secret-pw")
		assert.NoError(t, err)

		// 01. Empty field sets are rejected.
		_, err = users.UpdateProfile(ctx, be, user.ID, &types.UpdatableUserFields{})
		assert.ErrorIs(t, err, types.ErrEmptyUserFields)

		// 02. The update lands in the cache as well as the store.
		nickname := "liv"
		updated, err := users.UpdateProfile(ctx, be, user.ID, &types.UpdatableUserFields{
			Nickname: &nickname,
		})
		assert.NoError(t, err)
		assert.Equal(t, "liv", updated.Nickname)

		cached, err := users.GetUserByID(ctx, be, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, "liv", cached.Nickname)
	})
}
