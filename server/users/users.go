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

// Package users provides the user related business logic.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
)

// SignUp signs up a new user.
func SignUp(
	ctx context.Context,
	be *backend.Backend,
	username,
	email,
	password string,
) (*types.User, error) {
	fields := &types.SignUpFields{
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	hashed, err := database.HashedPassword(password)
	if err != nil {
		return nil, fmt.Errorf("cannot hash password: %w", err)
	}

	info, err := be.DB.CreateUserInfo(ctx, username, email, hashed)
	if err != nil {
		return nil, err
	}

	return info.ToUser(), nil
}

// IsCorrectPassword checks if the password is correct.
func IsCorrectPassword(
	ctx context.Context,
	be *backend.Backend,
	username,
	password string,
) (*types.User, error) {
	info, err := be.DB.FindUserInfoByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := database.CompareHashAndPassword(
		info.HashedPassword,
		password,
	); err != nil {
		return nil, err
	}

	return info.ToUser(), nil
}

// GetUser returns a user by the given username.
func GetUser(
	ctx context.Context,
	be *backend.Backend,
	username string,
) (*types.User, error) {
	info, err := be.DB.FindUserInfoByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return info.ToUser(), nil
}

// GetUserByEmail returns a user by the given email.
func GetUserByEmail(
	ctx context.Context,
	be *backend.Backend,
	email string,
) (*types.User, error) {
	info, err := be.DB.FindUserInfoByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return info.ToUser(), nil
}

// ListUsers returns all users in the directory.
func ListUsers(
	ctx context.Context,
	be *backend.Backend,
) ([]*types.User, error) {
	infos, err := be.DB.ListUserInfos(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]*types.User, 0, len(infos))
	for _, info := range infos {
		users = append(users, info.ToUser())
	}

	return users, nil
}

// GetUserByID returns a user by the given ID, consulting the backend's user
// cache first.
func GetUserByID(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.User, error) {
	if user, ok := be.UserCache.Get(id); ok {
		return user, nil
	}

	info, err := be.DB.FindUserInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user := info.ToUser()
	be.UserCache.Add(id, user)
	return user, nil
}

// GetUsersByIDs returns the users matching the given IDs keyed by ID. Unknown
// IDs are silently absent from the result.
func GetUsersByIDs(
	ctx context.Context,
	be *backend.Backend,
	ids []types.ID,
) (map[types.ID]*types.User, error) {
	found := make(map[types.ID]*types.User, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}

		user, err := GetUserByID(ctx, be, id)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		found[id] = user
	}

	return found, nil
}

// UpdateProfile applies the given fields to the user's profile.
func UpdateProfile(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	fields *types.UpdatableUserFields,
) (*types.User, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	info, err := be.DB.UpdateUserProfile(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	user := info.ToUser()
	be.UserCache.Add(id, user)
	return user, nil
}
