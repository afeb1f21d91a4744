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

package database

import (
	"strings"
	"time"

	"github.com/teampulse/teampulse/api/types"
)

// UserInfo is a structure representing information of a user.
type UserInfo struct {
	// ID is the unique ID of the user.
	ID types.ID `bson:"_id"`

	// Username is the unique username of the user.
	Username string `bson:"username"`

	// Email is the unique, case-folded email of the user.
	Email string `bson:"email"`

	// Nickname is the display name of the user.
	Nickname string `bson:"nickname"`

	// Bio is the short self-description of the user.
	Bio string `bson:"bio"`

	// HashedPassword is the bcrypt hash of the password.
	HashedPassword string `bson:"hashed_password"`

	// CreatedAt is the time when the user was created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time when the user was updated.
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewUserInfo creates a new UserInfo of the given username and email.
// The email is case-folded before storage.
func NewUserInfo(username, email, hashedPassword string) *UserInfo {
	return &UserInfo{
		Username:       username,
		Email:          strings.ToLower(email),
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now(),
	}
}

// DeepCopy returns a deep copy of the UserInfo.
func (i *UserInfo) DeepCopy() *UserInfo {
	if i == nil {
		return nil
	}

	copied := *i
	return &copied
}

// UpdateFields applies the given updatable fields to this user.
func (i *UserInfo) UpdateFields(fields *types.UpdatableUserFields) {
	if fields.Nickname != nil {
		i.Nickname = *fields.Nickname
	}
	if fields.Bio != nil {
		i.Bio = *fields.Bio
	}
	i.UpdatedAt = time.Now()
}

// ToUser converts the UserInfo to a public User projection.
func (i *UserInfo) ToUser() *types.User {
	return &types.User{
		ID:        i.ID,
		Username:  i.Username,
		Nickname:  i.Nickname,
		Bio:       i.Bio,
		CreatedAt: i.CreatedAt,
	}
}
