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

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"fmt"
	gotime "time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves TeamPulse data.
type Client struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(
		options.Client().ApplyURI(conf.ConnectionURI),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancel()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.TeamPulseDatabase)); err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof(
		"MongoDB connected, URI: %s, DB: %s",
		conf.ConnectionURI,
		conf.TeamPulseDatabase,
	)

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// CreateUserInfo creates a new user. The username and the case-folded email
// are unique across the system.
func (c *Client) CreateUserInfo(
	ctx context.Context,
	username, email, hashedPassword string,
) (*database.UserInfo, error) {
	info := database.NewUserInfo(username, email, hashedPassword)
	info.ID = types.NewID()

	if _, err := c.collection(ColUsers).InsertOne(ctx, info); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", username, database.ErrUserAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return info, nil
}

// FindUserInfoByID finds a user by the given ID.
func (c *Client) FindUserInfoByID(ctx context.Context, id types.ID) (*database.UserInfo, error) {
	info := database.UserInfo{}
	if err := c.collection(ColUsers).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return &info, nil
}

// FindUserInfoByUsername finds a user by the given username.
func (c *Client) FindUserInfoByUsername(
	ctx context.Context,
	username string,
) (*database.UserInfo, error) {
	info := database.UserInfo{}
	if err := c.collection(ColUsers).FindOne(ctx, bson.M{
		"username": username,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", username, database.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	return &info, nil
}

// FindUserInfoByEmail finds a user by the given case-folded email.
func (c *Client) FindUserInfoByEmail(
	ctx context.Context,
	email string,
) (*database.UserInfo, error) {
	info := database.UserInfo{}
	if err := c.collection(ColUsers).FindOne(ctx, bson.M{
		"email": email,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", email, database.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &info, nil
}

// FindUserInfosByUsernames finds the users matching the given usernames.
// Unknown usernames are silently skipped.
func (c *Client) FindUserInfosByUsernames(
	ctx context.Context,
	usernames []string,
) ([]*database.UserInfo, error) {
	cursor, err := c.collection(ColUsers).Find(ctx, bson.M{
		"username": bson.M{"$in": usernames},
	})
	if err != nil {
		return nil, fmt.Errorf("find users by usernames: %w", err)
	}

	var infos []*database.UserInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	return infos, nil
}

// UpdateUserProfile applies the given fields to the user's profile.
func (c *Client) UpdateUserProfile(
	ctx context.Context,
	id types.ID,
	fields *types.UpdatableUserFields,
) (*database.UserInfo, error) {
	updates := bson.M{"updated_at": gotime.Now()}
	if fields.Nickname != nil {
		updates["nickname"] = *fields.Nickname
	}
	if fields.Bio != nil {
		updates["bio"] = *fields.Bio
	}

	info := database.UserInfo{}
	if err := c.collection(ColUsers).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrUserNotFound)
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}

	return &info, nil
}

// ListUserInfos returns all users.
func (c *Client) ListUserInfos(ctx context.Context) ([]*database.UserInfo, error) {
	cursor, err := c.collection(ColUsers).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var infos []*database.UserInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	return infos, nil
}

// CreateTeamInfo creates a new team with the given owner.
func (c *Client) CreateTeamInfo(
	ctx context.Context,
	slug, name string,
	owner types.ID,
) (*database.TeamInfo, error) {
	info := database.NewTeamInfo(slug, name, owner)
	info.ID = types.NewID()

	if _, err := c.collection(ColTeams).InsertOne(ctx, info); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", slug, database.ErrTeamAlreadyExists)
		}
		return nil, fmt.Errorf("create team: %w", err)
	}

	return info, nil
}

// FindTeamInfoByID finds a team by the given ID.
func (c *Client) FindTeamInfoByID(ctx context.Context, id types.ID) (*database.TeamInfo, error) {
	info := database.TeamInfo{}
	if err := c.collection(ColTeams).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrTeamNotFound)
		}
		return nil, fmt.Errorf("find team by id: %w", err)
	}

	return &info, nil
}

// FindTeamInfoBySlug finds a team by the given slug.
func (c *Client) FindTeamInfoBySlug(ctx context.Context, slug string) (*database.TeamInfo, error) {
	info := database.TeamInfo{}
	if err := c.collection(ColTeams).FindOne(ctx, bson.M{
		"slug": slug,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", slug, database.ErrTeamNotFound)
		}
		return nil, fmt.Errorf("find team by slug: %w", err)
	}

	return &info, nil
}

// ListTeamInfosByUser returns the teams the given user is a member of.
func (c *Client) ListTeamInfosByUser(
	ctx context.Context,
	userID types.ID,
) ([]*database.TeamInfo, error) {
	cursor, err := c.collection(ColTeams).Find(ctx, bson.M{
		"members.user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("list teams by user: %w", err)
	}

	var infos []*database.TeamInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}

	return infos, nil
}

// AddTeamMember adds the user to the team's member list. The filter excludes
// teams already containing the user, so the push happens at most once.
func (c *Client) AddTeamMember(
	ctx context.Context,
	teamID, userID types.ID,
	role database.TeamRole,
) (*database.TeamInfo, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	now := gotime.Now()
	info := database.TeamInfo{}
	err := c.collection(ColTeams).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":             teamID,
			"members.user_id": bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"members": database.TeamMemberInfo{
				UserID:   userID,
				Role:     role,
				JoinedAt: now,
			}},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("add team member: %w", err)
	}

	if _, err := c.FindTeamInfoByID(ctx, teamID); err != nil {
		return nil, err
	}
	return nil, database.ErrMemberAlreadyExists
}

// UpdateTeamMemberRole changes the role of the given member.
func (c *Client) UpdateTeamMemberRole(
	ctx context.Context,
	teamID, userID types.ID,
	role database.TeamRole,
) (*database.TeamInfo, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	info := database.TeamInfo{}
	err := c.collection(ColTeams).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":             teamID,
			"owner":           bson.M{"$ne": userID},
			"members.user_id": userID,
		},
		bson.M{"$set": bson.M{
			"members.$.role": role,
			"updated_at":     gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("update team member role: %w", err)
	}

	return nil, c.classifyMemberFailure(ctx, teamID, userID)
}

// RemoveTeamMember removes the given member from the team.
func (c *Client) RemoveTeamMember(
	ctx context.Context,
	teamID, userID types.ID,
) (*database.TeamInfo, error) {
	info := database.TeamInfo{}
	err := c.collection(ColTeams).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":             teamID,
			"owner":           bson.M{"$ne": userID},
			"members.user_id": userID,
		},
		bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": gotime.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("remove team member: %w", err)
	}

	return nil, c.classifyMemberFailure(ctx, teamID, userID)
}

// classifyMemberFailure reports why a guarded member mutation matched no
// document.
func (c *Client) classifyMemberFailure(ctx context.Context, teamID, userID types.ID) error {
	team, err := c.FindTeamInfoByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Owner == userID {
		return database.ErrOwnerImmutable
	}
	return database.ErrMemberNotFound
}

// DeleteTeamInfo removes the team record.
func (c *Client) DeleteTeamInfo(ctx context.Context, teamID types.ID) error {
	result, err := c.collection(ColTeams).DeleteOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", teamID, database.ErrTeamNotFound)
	}

	return nil
}

// CreateProjectInfo creates a new project inside the team.
func (c *Client) CreateProjectInfo(
	ctx context.Context,
	teamID types.ID,
	slug, name string,
	owner types.ID,
) (*database.ProjectInfo, error) {
	info := database.NewProjectInfo(teamID, slug, name, owner)
	info.ID = types.NewID()

	if _, err := c.collection(ColProjects).InsertOne(ctx, info); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", slug, database.ErrProjectAlreadyExists)
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	return info, nil
}

// FindProjectInfoByID finds a project by the given ID.
func (c *Client) FindProjectInfoByID(
	ctx context.Context,
	id types.ID,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	if err := c.collection(ColProjects).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}

	return &info, nil
}

// FindProjectInfoBySlug finds a project by the given team and slug.
func (c *Client) FindProjectInfoBySlug(
	ctx context.Context,
	teamID types.ID,
	slug string,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	if err := c.collection(ColProjects).FindOne(ctx, bson.M{
		"team_id": teamID,
		"slug":    slug,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", slug, database.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("find project by slug: %w", err)
	}

	return &info, nil
}

// ListProjectInfosByTeam returns all projects of the team.
func (c *Client) ListProjectInfosByTeam(
	ctx context.Context,
	teamID types.ID,
) ([]*database.ProjectInfo, error) {
	cursor, err := c.collection(ColProjects).Find(ctx, bson.M{
		"team_id": teamID,
	})
	if err != nil {
		return nil, fmt.Errorf("list projects by team: %w", err)
	}

	var infos []*database.ProjectInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	return infos, nil
}

// AddCollaborator adds an explicit grant for the user on the project.
func (c *Client) AddCollaborator(
	ctx context.Context,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*database.ProjectInfo, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	now := gotime.Now()
	info := database.ProjectInfo{}
	err := c.collection(ColProjects).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":                   projectID,
			"collaborators.user_id": bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"collaborators": database.CollaboratorInfo{
				UserID:  userID,
				Role:    role,
				AddedAt: now,
			}},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("add collaborator: %w", err)
	}

	if _, err := c.FindProjectInfoByID(ctx, projectID); err != nil {
		return nil, err
	}
	return nil, database.ErrCollaboratorAlreadyExists
}

// UpdateCollaboratorRole changes the role of the given collaborator.
func (c *Client) UpdateCollaboratorRole(
	ctx context.Context,
	projectID, userID types.ID,
	role database.ProjectRole,
) (*database.ProjectInfo, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	info := database.ProjectInfo{}
	err := c.collection(ColProjects).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":                   projectID,
			"owner":                 bson.M{"$ne": userID},
			"collaborators.user_id": userID,
		},
		bson.M{"$set": bson.M{
			"collaborators.$.role": role,
			"updated_at":           gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("update collaborator role: %w", err)
	}

	return nil, c.classifyCollaboratorFailure(ctx, projectID, userID)
}

// RemoveCollaborator removes the explicit grant of the user.
func (c *Client) RemoveCollaborator(
	ctx context.Context,
	projectID, userID types.ID,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	err := c.collection(ColProjects).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":                   projectID,
			"owner":                 bson.M{"$ne": userID},
			"collaborators.user_id": userID,
		},
		bson.M{
			"$pull": bson.M{"collaborators": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": gotime.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("remove collaborator: %w", err)
	}

	return nil, c.classifyCollaboratorFailure(ctx, projectID, userID)
}

// classifyCollaboratorFailure reports why a guarded collaborator mutation
// matched no document.
func (c *Client) classifyCollaboratorFailure(
	ctx context.Context,
	projectID, userID types.ID,
) error {
	project, err := c.FindProjectInfoByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Owner == userID {
		return database.ErrOwnerImmutable
	}
	return database.ErrCollaboratorNotFound
}

// SetAllUsersAccess sets the blanket access grant of the project.
func (c *Client) SetAllUsersAccess(
	ctx context.Context,
	projectID types.ID,
	access database.AccessLevel,
) (*database.ProjectInfo, error) {
	if err := access.Validate(); err != nil {
		return nil, err
	}

	return c.updateProjectInfo(ctx, projectID, bson.M{"$set": bson.M{
		"all_users_access": access,
		"updated_at":       gotime.Now(),
	}})
}

// SetPinnedUpdate sets or clears the project's pinned update reference.
func (c *Client) SetPinnedUpdate(
	ctx context.Context,
	projectID, updateID types.ID,
) (*database.ProjectInfo, error) {
	return c.updateProjectInfo(ctx, projectID, bson.M{"$set": bson.M{
		"pinned_update_id": updateID,
		"updated_at":       gotime.Now(),
	}})
}

// EnableShare enables anonymous read access. An existing token is kept; the
// candidate token is used only on first enabling.
func (c *Client) EnableShare(
	ctx context.Context,
	projectID types.ID,
	token string,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	err := c.collection(ColProjects).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":         projectID,
			"share_token": bson.M{"$in": bson.A{nil, ""}},
		},
		bson.M{"$set": bson.M{
			"share_token":   token,
			"share_enabled": true,
			"updated_at":    gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("enable share: %w", err)
	}

	// The project already holds a token: only flip the flag.
	return c.updateProjectInfo(ctx, projectID, bson.M{"$set": bson.M{
		"share_enabled": true,
		"updated_at":    gotime.Now(),
	}})
}

// DisableShare clears the enabled flag but retains the token.
func (c *Client) DisableShare(
	ctx context.Context,
	projectID types.ID,
) (*database.ProjectInfo, error) {
	return c.updateProjectInfo(ctx, projectID, bson.M{"$set": bson.M{
		"share_enabled": false,
		"updated_at":    gotime.Now(),
	}})
}

// RegenerateShare replaces the token with the given one and re-enables
// sharing.
func (c *Client) RegenerateShare(
	ctx context.Context,
	projectID types.ID,
	token string,
) (*database.ProjectInfo, error) {
	return c.updateProjectInfo(ctx, projectID, bson.M{"$set": bson.M{
		"share_token":   token,
		"share_enabled": true,
		"updated_at":    gotime.Now(),
	}})
}

// FindProjectInfoByShareToken finds the project with the given token only if
// sharing is enabled. A disabled share behaves exactly like a missing one.
func (c *Client) FindProjectInfoByShareToken(
	ctx context.Context,
	token string,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	if err := c.collection(ColProjects).FindOne(ctx, bson.M{
		"share_token":   token,
		"share_enabled": true,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project by share token: %w", err)
	}

	return &info, nil
}

// IncrementUpdateCount adjusts the cached update counter of the project by
// delta. A positive delta also advances Stats.LastUpdateAt.
func (c *Client) IncrementUpdateCount(
	ctx context.Context,
	projectID types.ID,
	delta int64,
	lastUpdateAt gotime.Time,
) error {
	update := bson.M{
		"$inc": bson.M{"stats.total_updates": delta},
		"$set": bson.M{"updated_at": gotime.Now()},
	}
	if delta > 0 {
		update["$max"] = bson.M{"stats.last_update_at": lastUpdateAt}
	}

	if _, err := c.updateProjectInfo(ctx, projectID, update); err != nil {
		return err
	}

	return nil
}

// DeleteProjectInfo removes the project record.
func (c *Client) DeleteProjectInfo(ctx context.Context, projectID types.ID) error {
	result, err := c.collection(ColProjects).DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", projectID, database.ErrProjectNotFound)
	}

	return nil
}

// updateProjectInfo applies update to the project and returns the new state.
func (c *Client) updateProjectInfo(
	ctx context.Context,
	projectID types.ID,
	update bson.M,
) (*database.ProjectInfo, error) {
	info := database.ProjectInfo{}
	if err := c.collection(ColProjects).FindOneAndUpdate(
		ctx,
		bson.M{"_id": projectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", projectID, database.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	return &info, nil
}

// CreateInviteInfo creates a new invite with the given unique token.
func (c *Client) CreateInviteInfo(
	ctx context.Context,
	scope database.InviteScope,
	email string,
	role string,
	token string,
	inviter types.ID,
	expiresAt gotime.Time,
) (*database.InviteInfo, error) {
	info, err := database.NewInviteInfo(scope, email, role, token, inviter, expiresAt)
	if err != nil {
		return nil, err
	}
	info.ID = types.NewID()

	if _, err := c.collection(ColInvites).InsertOne(ctx, info); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, database.ErrInviteAlreadyExists
		}
		return nil, fmt.Errorf("create invite: %w", err)
	}

	return info, nil
}

// FindInviteInfoByID finds an invite by the given ID.
func (c *Client) FindInviteInfoByID(
	ctx context.Context,
	id types.ID,
) (*database.InviteInfo, error) {
	info := database.InviteInfo{}
	if err := c.collection(ColInvites).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrInviteNotFound)
		}
		return nil, fmt.Errorf("find invite by id: %w", err)
	}

	return &info, nil
}

// FindInviteInfoByToken finds an invite by the given token.
func (c *Client) FindInviteInfoByToken(
	ctx context.Context,
	token string,
) (*database.InviteInfo, error) {
	info := database.InviteInfo{}
	if err := c.collection(ColInvites).FindOne(ctx, bson.M{
		"token": token,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrInviteNotFound
		}
		return nil, fmt.Errorf("find invite by token: %w", err)
	}

	return &info, nil
}

// ListInviteInfosByScope returns all invites targeting the given scope.
func (c *Client) ListInviteInfosByScope(
	ctx context.Context,
	scope database.InviteScope,
) ([]*database.InviteInfo, error) {
	cursor, err := c.collection(ColInvites).Find(ctx, bson.M{
		"scope.kind": scope.Kind,
		"scope.id":   scope.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("list invites by scope: %w", err)
	}

	var infos []*database.InviteInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode invites: %w", err)
	}

	return infos, nil
}

// AcceptInviteInfo transitions the invite with the given token to accepted.
// The filter carries the pending status and the unexpired expiry, so of two
// concurrent calls exactly one matches.
func (c *Client) AcceptInviteInfo(
	ctx context.Context,
	token string,
	userID types.ID,
	now gotime.Time,
) (*database.InviteInfo, error) {
	info := database.InviteInfo{}
	err := c.collection(ColInvites).FindOneAndUpdate(
		ctx,
		bson.M{
			"token":      token,
			"status":     database.InvitePending,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{
			"status":      database.InviteAccepted,
			"accepted_at": now,
			"accepted_by": userID,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("accept invite: %w", err)
	}

	// The invite exists but lost the race, was closed, or has expired.
	if _, err := c.FindInviteInfoByToken(ctx, token); err != nil {
		return nil, err
	}
	return nil, database.ErrInviteNotPending
}

// RevokeInviteInfo transitions the invite to revoked, only from pending.
func (c *Client) RevokeInviteInfo(
	ctx context.Context,
	id types.ID,
) (*database.InviteInfo, error) {
	return c.updatePendingInvite(ctx, id, bson.M{"$set": bson.M{
		"status": database.InviteRevoked,
	}})
}

// RotateInviteToken replaces the token and expiry of a pending invite.
func (c *Client) RotateInviteToken(
	ctx context.Context,
	id types.ID,
	token string,
	expiresAt gotime.Time,
) (*database.InviteInfo, error) {
	return c.updatePendingInvite(ctx, id, bson.M{"$set": bson.M{
		"token":      token,
		"expires_at": expiresAt,
	}})
}

// updatePendingInvite applies update to the invite only while it is pending.
func (c *Client) updatePendingInvite(
	ctx context.Context,
	id types.ID,
	update bson.M,
) (*database.InviteInfo, error) {
	info := database.InviteInfo{}
	err := c.collection(ColInvites).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":    id,
			"status": database.InvitePending,
		},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info)
	if err == nil {
		return &info, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("update invite: %w", err)
	}

	if _, err := c.FindInviteInfoByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, database.ErrInviteNotPending
}

// ExpireInviteInfos sweeps all pending invites whose expiry lies before the
// given time to expired.
func (c *Client) ExpireInviteInfos(ctx context.Context, before gotime.Time) (int, error) {
	result, err := c.collection(ColInvites).UpdateMany(
		ctx,
		bson.M{
			"status":     database.InvitePending,
			"expires_at": bson.M{"$lt": before},
		},
		bson.M{"$set": bson.M{"status": database.InviteExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}

	return int(result.ModifiedCount), nil
}

// CreateUpdateInfo stores the given update.
func (c *Client) CreateUpdateInfo(
	ctx context.Context,
	info *database.UpdateInfo,
) (*database.UpdateInfo, error) {
	copied := info.DeepCopy()
	if copied.ID == "" {
		copied.ID = types.NewID()
	}

	if _, err := c.collection(ColUpdates).InsertOne(ctx, copied); err != nil {
		return nil, fmt.Errorf("create update: %w", err)
	}

	return copied, nil
}

// FindUpdateInfoByID finds an update by the given ID.
func (c *Client) FindUpdateInfoByID(
	ctx context.Context,
	id types.ID,
) (*database.UpdateInfo, error) {
	info := database.UpdateInfo{}
	if err := c.collection(ColUpdates).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
		}
		return nil, fmt.Errorf("find update by id: %w", err)
	}

	return &info, nil
}

// UpdateUpdateInfoContent applies a content change to the update.
func (c *Client) UpdateUpdateInfoContent(
	ctx context.Context,
	id types.ID,
	change *database.ContentChange,
) (*database.UpdateInfo, error) {
	updates := bson.M{
		"content":      change.Content,
		"content_html": change.ContentHTML,
		"mentions":     change.Mentions,
		"is_edited":    true,
		"edited_at":    change.EditedAt,
		"updated_at":   change.EditedAt,
	}
	if change.Category != nil {
		updates["category"] = *change.Category
	}
	if change.Mood != nil {
		updates["mood"] = *change.Mood
	}

	return c.updateUpdateInfo(ctx, id, bson.M{"$set": updates})
}

// AddReaction adds a reaction, first removing any existing entry of the same
// (user, emoji) pair so at most one persists.
func (c *Client) AddReaction(
	ctx context.Context,
	updateID, userID types.ID,
	emoji string,
) (*database.UpdateInfo, error) {
	// $pull and $push cannot address the same array in one operator set,
	// so the removal runs as a separate first step on the same document.
	if _, err := c.collection(ColUpdates).UpdateOne(
		ctx,
		bson.M{"_id": updateID},
		bson.M{"$pull": bson.M{"reactions": bson.M{
			"user_id": userID,
			"emoji":   emoji,
		}}},
	); err != nil {
		return nil, fmt.Errorf("remove stale reaction: %w", err)
	}

	now := gotime.Now()
	return c.updateUpdateInfo(ctx, updateID, bson.M{
		"$push": bson.M{"reactions": database.ReactionInfo{
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: now,
		}},
		"$set": bson.M{"updated_at": now},
	})
}

// RemoveReaction removes the matching (user, emoji) entry only.
func (c *Client) RemoveReaction(
	ctx context.Context,
	updateID, userID types.ID,
	emoji string,
) (*database.UpdateInfo, error) {
	return c.updateUpdateInfo(ctx, updateID, bson.M{
		"$pull": bson.M{"reactions": bson.M{
			"user_id": userID,
			"emoji":   emoji,
		}},
		"$set": bson.M{"updated_at": gotime.Now()},
	})
}

// SetUpdatePinned toggles the pinned flag of the update.
func (c *Client) SetUpdatePinned(
	ctx context.Context,
	updateID types.ID,
	pinned bool,
) (*database.UpdateInfo, error) {
	return c.updateUpdateInfo(ctx, updateID, bson.M{"$set": bson.M{
		"is_pinned":  pinned,
		"updated_at": gotime.Now(),
	}})
}

// DeleteUpdateInfo removes the update record.
func (c *Client) DeleteUpdateInfo(ctx context.Context, id types.ID) error {
	result, err := c.collection(ColUpdates).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete update: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
	}

	return nil
}

// DeleteUpdateInfosByTeam removes all updates scoped to the team.
func (c *Client) DeleteUpdateInfosByTeam(
	ctx context.Context,
	teamID types.ID,
) (int64, error) {
	result, err := c.collection(ColUpdates).DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, fmt.Errorf("delete updates by team: %w", err)
	}

	return result.DeletedCount, nil
}

// DeleteUpdateInfosByProject removes all updates scoped to the project.
func (c *Client) DeleteUpdateInfosByProject(
	ctx context.Context,
	projectID types.ID,
) (int64, error) {
	result, err := c.collection(ColUpdates).DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete updates by project: %w", err)
	}

	return result.DeletedCount, nil
}

// updateUpdateInfo applies update to the status update and returns the new
// state.
func (c *Client) updateUpdateInfo(
	ctx context.Context,
	id types.ID,
	update bson.M,
) (*database.UpdateInfo, error) {
	info := database.UpdateInfo{}
	if err := c.collection(ColUpdates).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", id, database.ErrUpdateNotFound)
		}
		return nil, fmt.Errorf("update update: %w", err)
	}

	return &info, nil
}

// FindUpdateInfosByFeed returns up to paging.PageSize updates matching the
// selector, ordered by ID descending, strictly below paging.Offset when an
// offset is given.
func (c *Client) FindUpdateInfosByFeed(
	ctx context.Context,
	selector database.FeedSelector,
	paging types.Paging[types.ID],
) ([]*database.UpdateInfo, error) {
	filter := bson.M{}
	switch {
	case selector.ProjectID != "":
		filter["project_id"] = selector.ProjectID
	case selector.TeamID != "":
		filter["team_id"] = selector.TeamID
	default:
		filter["team_id"] = bson.M{"$in": selector.TeamIDs}
	}
	if selector.Category != "" {
		filter["category"] = selector.Category
	}
	if paging.Offset != "" {
		filter["_id"] = bson.M{"$lt": paging.Offset}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if paging.PageSize > 0 {
		opts.SetLimit(int64(paging.PageSize))
	}

	cursor, err := c.collection(ColUpdates).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find updates by feed: %w", err)
	}

	var infos []*database.UpdateInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	return infos, nil
}

func (c *Client) collection(
	name string,
	opts ...options.Lister[options.CollectionOptions],
) *mongo.Collection {
	return c.client.
		Database(c.config.TeamPulseDatabase).
		Collection(name, opts...)
}
