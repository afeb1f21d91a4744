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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColUsers represents the users collection in the database.
	ColUsers = "users"
	// ColTeams represents the teams collection in the database.
	ColTeams = "teams"
	// ColProjects represents the projects collection in the database.
	ColProjects = "projects"
	// ColUpdates represents the updates collection in the database.
	ColUpdates = "updates"
	// ColInvites represents the invites collection in the database.
	ColInvites = "invites"
)

// Collections represents the list of all collections in the database.
var Collections = []string{
	ColUsers,
	ColTeams,
	ColProjects,
	ColUpdates,
	ColInvites,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of Collections that stores TeamPulse data.
var collectionInfos = []collectionInfo{
	{
		name: ColUsers,
		indexes: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "username", Value: int32(1)}},
			Options: options.Index().SetUnique(true),
		}, {
			Keys:    bson.D{{Key: "email", Value: int32(1)}},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: ColTeams,
		indexes: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "slug", Value: int32(1)}},
			Options: options.Index().SetUnique(true),
		}, {
			Keys: bson.D{{Key: "members.user_id", Value: int32(1)}},
		}},
	},
	{
		name: ColProjects,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "team_id", Value: int32(1)},
				{Key: "slug", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}, {
			Keys:    bson.D{{Key: "share_token", Value: int32(1)}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		}},
	},
	{
		name: ColUpdates,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "project_id", Value: int32(1)},
				{Key: "_id", Value: int32(-1)},
			},
		}, {
			Keys: bson.D{
				{Key: "team_id", Value: int32(1)},
				{Key: "_id", Value: int32(-1)},
			},
		}},
	},
	{
		name: ColInvites,
		indexes: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "token", Value: int32(1)}},
			Options: options.Index().SetUnique(true),
		}, {
			Keys: bson.D{
				{Key: "status", Value: int32(1)},
				{Key: "expires_at", Value: int32(1)},
			},
		}, {
			Keys: bson.D{
				{Key: "scope.kind", Value: int32(1)},
				{Key: "scope.id", Value: int32(1)},
			},
		}},
	},
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		_, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes)
		if err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}
	return nil
}
