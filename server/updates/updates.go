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

// Package updates provides the status update related business logic.
package updates

import (
	"context"
	"time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
)

// Create creates a status update in the project and bumps the project's
// cached counter.
func Create(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
	fields *types.CreateUpdateFields,
	author types.ID,
) (*types.Update, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	project, err := be.DB.FindProjectInfoByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rendered, err := renderContent(ctx, be, fields.Content)
	if err != nil {
		return nil, err
	}

	attachments := make([]database.AttachmentInfo, 0, len(fields.Attachments))
	for _, a := range fields.Attachments {
		attachments = append(attachments, database.AttachmentInfo{
			Type: a.Type,
			URL:  a.URL,
			Name: a.Name,
		})
	}

	info, err := database.NewUpdateInfo(
		projectID, project.TeamID, author,
		fields.Content, rendered.HTML,
		fields.Category, fields.Mood,
		rendered.Mentions, attachments,
	)
	if err != nil {
		return nil, err
	}

	created, err := be.DB.CreateUpdateInfo(ctx, info)
	if err != nil {
		return nil, err
	}

	if err := be.DB.IncrementUpdateCount(ctx, projectID, 1, created.CreatedAt); err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddUpdatesCreated(created.Category)
	}

	return created.ToUpdate(), nil
}

// Get returns an update by the given ID.
func Get(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Update, error) {
	info, err := be.DB.FindUpdateInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return info.ToUpdate(), nil
}

// Edit applies the given fields to the update, re-rendering the content when
// it changes. The update keeps its feed position: CreatedAt never moves.
func Edit(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	fields *types.UpdatableUpdateFields,
) (*types.Update, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	change := &database.ContentChange{
		Category: fields.Category,
		Mood:     fields.Mood,
		EditedAt: time.Now(),
	}

	if fields.Content != nil {
		rendered, err := renderContent(ctx, be, *fields.Content)
		if err != nil {
			return nil, err
		}
		change.Content = *fields.Content
		change.ContentHTML = rendered.HTML
		change.Mentions = rendered.Mentions
	} else {
		// Only the metadata changes; carry the stored content through.
		info, err := be.DB.FindUpdateInfoByID(ctx, id)
		if err != nil {
			return nil, err
		}
		change.Content = info.Content
		change.ContentHTML = info.ContentHTML
		change.Mentions = info.Mentions
	}

	info, err := be.DB.UpdateUpdateInfoContent(ctx, id, change)
	if err != nil {
		return nil, err
	}

	return info.ToUpdate(), nil
}

// Delete removes the update, decrements the project's cached counter, and
// clears the project's pin when the pinned update is deleted.
func Delete(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) error {
	info, err := be.DB.FindUpdateInfoByID(ctx, id)
	if err != nil {
		return err
	}

	project, err := be.DB.FindProjectInfoByID(ctx, info.ProjectID)
	if err != nil {
		return err
	}

	if err := be.DB.DeleteUpdateInfo(ctx, id); err != nil {
		return err
	}

	if err := be.DB.IncrementUpdateCount(ctx, info.ProjectID, -1, time.Time{}); err != nil {
		return err
	}

	if project.PinnedUpdateID == id {
		if _, err := be.DB.SetPinnedUpdate(ctx, info.ProjectID, ""); err != nil {
			return err
		}
	}

	if be.Metrics != nil {
		be.Metrics.AddUpdatesDeleted("single", 1)
	}
	logging.From(ctx).Infof("update %s deleted from project %s", id, info.ProjectID)

	return nil
}

// AddReaction adds an emoji reaction of the user. At most one reaction per
// (user, emoji) pair persists, however often it is re-added.
func AddReaction(
	ctx context.Context,
	be *backend.Backend,
	updateID, userID types.ID,
	emoji string,
) (*types.Update, error) {
	info, err := be.DB.AddReaction(ctx, updateID, userID, emoji)
	if err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddReaction()
	}

	return info.ToUpdate(), nil
}

// RemoveReaction removes the user's reaction of the given emoji.
func RemoveReaction(
	ctx context.Context,
	be *backend.Backend,
	updateID, userID types.ID,
	emoji string,
) (*types.Update, error) {
	info, err := be.DB.RemoveReaction(ctx, updateID, userID, emoji)
	if err != nil {
		return nil, err
	}

	return info.ToUpdate(), nil
}

// Pin pins the update in its project. A project holds at most one pin, so
// the previously pinned update is unpinned first.
func Pin(
	ctx context.Context,
	be *backend.Backend,
	updateID types.ID,
) (*types.Update, error) {
	info, err := be.DB.FindUpdateInfoByID(ctx, updateID)
	if err != nil {
		return nil, err
	}

	project, err := be.DB.FindProjectInfoByID(ctx, info.ProjectID)
	if err != nil {
		return nil, err
	}

	if project.PinnedUpdateID != "" && project.PinnedUpdateID != updateID {
		if _, err := be.DB.SetUpdatePinned(ctx, project.PinnedUpdateID, false); err != nil {
			return nil, err
		}
	}

	pinned, err := be.DB.SetUpdatePinned(ctx, updateID, true)
	if err != nil {
		return nil, err
	}

	if _, err := be.DB.SetPinnedUpdate(ctx, info.ProjectID, updateID); err != nil {
		return nil, err
	}

	return pinned.ToUpdate(), nil
}

// Unpin removes the pin from the update and clears the project's reference.
func Unpin(
	ctx context.Context,
	be *backend.Backend,
	updateID types.ID,
) (*types.Update, error) {
	info, err := be.DB.FindUpdateInfoByID(ctx, updateID)
	if err != nil {
		return nil, err
	}

	unpinned, err := be.DB.SetUpdatePinned(ctx, updateID, false)
	if err != nil {
		return nil, err
	}

	project, err := be.DB.FindProjectInfoByID(ctx, info.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.PinnedUpdateID == updateID {
		if _, err := be.DB.SetPinnedUpdate(ctx, info.ProjectID, ""); err != nil {
			return nil, err
		}
	}

	return unpinned.ToUpdate(), nil
}
