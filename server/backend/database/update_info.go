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
	"time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/pkg/errors"
)

// ErrTooManyAttachments is returned when the attachment limit is exceeded.
var ErrTooManyAttachments = errors.InvalidArgument("attachment limit exceeded").WithCode("ErrTooManyAttachments")

// ReactionInfo is a single emoji reaction embedded in an update. The update
// exclusively owns its reaction list; at most one entry exists per
// (user, emoji) pair.
type ReactionInfo struct {
	// UserID is the ID of the reacting user.
	UserID types.ID `bson:"user_id"`

	// Emoji is the emoji of the reaction.
	Emoji string `bson:"emoji"`

	// CreatedAt is the time when the reaction was added.
	CreatedAt time.Time `bson:"created_at"`
}

// AttachmentInfo is a typed attachment embedded in an update.
type AttachmentInfo struct {
	// Type is one of image, file, or link.
	Type string `bson:"type"`

	// URL is the location of the attachment.
	URL string `bson:"url"`

	// Name is the display name of the attachment.
	Name string `bson:"name,omitempty"`
}

// ContentChange carries the recomputed content fields of an edit. Content,
// ContentHTML and Mentions are always replaced together; Category and Mood
// are applied only when non-nil.
type ContentChange struct {
	Content     string
	ContentHTML string
	Mentions    []types.ID
	Category    *string
	Mood        *string
	EditedAt    time.Time
}

// UpdateInfo is a struct for status update information. TeamID is
// denormalized from the owning project so team-wide feeds can filter on it
// without joining upward.
type UpdateInfo struct {
	// ID is the unique ID of the update. IDs are time-ordered, so the ID
	// order is the feed's `(createdAt desc, id desc)` total order.
	ID types.ID `bson:"_id"`

	// ProjectID is the ID of the project the update belongs to.
	ProjectID types.ID `bson:"project_id"`

	// TeamID is the ID of the team that owns the project.
	TeamID types.ID `bson:"team_id"`

	// Author is the ID of the update's author.
	Author types.ID `bson:"author"`

	// Content is the raw content of the update.
	Content string `bson:"content"`

	// ContentHTML is the safe HTML rendering derived from Content.
	ContentHTML string `bson:"content_html"`

	// Category is the category of the update.
	Category string `bson:"category"`

	// Mood is the mood of the update.
	Mood string `bson:"mood"`

	// Mentions are the resolved user IDs mentioned in the content.
	Mentions []types.ID `bson:"mentions"`

	// Attachments are the attachments of the update.
	Attachments []AttachmentInfo `bson:"attachments"`

	// Reactions are the emoji reactions on the update.
	Reactions []ReactionInfo `bson:"reactions"`

	// IsPinned is whether the update is pinned in its project.
	IsPinned bool `bson:"is_pinned"`

	// IsEdited is whether the content has been edited after creation.
	IsEdited bool `bson:"is_edited"`

	// EditedAt is the time of the last content edit.
	EditedAt time.Time `bson:"edited_at,omitempty"`

	// CreatedAt is the time when the update was created. It never changes.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time of the last mutation of any kind.
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewUpdateInfo creates a new UpdateInfo.
func NewUpdateInfo(
	projectID, teamID, author types.ID,
	content, contentHTML, category, mood string,
	mentions []types.ID,
	attachments []AttachmentInfo,
) (*UpdateInfo, error) {
	if len(attachments) > types.MaxAttachmentsPerUpdate {
		return nil, ErrTooManyAttachments
	}

	now := time.Now()
	return &UpdateInfo{
		ProjectID:   projectID,
		TeamID:      teamID,
		Author:      author,
		Content:     content,
		ContentHTML: contentHTML,
		Category:    category,
		Mood:        mood,
		Mentions:    mentions,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DeepCopy returns a deep copy of the UpdateInfo.
func (i *UpdateInfo) DeepCopy() *UpdateInfo {
	if i == nil {
		return nil
	}

	copied := *i
	copied.Mentions = make([]types.ID, len(i.Mentions))
	copy(copied.Mentions, i.Mentions)
	copied.Attachments = make([]AttachmentInfo, len(i.Attachments))
	copy(copied.Attachments, i.Attachments)
	copied.Reactions = make([]ReactionInfo, len(i.Reactions))
	copy(copied.Reactions, i.Reactions)
	return &copied
}

// ApplyContentChange applies the given content change, marking the update
// edited. CreatedAt is never touched.
func (i *UpdateInfo) ApplyContentChange(change *ContentChange) {
	i.Content = change.Content
	i.ContentHTML = change.ContentHTML
	i.Mentions = change.Mentions
	if change.Category != nil {
		i.Category = *change.Category
	}
	if change.Mood != nil {
		i.Mood = *change.Mood
	}
	i.IsEdited = true
	i.EditedAt = change.EditedAt
	i.UpdatedAt = change.EditedAt
}

// ToUpdate converts the UpdateInfo to an Update.
func (i *UpdateInfo) ToUpdate() *types.Update {
	attachments := make([]types.Attachment, len(i.Attachments))
	for idx, a := range i.Attachments {
		attachments[idx] = types.Attachment{
			Type: a.Type,
			URL:  a.URL,
			Name: a.Name,
		}
	}

	reactions := make([]types.Reaction, len(i.Reactions))
	for idx, r := range i.Reactions {
		reactions[idx] = types.Reaction{
			UserID:    r.UserID,
			Emoji:     r.Emoji,
			CreatedAt: r.CreatedAt,
		}
	}

	mentions := make([]types.ID, len(i.Mentions))
	copy(mentions, i.Mentions)

	return &types.Update{
		ID:          i.ID,
		ProjectID:   i.ProjectID,
		TeamID:      i.TeamID,
		AuthorID:    i.Author,
		Content:     i.Content,
		ContentHTML: i.ContentHTML,
		Category:    i.Category,
		Mood:        i.Mood,
		Mentions:    mentions,
		Attachments: attachments,
		Reactions:   reactions,
		IsPinned:    i.IsPinned,
		IsEdited:    i.IsEdited,
		EditedAt:    i.EditedAt,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
