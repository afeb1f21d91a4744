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

package types

import "time"

const (
	// AttachmentTypeImage is an image attachment.
	AttachmentTypeImage = "image"
	// AttachmentTypeFile is a generic file attachment.
	AttachmentTypeFile = "file"
	// AttachmentTypeLink is a link attachment.
	AttachmentTypeLink = "link"

	// MaxAttachmentsPerUpdate is the maximum number of attachments an update
	// can carry.
	MaxAttachmentsPerUpdate = 10
)

// Update is a status update posted to a project.
type Update struct {
	// ID is the unique ID of the update.
	ID ID `json:"id"`

	// ProjectID is the ID of the project the update belongs to.
	ProjectID ID `json:"project_id"`

	// TeamID is the ID of the team that owns the project. It is denormalized
	// onto the update so team-wide feeds can filter on it directly.
	TeamID ID `json:"team_id"`

	// Author is the public profile of the update's author, filled on
	// enrichment.
	Author *User `json:"author,omitempty"`

	// AuthorID is the ID of the update's author.
	AuthorID ID `json:"author_id"`

	// Content is the raw content of the update.
	Content string `json:"content"`

	// ContentHTML is the safe HTML rendering derived from Content.
	ContentHTML string `json:"content_html"`

	// Category is the category of the update.
	Category string `json:"category"`

	// Mood is the mood of the update.
	Mood string `json:"mood"`

	// Mentions are the resolved user IDs mentioned in the content.
	Mentions []ID `json:"mentions"`

	// Attachments are the attachments of the update.
	Attachments []Attachment `json:"attachments"`

	// Reactions are the emoji reactions on the update.
	Reactions []Reaction `json:"reactions"`

	// IsPinned is whether the update is pinned in its project.
	IsPinned bool `json:"is_pinned"`

	// IsEdited is whether the content has been edited after creation.
	IsEdited bool `json:"is_edited"`

	// EditedAt is the time of the last content edit.
	EditedAt time.Time `json:"edited_at,omitempty"`

	// CreatedAt is the time when the update was created. It never changes.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time of the last mutation of any kind.
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is a typed attachment of an update.
type Attachment struct {
	// Type is one of image, file, or link.
	Type string `json:"type"`

	// URL is the location of the attachment.
	URL string `json:"url"`

	// Name is the display name of the attachment.
	Name string `json:"name,omitempty"`
}

// Reaction is a single emoji reaction of a user on an update. At most one
// entry exists per (user, emoji) pair.
type Reaction struct {
	// UserID is the ID of the reacting user.
	UserID ID `json:"user_id"`

	// Emoji is the emoji of the reaction.
	Emoji string `json:"emoji"`

	// CreatedAt is the time when the reaction was added.
	CreatedAt time.Time `json:"created_at"`
}

// CreateUpdateFields is a set of fields used to create an update.
type CreateUpdateFields struct {
	Content     string       `validate:"required,max=10000"`
	Category    string       `validate:"omitempty,max=50"`
	Mood        string       `validate:"omitempty,max=30"`
	Attachments []Attachment `validate:"max=10,dive"`
}

// Validate validates the CreateUpdateFields.
func (f *CreateUpdateFields) Validate() error {
	return validateStruct(f)
}

// UpdatableUpdateFields is a set of fields used to edit an update. Fields
// left nil are not touched.
type UpdatableUpdateFields struct {
	Content  *string `validate:"omitempty,max=10000"`
	Category *string `validate:"omitempty,max=50"`
	Mood     *string `validate:"omitempty,max=30"`
}

// Validate validates the UpdatableUpdateFields.
func (f *UpdatableUpdateFields) Validate() error {
	return validateStruct(f)
}
