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

// Invite is the external projection of an invitation. The token is the sole
// handle for acceptance and is only disclosed to its recipient.
type Invite struct {
	// ID is the unique ID of the invite.
	ID ID `json:"id"`

	// ScopeKind is the kind of scope the invite targets: "team" or "project".
	ScopeKind string `json:"scope_kind"`

	// ScopeID is the ID of the target team or project.
	ScopeID ID `json:"scope_id"`

	// Email is the case-folded email the invite was sent to.
	Email string `json:"email"`

	// Role is the role granted on acceptance.
	Role string `json:"role"`

	// Status is one of pending, accepted, revoked, expired.
	Status string `json:"status"`

	// InviterID is the ID of the user who created the invite.
	InviterID ID `json:"inviter_id"`

	// CreatedAt is the time when the invite was created.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the time when the invite expires.
	ExpiresAt time.Time `json:"expires_at"`

	// AcceptedAt is the time when the invite was accepted, if it was.
	AcceptedAt time.Time `json:"accepted_at,omitempty"`

	// AcceptedBy is the ID of the user who accepted the invite, if any.
	AcceptedBy ID `json:"accepted_by,omitempty"`
}

// CreateInviteFields is a set of fields used to create an invite.
type CreateInviteFields struct {
	Email string `validate:"required,email"`
	Role  string `validate:"required"`
}

// Validate validates the CreateInviteFields.
func (f *CreateInviteFields) Validate() error {
	return validateStruct(f)
}
