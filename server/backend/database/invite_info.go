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
	"fmt"
	"strings"
	"time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/pkg/errors"
)

const (
	// InvitePending is the initial state of an invite. All transitions
	// originate from it.
	InvitePending InviteStatus = "pending"
	// InviteAccepted is the state after a successful acceptance.
	InviteAccepted InviteStatus = "accepted"
	// InviteRevoked is the state after an explicit revocation.
	InviteRevoked InviteStatus = "revoked"
	// InviteExpired is the state after the expiry sweep.
	InviteExpired InviteStatus = "expired"
)

const (
	// ScopeTeam marks an invite targeting a team.
	ScopeTeam ScopeKind = "team"
	// ScopeProject marks an invite targeting a project.
	ScopeProject ScopeKind = "project"
)

// InviteTTL is the lifetime of an invite token.
const InviteTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidInviteToken is returned when the provided token is empty.
	ErrInvalidInviteToken = errors.InvalidArgument("invalid invite token").WithCode("ErrInvalidInviteToken")

	// ErrInvalidInviteStatus is returned when the given status is not valid.
	ErrInvalidInviteStatus = errors.InvalidArgument("invalid invite status").WithCode("ErrInvalidInviteStatus")

	// ErrInvalidScopeKind is returned when the given scope kind is not valid.
	ErrInvalidScopeKind = errors.InvalidArgument("invalid scope kind").WithCode("ErrInvalidScopeKind")
)

// InviteStatus represents the lifecycle state of an invite.
type InviteStatus string

// String returns the string representation of the status.
func (s InviteStatus) String() string {
	return string(s)
}

// Validate validates the given invite status.
func (s InviteStatus) Validate() error {
	switch s {
	case InvitePending, InviteAccepted, InviteRevoked, InviteExpired:
		return nil
	default:
		return fmt.Errorf("%s: %w", s, ErrInvalidInviteStatus)
	}
}

// CanTransition returns true if the transition from this status to the given
// one is allowed. Every transition originates from pending; resend keeps the
// status at pending while rotating the token.
func (s InviteStatus) CanTransition(to InviteStatus) bool {
	if s != InvitePending {
		return false
	}
	switch to {
	case InviteAccepted, InviteRevoked, InviteExpired, InvitePending:
		return true
	default:
		return false
	}
}

// ScopeKind discriminates the target scope of an invite.
type ScopeKind string

// Validate validates the given scope kind.
func (k ScopeKind) Validate() error {
	switch k {
	case ScopeTeam, ScopeProject:
		return nil
	default:
		return fmt.Errorf("%s: %w", k, ErrInvalidScopeKind)
	}
}

// InviteScope is the target scope of an invite.
type InviteScope struct {
	// Kind is the kind of the scope.
	Kind ScopeKind `bson:"kind"`

	// ID is the ID of the target team or project.
	ID types.ID `bson:"id"`
}

// InviteInfo is a struct for invitation information. Possession of a valid,
// unexpired, pending token is equivalent to authorization to join the scope.
type InviteInfo struct {
	// ID is the unique ID of the invite.
	ID types.ID `bson:"_id"`

	// Scope is the target scope of the invite.
	Scope InviteScope `bson:"scope"`

	// Email is the case-folded email the invite was sent to.
	Email string `bson:"email"`

	// Role is the role granted on acceptance. It is validated against the
	// scope kind by the caller.
	Role string `bson:"role"`

	// Token is the opaque, random invite token, unique across the system.
	Token string `bson:"token"`

	// Status is the lifecycle state of the invite.
	Status InviteStatus `bson:"status"`

	// Inviter is the ID of the user who created the invite.
	Inviter types.ID `bson:"inviter"`

	// CreatedAt is the time when the invite was created.
	CreatedAt time.Time `bson:"created_at"`

	// ExpiresAt is the time when the invite expires.
	ExpiresAt time.Time `bson:"expires_at"`

	// AcceptedAt is the time when the invite was accepted, if it was.
	AcceptedAt time.Time `bson:"accepted_at,omitempty"`

	// AcceptedBy is the ID of the user who accepted the invite, if any.
	AcceptedBy types.ID `bson:"accepted_by,omitempty"`
}

// NewInviteInfo creates a new pending InviteInfo. The email is case-folded
// before storage.
func NewInviteInfo(
	scope InviteScope,
	email, role, token string,
	inviter types.ID,
	expiresAt time.Time,
) (*InviteInfo, error) {
	if token == "" {
		return nil, ErrInvalidInviteToken
	}
	if err := scope.Kind.Validate(); err != nil {
		return nil, err
	}

	return &InviteInfo{
		Scope:     scope,
		Email:     strings.ToLower(email),
		Role:      role,
		Token:     token,
		Status:    InvitePending,
		Inviter:   inviter,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

// DeepCopy returns a deep copy of the InviteInfo.
func (i *InviteInfo) DeepCopy() *InviteInfo {
	if i == nil {
		return nil
	}

	copied := *i
	return &copied
}

// IsExpired returns true if the invite's expiry lies at or before the given
// time.
func (i *InviteInfo) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// IsAcceptable returns true if the invite can be accepted at the given time.
func (i *InviteInfo) IsAcceptable(now time.Time) bool {
	return i.Status == InvitePending && !i.IsExpired(now)
}

// ToInvite converts the InviteInfo to an Invite. The token is not part of
// the projection; it travels only through the invitation email.
func (i *InviteInfo) ToInvite() *types.Invite {
	return &types.Invite{
		ID:         i.ID,
		ScopeKind:  string(i.Scope.Kind),
		ScopeID:    i.Scope.ID,
		Email:      i.Email,
		Role:       i.Role,
		Status:     i.Status.String(),
		InviterID:  i.Inviter,
		CreatedAt:  i.CreatedAt,
		ExpiresAt:  i.ExpiresAt,
		AcceptedAt: i.AcceptedAt,
		AcceptedBy: i.AcceptedBy,
	}
}
