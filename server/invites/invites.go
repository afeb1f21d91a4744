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

// Package invites provides the invitation related business logic.
package invites

import (
	"context"
	"errors"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
)

// createRetries is the number of token collision retries on create.
const createRetries = 3

// newToken mints a random invite token.
func newToken() string {
	return shortuuid.New() + shortuuid.New()
}

// validateRole checks the granted role against the scope kind.
func validateRole(kind database.ScopeKind, role string) error {
	switch kind {
	case database.ScopeTeam:
		_, err := database.NewTeamRole(role)
		return err
	case database.ScopeProject:
		role, err := database.NewProjectRole(role)
		if err != nil {
			return err
		}
		// Ownership is never granted by invitation.
		if role == database.ProjectOwner {
			return database.ErrInvalidProjectRole
		}
		return nil
	default:
		return kind.Validate()
	}
}

// Invitation is the result of creating or resending an invite. The token is
// returned to the caller solely for delivery to the invitee; it is not part
// of the Invite projection.
type Invitation struct {
	Invite *types.Invite
	Token  string
}

// Create creates a pending invite for the given scope. The token is random
// and unique; on the unlikely collision the mint is retried.
func Create(
	ctx context.Context,
	be *backend.Backend,
	scope database.InviteScope,
	fields *types.CreateInviteFields,
	inviter types.ID,
) (*Invitation, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := validateRole(scope.Kind, fields.Role); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(database.InviteTTL)

	var info *database.InviteInfo
	var err error
	for i := 0; i < createRetries; i++ {
		token := newToken()
		info, err = be.DB.CreateInviteInfo(
			ctx, scope, fields.Email, fields.Role, token, inviter, expiresAt,
		)
		if err == nil {
			break
		}
		if !errors.Is(err, database.ErrInviteAlreadyExists) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddInviteCreated(string(scope.Kind))
	}

	return &Invitation{
		Invite: info.ToInvite(),
		Token:  info.Token,
	}, nil
}

// Get returns an invite by the given ID.
func Get(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Invite, error) {
	info, err := be.DB.FindInviteInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return info.ToInvite(), nil
}

// List returns all invites targeting the given scope.
func List(
	ctx context.Context,
	be *backend.Backend,
	scope database.InviteScope,
) ([]*types.Invite, error) {
	infos, err := be.DB.ListInviteInfosByScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	invites := make([]*types.Invite, 0, len(infos))
	for _, info := range infos {
		invites = append(invites, info.ToInvite())
	}

	return invites, nil
}

// IsValid reports whether the token belongs to an acceptable invite without
// consuming it.
func IsValid(
	ctx context.Context,
	be *backend.Backend,
	token string,
) (*types.Invite, error) {
	info, err := be.DB.FindInviteInfoByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !info.IsAcceptable(time.Now()) {
		return nil, database.ErrInviteNotPending
	}

	return info.ToInvite(), nil
}

// Accept consumes the invite token and joins the accepting user to the
// invited scope with the granted role. The transition itself is atomic: of
// two concurrent accepts exactly one wins. The membership write follows the
// transition, so an invite never grants twice; a user who joined through
// another path in the meantime keeps the existing membership.
func Accept(
	ctx context.Context,
	be *backend.Backend,
	token string,
	userID types.ID,
) (*types.Invite, error) {
	info, err := be.DB.AcceptInviteInfo(ctx, token, userID, time.Now())
	if err != nil {
		return nil, err
	}

	switch info.Scope.Kind {
	case database.ScopeTeam:
		role, err := database.NewTeamRole(info.Role)
		if err != nil {
			return nil, err
		}
		if _, err := be.DB.AddTeamMember(ctx, info.Scope.ID, userID, role); err != nil {
			if !errors.Is(err, database.ErrMemberAlreadyExists) {
				return nil, err
			}
		}
	case database.ScopeProject:
		role, err := database.NewProjectRole(info.Role)
		if err != nil {
			return nil, err
		}
		if _, err := be.DB.AddCollaborator(ctx, info.Scope.ID, userID, role); err != nil {
			if !errors.Is(err, database.ErrCollaboratorAlreadyExists) {
				return nil, err
			}
		}
	}

	if be.Metrics != nil {
		be.Metrics.AddInvitesClosed("accepted", 1)
	}
	logging.From(ctx).Infof(
		"invite %s accepted by %s: %s %s",
		info.ID, userID, info.Scope.Kind, info.Scope.ID,
	)

	return info.ToInvite(), nil
}

// Revoke closes a pending invite so its token can no longer be used.
func Revoke(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.Invite, error) {
	info, err := be.DB.RevokeInviteInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddInvitesClosed("revoked", 1)
	}

	return info.ToInvite(), nil
}

// Resend rotates the token of a pending invite and restarts its expiry
// window. The previous token becomes immediately unusable.
func Resend(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*Invitation, error) {
	info, err := be.DB.RotateInviteToken(
		ctx,
		id,
		newToken(),
		time.Now().Add(database.InviteTTL),
	)
	if err != nil {
		return nil, err
	}

	return &Invitation{
		Invite: info.ToInvite(),
		Token:  info.Token,
	}, nil
}

// ExpireOld sweeps all pending invites whose expiry lies before now.
func ExpireOld(
	ctx context.Context,
	be *backend.Backend,
) (int, error) {
	count, err := be.DB.ExpireInviteInfos(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	if be.Metrics != nil && count > 0 {
		be.Metrics.AddInvitesClosed("expired", count)
	}

	return count, nil
}
