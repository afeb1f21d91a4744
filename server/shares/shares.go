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

// Package shares provides the public share gateway. A share exposes a
// project read-only through an opaque token, without authentication.
package shares

import (
	"context"

	"github.com/lithammer/shortuuid/v4"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/logging"
)

// Share is the state of a project's public share. The token is disclosed
// only through these management operations, never through the project
// projection.
type Share struct {
	ProjectID types.ID
	Enabled   bool
	Token     string
}

// Enable turns on anonymous read access for the project. The first enabling
// mints a token; later ones keep the existing token so shared links stay
// valid across a disable/enable cycle.
func Enable(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
) (*Share, error) {
	info, err := be.DB.EnableShare(ctx, projectID, shortuuid.New())
	if err != nil {
		return nil, err
	}

	return &Share{
		ProjectID: info.ID,
		Enabled:   info.ShareEnabled,
		Token:     info.ShareToken,
	}, nil
}

// Disable turns off anonymous read access. The token is retained but no
// longer resolves.
func Disable(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
) (*Share, error) {
	info, err := be.DB.DisableShare(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Share{
		ProjectID: info.ID,
		Enabled:   info.ShareEnabled,
		Token:     info.ShareToken,
	}, nil
}

// Regenerate replaces the token and re-enables sharing. Every previously
// shared link stops working immediately.
func Regenerate(
	ctx context.Context,
	be *backend.Backend,
	projectID types.ID,
) (*Share, error) {
	info, err := be.DB.RegenerateShare(ctx, projectID, shortuuid.New())
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Infof("share token regenerated for project %s", projectID)

	return &Share{
		ProjectID: info.ID,
		Enabled:   info.ShareEnabled,
		Token:     info.ShareToken,
	}, nil
}

// Resolve returns the project behind the given share token. A disabled or
// unknown token is a plain not-found; the two cases are indistinguishable to
// the caller.
func Resolve(
	ctx context.Context,
	be *backend.Backend,
	token string,
) (*types.Project, error) {
	info, err := be.DB.FindProjectInfoByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddShareResolved()
	}

	return info.ToProject(), nil
}
