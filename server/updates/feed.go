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

package updates

import (
	"context"
	"time"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/users"
)

const (
	// DefaultFeedPageSize is the page size used when none is requested.
	DefaultFeedPageSize = 20

	// MaxFeedPageSize is the hard cap on the page size.
	MaxFeedPageSize = 100
)

// FeedQuery is a cursor-paginated feed request. Exactly one of ProjectID,
// TeamID, or TeamIDs selects the scope.
type FeedQuery struct {
	ProjectID types.ID
	TeamID    types.ID
	TeamIDs   []types.ID

	// Category optionally narrows the feed by exact match.
	Category string

	// Cursor is the opaque position returned by the previous page, empty for
	// the first page.
	Cursor types.ID

	// PageSize is the requested page size. Out-of-range values are clamped.
	PageSize int
}

// scope names the feed scope for metrics.
func (q *FeedQuery) scope() string {
	switch {
	case q.ProjectID != "":
		return "project"
	case q.TeamID != "":
		return "team"
	default:
		return "team_set"
	}
}

// FeedPage is one page of a feed in `(createdAt desc, id desc)` order.
type FeedPage struct {
	Updates []*types.Update

	// HasMore reports whether older updates remain beyond this page.
	HasMore bool

	// NextCursor is the position to pass for the next page. It is only set
	// when HasMore is true.
	NextCursor types.ID
}

// GetFeed returns one page of the feed selected by the query, newest first,
// with the author projections attached. One extra row is fetched beyond the
// page to decide HasMore without a second query.
func GetFeed(
	ctx context.Context,
	be *backend.Backend,
	query *FeedQuery,
) (*FeedPage, error) {
	start := time.Now()

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = DefaultFeedPageSize
	}
	if pageSize > MaxFeedPageSize {
		pageSize = MaxFeedPageSize
	}

	infos, err := be.DB.FindUpdateInfosByFeed(
		ctx,
		database.FeedSelector{
			ProjectID: query.ProjectID,
			TeamID:    query.TeamID,
			TeamIDs:   query.TeamIDs,
			Category:  query.Category,
		},
		types.Paging[types.ID]{
			Offset:   query.Cursor,
			PageSize: pageSize + 1,
		},
	)
	if err != nil {
		return nil, err
	}

	hasMore := len(infos) > pageSize
	if hasMore {
		infos = infos[:pageSize]
	}

	page := &FeedPage{
		Updates: make([]*types.Update, 0, len(infos)),
		HasMore: hasMore,
	}
	for _, info := range infos {
		page.Updates = append(page.Updates, info.ToUpdate())
	}
	if hasMore {
		page.NextCursor = infos[len(infos)-1].ID
	}

	if err := attachAuthors(ctx, be, page.Updates); err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.ObserveFeedQuery(query.scope(), time.Since(start).Seconds())
	}

	return page, nil
}

// attachAuthors fills the author projection of each update with a single
// batched lookup.
func attachAuthors(
	ctx context.Context,
	be *backend.Backend,
	items []*types.Update,
) error {
	ids := make([]types.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.AuthorID)
	}

	authors, err := users.GetUsersByIDs(ctx, be, ids)
	if err != nil {
		return err
	}

	for _, item := range items {
		item.Author = authors[item.AuthorID]
	}

	return nil
}
