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
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/teampulse/teampulse/api/types"
	"github.com/teampulse/teampulse/server/backend"
)

// mentionPattern matches @username references in raw content.
var mentionPattern = regexp.MustCompile(`@(\w+)`)

// markup is the derived rendering of an update's raw content.
type markup struct {
	HTML     string
	Mentions []types.ID
}

// renderContent derives the safe HTML and the resolved mention IDs from raw
// content. The steps are ordered: HTML-escape first, then wrap mentions,
// then convert linebreaks. Escaping after wrapping would destroy the mention
// spans; mentions never contain markup characters, so escaping first is
// safe.
func renderContent(
	ctx context.Context,
	be *backend.Backend,
	content string,
) (*markup, error) {
	usernames := extractMentions(content)

	infos, err := be.DB.FindUserInfosByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]types.ID, len(infos))
	mentions := make([]types.ID, 0, len(infos))
	for _, info := range infos {
		resolved[strings.ToLower(info.Username)] = info.ID
		mentions = append(mentions, info.ID)
	}

	rendered := html.EscapeString(content)
	rendered = mentionPattern.ReplaceAllStringFunc(rendered, func(match string) string {
		username := strings.ToLower(match[1:])
		id, ok := resolved[username]
		if !ok {
			return match
		}
		return fmt.Sprintf(`<span class="mention" data-user-id=%q>%s</span>`, id, match)
	})
	rendered = strings.ReplaceAll(rendered, "\n", "<br>")

	return &markup{
		HTML:     rendered,
		Mentions: mentions,
	}, nil
}

// extractMentions returns the unique case-folded usernames referenced in the
// content, in order of first appearance.
func extractMentions(content string) []string {
	var usernames []string
	seen := map[string]bool{}
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		username := strings.ToLower(match[1])
		if seen[username] {
			continue
		}
		seen[username] = true
		usernames = append(usernames, username)
	}

	return usernames
}
