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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teampulse/teampulse/pkg/errors"
)

func TestStatusErrors(t *testing.T) {
	t.Run("status extraction test", func(t *testing.T) {
		err := errors.NotFound("update not found")
		assert.Equal(t, errors.ErrCodeNotFound, errors.StatusOf(err))
		assert.True(t, errors.IsStatus(err, errors.ErrCodeNotFound))
		assert.True(t, errors.IsClientError(err))
		assert.False(t, errors.IsServerError(err))
	})

	t.Run("wrapped status extraction test", func(t *testing.T) {
		base := errors.FailedPrecond("invite is not pending").WithCode("ErrInviteNotPending")
		wrapped := fmt.Errorf("accept invite: %w", base)

		assert.Equal(t, errors.ErrCodeFailedPrecondition, errors.StatusOf(wrapped))
		assert.Equal(t, "ErrInviteNotPending", errors.CodeOf(wrapped))
	})

	t.Run("code attachment test", func(t *testing.T) {
		err := errors.PermissionDenied("insufficient role").WithCode("ErrInsufficientRole")
		assert.Equal(t, "ErrInsufficientRole", err.Code())
		assert.Equal(t, "insufficient role", err.Error())
	})

	t.Run("no status test", func(t *testing.T) {
		err := fmt.Errorf("plain error")
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(err))
		assert.Equal(t, "", errors.CodeOf(err))
	})
}
