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

// Paging is the paging information for cursor-based queries. Offset is the
// last-seen position in the collection's total order; rows at the offset
// itself are excluded from the result.
type Paging[T any] struct {
	Offset    T
	PageSize  int
	IsForward bool
}
