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

package backend

import (
	"fmt"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// UserCacheSize is the size of the user projection cache used to enrich
	// feed pages.
	UserCacheSize int `yaml:"UserCacheSize"`

	// Hostname is the teampulse server hostname. hostname is used by metrics.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.UserCacheSize <= 0 {
		return fmt.Errorf(
			`invalid argument %d for "--backend-user-cache-size" flag`,
			c.UserCacheSize,
		)
	}

	return nil
}
