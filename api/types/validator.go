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

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

const (
	// NOTE: regular expression is referenced unreserved characters
	// (https://datatracker.ietf.org/doc/html/rfc3986#section-2.3)
	slugRegexString = `^[a-z0-9\-._~]+$`
)

var (
	// ErrEmptyUserFields is returned when all updatable user fields are nil.
	ErrEmptyUserFields = errors.New("UpdatableUserFields is empty")

	// reservedSlugs is a map of reserved slugs. It is used to check if the
	// given team or project slug is reserved or not.
	reservedSlugs = map[string]bool{"new": true, "default": true, "admin": true}

	slugRegex = regexp.MustCompile(slugRegexString)

	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)
	trans, _         = uni.GetTranslator(defaultEn.Locale())
)

// FieldViolation is used to describe a single bad request field.
type FieldViolation struct {
	// Field is which field of the request is bad.
	Field string
	// Description is a description of why the request element is bad.
	Description string
}

// InvalidFieldsError is used to describe invalid fields.
type InvalidFieldsError struct {
	Violations []*FieldViolation
}

// Error returns the error message.
func (e *InvalidFieldsError) Error() string { return "invalid fields" }

func isReservedSlug(slug string) bool {
	if _, ok := reservedSlugs[slug]; ok {
		return true
	}
	return false
}

func registerValidation(tag string, fn validator.Func) {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func registerTranslation(tag, msg string) {
	if err := defaultValidator.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		if err := ut.Add(tag, msg, true); err != nil {
			return fmt.Errorf("add translation: %w", err)
		}
		return nil
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	}); err != nil {
		panic(err)
	}
}

// validateStruct validates the given struct and converts validator errors
// into an InvalidFieldsError carrying per-field violations.
func validateStruct(s interface{}) error {
	if err := defaultValidator.Struct(s); err != nil {
		invalidFieldsError := &InvalidFieldsError{}
		for _, err := range err.(validator.ValidationErrors) {
			v := &FieldViolation{
				Field:       err.StructField(),
				Description: err.Translate(trans),
			}
			invalidFieldsError.Violations = append(invalidFieldsError.Violations, v)
		}
		return invalidFieldsError
	}

	return nil
}

func init() {
	registerValidation("slug", func(level validator.FieldLevel) bool {
		return slugRegex.MatchString(level.Field().String())
	})
	registerTranslation("slug", "{0} must only contain letters, numbers, hyphen, period, underscore, and tilde")

	registerValidation("reservedslug", func(level validator.FieldLevel) bool {
		return !isReservedSlug(level.Field().String())
	})
	registerTranslation("reservedslug", "given {0} is reserved slug")
}
