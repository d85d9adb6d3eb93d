// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// assertion fails with its message when the condition it captured is false.
type assertion struct {
	holds   bool
	message string
}

var _ Validator = (*assertion)(nil)

// NewAssertion returns a Validator failing with message when holds is false.
func NewAssertion(holds bool, message string) Validator {
	return &assertion{holds: holds, message: message}
}

// Validate implements Validator
func (v *assertion) Validate() error {
	if v.holds {
		return nil
	}
	return errors.New(v.message)
}

// minimumValidator checks that a numeric setting is not below a floor.
type minimumValidator struct {
	name    string
	value   int64
	minimum int64
}

var _ Validator = (*minimumValidator)(nil)

// NewMinimumValidator returns a Validator that fails when value is below minimum.
func NewMinimumValidator(name string, value, minimum int64) Validator {
	return &minimumValidator{name: name, value: value, minimum: minimum}
}

// Validate implements Validator
func (v *minimumValidator) Validate() error {
	if v.value < v.minimum {
		return fmt.Errorf("the [%s] must be at least %d, got %d", v.name, v.minimum, v.value)
	}
	return nil
}

// oneOfValidator checks that a string setting is one of the allowed values.
type oneOfValidator struct {
	name    string
	value   string
	allowed []string
}

var _ Validator = (*oneOfValidator)(nil)

// NewOneOfValidator returns a Validator that fails when value is not one of
// the allowed values. The comparison is case-insensitive.
func NewOneOfValidator(name, value string, allowed ...string) Validator {
	return &oneOfValidator{name: name, value: value, allowed: allowed}
}

// Validate implements Validator
func (v *oneOfValidator) Validate() error {
	value := strings.ToLower(v.value)
	if slices.ContainsFunc(v.allowed, func(candidate string) bool {
		return strings.ToLower(candidate) == value
	}) {
		return nil
	}
	return fmt.Errorf("the [%s] must be one of [%s], got %q", v.name, strings.Join(v.allowed, ", "), v.value)
}
