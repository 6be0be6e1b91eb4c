// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks sync queue entries and operator requests before
// they reach a store.
//
// A [Validator] validates a whole value, or only the named fields when
// fields are passed.
package validators

import "context"

// Validator validates an arbitrary value, optionally restricted to the
// named fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
