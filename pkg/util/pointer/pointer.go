// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pointer

func To[T any](v T) *T {
	return &v
}
