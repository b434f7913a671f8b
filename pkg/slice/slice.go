// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice complements the standard [slices] package with generic
// projections used when mapping storage documents onto domain entities.
package slice

// Map applies transform to every element of input.
//
// A nil input yields nil. An empty, non-nil input yields an empty, non-nil
// result, so JSON list responses render as [] rather than null.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}
