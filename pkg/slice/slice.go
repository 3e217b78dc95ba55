// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice adds the two generic helpers the standard [slices] package lacks.
*/
package slice

// Map returns transform applied to every element of input, in order.
// A nil input yields an empty, non-nil slice so JSON encodes it as [].
func Map[T any, U any](input []T, transform func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}
	return result
}

// Filter returns the elements of input for which keep reports true.
func Filter[T any](input []T, keep func(T) bool) []T {
	result := make([]T, 0)
	for _, v := range input {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}
