package util

import (
	"cmp"
	"slices"
	"strconv"
)

/*
Utility functions.
*/

////////////////////////////////////////////////////////////////////////////////

// GroupBy groups records by the result of f.
func GroupBy[T any, K comparable](records []T, f func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, record := range records {
		key := f(record)
		groups[key] = append(groups[key], record)
	}
	return groups
}

// Okeys returns the keys of a map in sorted order.
func Okeys[T cmp.Ordered, K any](m map[T]K) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HumanBytes renders a byte count with a binary unit. Counts under 1 KB are
// exact; larger counts carry one decimal place unless it is zero.
func HumanBytes(n int) string {
	suffix := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	if n < 1024 {
		return strconv.Itoa(n) + " B"
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(suffix)-1 {
		f /= 1024
		i++
	}
	s := strconv.FormatFloat(f, 'f', 1, 64)
	if s[len(s)-2:] == ".0" {
		s = s[:len(s)-2]
	}
	return s + " " + suffix[i]
}

// When returns a if cond is true, otherwise b.
func When[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
