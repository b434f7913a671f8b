// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for query parameters.

Use it only where a malformed value and an absent value deserve the same
fallback, such as page numbers.
*/
package convert

import "strconv"

// IntOr parses raw as a base-10 int, returning fallback when raw is empty or malformed.
func IntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}

	return fallback
}
