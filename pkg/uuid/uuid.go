// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates time-ordered identifiers for request correlation and
rate limiter entries.

Version 7 values sort by creation time (millisecond precision), which keeps
request ids and sorted-set members readable in logs and in Redis.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
//
// If the time-ordered generator fails, a random v4 value is returned instead:
// callers only rely on uniqueness.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
