// Copyright 2025 SmartHelmet sp. z o.o.
//
//    All Rights Reserved

package utils

import "time"

// Clock interface
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock provides a real clock
type RealClock struct{}

// Now returns the current date and time
func (RealClock) Now() time.Time {
	return time.Now()
}

// After waits for the duration to elapse
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
