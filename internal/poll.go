// Copyright 2016 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	gax "github.com/googleapis/gax-go/v2"
)

// A SleepFunc pauses for the given duration, returning early with the
// context's error if the context is done first. gax.Sleep is the standard
// implementation; tests substitute their own to observe pacing.
type SleepFunc func(context.Context, time.Duration) error

// Poll calls the supplied function f repeatedly, pausing between calls
// according to the provided backoff parameters. It returns when one of the
// following occurs:
//   - When f's first return value is true, Poll immediately returns with f's
//     second return value.
//   - When maxAttempts > 0 and f has been called maxAttempts times without
//     reporting stop, Poll returns a *PollExhaustedError.
//   - When the provided context is done during a pause, Poll returns an error
//     that includes both ctx.Err() and the last error returned by f.
//
// If maxAttempts <= 0 there is no limit on the number of calls.
func Poll(ctx context.Context, bo gax.Backoff, maxAttempts int, f func() (stop bool, err error), sleep SleepFunc) error {
	var lastErr error
	attempts := 0
	limited := maxAttempts > 0

	for {
		stop, err := f()
		attempts++
		if stop {
			return err
		}
		// Hold on to real errors only; context errors are reported
		// through the sleep path below.
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			lastErr = err
		}

		if limited && attempts >= maxAttempts {
			return &PollExhaustedError{Attempts: attempts, LastErr: lastErr}
		}

		if ctxErr := sleep(ctx, bo.Pause()); ctxErr != nil {
			if lastErr != nil {
				return wrappedCallErr{ctxErr: ctxErr, wrappedErr: lastErr}
			}
			return ctxErr
		}
	}
}

// PollExhaustedError is returned by Poll when the attempt limit is reached
// before the polled function reports stop.
type PollExhaustedError struct {
	// Attempts is the number of times the function was called.
	Attempts int
	// LastErr is the last non-context error the function returned, if any.
	LastErr error
}

// Error implements the error interface.
func (e *PollExhaustedError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("polling gave up after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("polling gave up after %d attempts; last error: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last error observed while polling, so that errors.Is
// and errors.As see through the exhaustion report.
func (e *PollExhaustedError) Unwrap() error {
	return e.LastErr
}

// wrappedCallErr allows introspection of both the context error and the
// last error from the polled call.
type wrappedCallErr struct {
	ctxErr     error
	wrappedErr error
}

func (e wrappedCallErr) Error() string {
	return fmt.Sprintf("poll interrupted by %v; last error: %v", e.ctxErr, e.wrappedErr)
}

func (e wrappedCallErr) Unwrap() error {
	return e.wrappedErr
}

// Is allows errors.Is to match both the error from the call and context
// sentinel errors.
func (e wrappedCallErr) Is(err error) bool {
	return e.ctxErr == err || e.wrappedErr == err
}
