// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package errutil provides logging and test helpers for oops-wrapped errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// attrs flattens an error into slog attributes. For oops errors the code and
// structured context come along; for plain errors only the message does.
func attrs(err error) []any {
	out := []any{"error", err.Error()}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return out
	}
	if code := oopsErr.Code(); code != nil {
		out = append(out, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		out = append(out, "context", ctx)
	}
	return out
}

// LogError logs an error with its code and context at error level.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, attrs(err)...)
}

// LogWarn logs an error with its code and context at warn level. Used for
// failures the caller tolerates, like best-effort cleanup.
func LogWarn(logger *slog.Logger, msg string, err error) {
	logger.Warn(msg, attrs(err)...)
}
