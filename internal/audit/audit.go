// Package audit logs before/after records around mutating service calls.
// Services stay free of audit concerns; wrappers built on Call add them.
package audit

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

const (
	phaseBefore = "before"
	phaseAfter  = "after"
)

// Call runs fn and logs the action, actor and input before it, then the
// result or error and the elapsed time after it. A nil logger runs fn bare.
func Call[In any, Out any](ctx context.Context, logg *logger.Logger, action, actor string, input In, fn func() (Out, error)) (Out, error) {
	if logg == nil {
		return fn()
	}
	ctx = logg.WithActor(ctx, actor)
	ctx = logg.WithFields(ctx, map[string]any{"audit_action": action})
	logg.Info(logg.WithFields(ctx, map[string]any{"audit_phase": phaseBefore, "input": input}), "audit "+action)

	started := time.Now()
	out, err := fn()
	fields := map[string]any{
		"audit_phase": phaseAfter,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_code"] = string(pkgerrors.As(err).Code())
		logg.Warn(logg.WithFields(ctx, fields), "audit "+action+" failed")
		return out, err
	}
	fields["result"] = out
	logg.Info(logg.WithFields(ctx, fields), "audit "+action+" succeeded")
	return out, nil
}

// Do is Call for operations that only return an error.
func Do[In any](ctx context.Context, logg *logger.Logger, action, actor string, input In, fn func() error) error {
	_, err := Call(ctx, logg, action, actor, input, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
