package service

import (
	"context"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/slogx"
)

// ActivityRecorder writes the user activity log.
type ActivityRecorder struct {
	Store store.Store
	Clock Clock
}

// Record appends e, stamping the time when unset. Failures are logged only.
func (a *ActivityRecorder) Record(ctx context.Context, e domain.ActivityEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.Clock.Now()
	}
	if err := a.Store.Activity().RecordActivity(ctx, e); err != nil {
		slogx.FromContext(ctx).Error("failed to record activity",
			"action", e.Action, "entity", e.Entity, "user_id", e.UserID, "err", err)
	}
}

// Sweep deletes activity older than before.
func (a *ActivityRecorder) Sweep(ctx context.Context, before time.Time) (int64, error) {
	return a.Store.Activity().DeleteActivityBefore(ctx, before)
}
