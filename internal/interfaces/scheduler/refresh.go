package scheduler

import "context"

// RefreshTrigger queues a UserSyncJob on the worker pool. It satisfies the
// webhook reconciler's trigger interface.
type RefreshTrigger struct {
	pool   *WorkerPool
	tokens TokenIssuer
	syncer UserSyncer
}

func NewRefreshTrigger(pool *WorkerPool, tokens TokenIssuer, syncer UserSyncer) *RefreshTrigger {
	return &RefreshTrigger{pool: pool, tokens: tokens, syncer: syncer}
}

// TriggerUserSync returns without waiting for the sync to run.
func (t *RefreshTrigger) TriggerUserSync(_ context.Context, userUUID string) error {
	return t.pool.Submit(NewUserSyncJob(userUUID, t.tokens, t.syncer))
}
