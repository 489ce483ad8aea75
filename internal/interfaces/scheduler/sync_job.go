package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/bridge"
	"bridgesync/internal/domain/user"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// TokenIssuer obtains a delegated-access token for a user.
type TokenIssuer interface {
	IssueToken(ctx context.Context, userUUID string) (*bridgeclient.AuthTokenResponse, error)
}

// UserSyncer runs the composite sync for one user.
type UserSyncer interface {
	SyncUserData(ctx context.Context, userUUID, accessToken string) (*bridge.UserSyncResult, error)
}

// UserLister lists provisioned users.
type UserLister interface {
	List(ctx context.Context) ([]*user.User, error)
}

// UserSyncJob refreshes a user's token and pulls items, accounts and
// transactions.
type UserSyncJob struct {
	userUUID string
	tokens   TokenIssuer
	syncer   UserSyncer
}

func NewUserSyncJob(userUUID string, tokens TokenIssuer, syncer UserSyncer) *UserSyncJob {
	return &UserSyncJob{
		userUUID: userUUID,
		tokens:   tokens,
		syncer:   syncer,
	}
}

func (j *UserSyncJob) Execute(ctx context.Context) error {
	token, err := j.tokens.IssueToken(ctx, j.userUUID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	result, err := j.syncer.SyncUserData(ctx, j.userUUID, token.AccessToken)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Info().
		Str("user_uuid", j.userUUID).
		Int("items", result.Items.Found).
		Int("accounts", result.Accounts.Found).
		Int("transactions", result.Transactions.Found).
		Msg("user sync job finished")
	return nil
}

func (j *UserSyncJob) UserUUID() string {
	return j.userUUID
}

func (j *UserSyncJob) Description() string {
	return "user sync"
}

// NewUserJobProvider returns a JobProvider yielding one UserSyncJob per
// provisioned user.
func NewUserJobProvider(users UserLister, tokens TokenIssuer, syncer UserSyncer) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		list, err := users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		jobs := make([]Job, 0, len(list))
		for _, u := range list {
			jobs = append(jobs, NewUserSyncJob(u.BridgeUUID, tokens, syncer))
		}
		return jobs, nil
	}
}
