package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/blazehunter/internal/feed"
	"github.com/example/blazehunter/internal/utils"
)

// CleanupService deletes items that ended long ago. It runs when an admin
// session is activated, never on a timer.
type CleanupService struct {
	gateway Gateway
	store   SessionStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewCleanupService builds a CleanupService.
func NewCleanupService(gateway Gateway, store SessionStore, log zerolog.Logger) *CleanupService {
	return &CleanupService{gateway: gateway, store: store, now: time.Now, log: log}
}

// Activate runs the cleanup for a session the first time it is called for
// that session and returns the deleted ids. Later calls return nil.
func (s *CleanupService) Activate(ctx context.Context, session *Session) ([]int64, error) {
	first, err := s.store.MarkCleanup(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, nil
	}
	return s.Run(ctx, session.Credentials(), s.now(), false)
}

// Run selects items more than the expiry threshold past their end on today
// and deletes them unless dryRun is set. It returns the selected ids.
func (s *CleanupService) Run(ctx context.Context, creds Credentials, today time.Time, dryRun bool) ([]int64, error) {
	items, err := s.gateway.List(ctx, "")
	if err != nil {
		return nil, err
	}

	ids := feed.SelectForCleanup(items, today)
	if len(ids) == 0 || dryRun {
		return ids, nil
	}

	if err := s.gateway.Delete(ctx, ids, creds); err != nil {
		s.log.Error().Err(err).Int("count", len(ids)).Msg("auto-cleanup failed")
		return nil, err
	}

	s.log.Info().
		Int("count", len(ids)).
		Str("admin", utils.MaskEmail(creds.Email)).
		Msg("auto-cleaned expired items")
	return ids, nil
}
