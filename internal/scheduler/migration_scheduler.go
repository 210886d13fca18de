package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 2 * time.Minute

// SessionStore is what the sweep needs from the session service
type SessionStore interface {
	Current(ctx context.Context) (*model.SessionUser, bool)
	ResumeMigration(ctx context.Context) (*service.MigrationReport, error)
}

// PendingCounter reports guest data still waiting for migration
type PendingCounter interface {
	Pending(ctx context.Context) (cartLines, wishlistEntries int, err error)
}

// MigrationScheduler 부분 실패한 게스트 데이터 이전을 주기적으로 재시도
type MigrationScheduler struct {
	cron      *cron.Cron
	schedule  string
	sessions  SessionStore
	migration PendingCounter
}

// NewMigrationScheduler 이전 재시도 스케줄러 생성
func NewMigrationScheduler(schedule string, sessions SessionStore, migration PendingCounter) *MigrationScheduler {
	return &MigrationScheduler{
		cron:      cron.New(),
		schedule:  schedule,
		sessions:  sessions,
		migration: migration,
	}
}

// Start 스케줄러 시작; 빈 스케줄이면 아무것도 하지 않음
func (s *MigrationScheduler) Start() error {
	if s.schedule == "" {
		logger.Info("Migration sweep disabled", nil)
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for migration sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Migration sweep scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Sweep retries the migration when a user is signed in and guest data is left.
// It reports whether a migration was attempted.
func (s *MigrationScheduler) Sweep(ctx context.Context) bool {
	user, ok := s.sessions.Current(ctx)
	if !ok {
		return false
	}

	cartLines, wishlistEntries, err := s.migration.Pending(ctx)
	if err != nil {
		logger.Warn("Failed to count pending guest data", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	if cartLines == 0 && wishlistEntries == 0 {
		return false
	}

	logger.Info("Retrying guest data migration", map[string]interface{}{
		"user_id":          user.UserID,
		"cart_lines":       cartLines,
		"wishlist_entries": wishlistEntries,
	})

	report, err := s.sessions.ResumeMigration(ctx)
	if err != nil {
		logger.Error("Scheduled migration failed", err, map[string]interface{}{
			"user_id": user.UserID,
		})
		return true
	}

	logger.Info("Scheduled migration finished", map[string]interface{}{
		"user_id":  user.UserID,
		"complete": report.Complete(),
	})
	return true
}

// Stop 스케줄러 중지; 실행 중인 작업이 끝날 때까지 기다림
func (s *MigrationScheduler) Stop() {
	logger.Info("Stopping migration sweep scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Migration sweep scheduler stopped", nil)
}
