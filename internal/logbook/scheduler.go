package logbook

import (
	"context"
	"time"
)

// ShouldRunToday decides whether the auto-backup is due. Only the calendar
// date of the marker is compared against now: a backup at 23:59 and a
// check at 00:01 the next minute count as a new day. An absent or
// unparseable marker means the backup has never run.
func ShouldRunToday(lastBackupDate string, now time.Time) bool {
	if lastBackupDate == "" {
		return true
	}
	last, err := time.Parse(time.RFC3339, lastBackupDate)
	if err != nil {
		return true
	}
	y1, m1, d1 := last.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// RunScheduledBackup performs at most one backup per calendar day when the
// autoBackup setting is on. This is the error-suppression boundary: every
// failure in the serialize → pack → resolve → write chain is logged and
// swallowed so a background backup never interrupts normal use. A failed
// attempt does not update the marker, so the next check retries.
func (s *Service) RunScheduledBackup(ctx context.Context) {
	settings, err := s.Settings(ctx)
	if err != nil {
		s.logger.Warn("auto-backup: reading settings failed", "error", err)
		return
	}
	if !settings.AutoBackup {
		s.logger.Debug("auto-backup disabled")
		return
	}
	if !ShouldRunToday(settings.LastBackupDate, s.clock.Now()) {
		s.logger.Debug("auto-backup already ran today", "last", settings.LastBackupDate)
		return
	}

	path, err := s.writeBackup(ctx, false)
	if err != nil {
		s.logger.Warn("auto-backup failed", "error", err)
		return
	}
	s.logger.Info("auto-backup written", "path", path)
}
