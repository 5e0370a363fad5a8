package jobs

import (
	"context"
	"fmt"
	"time"

	"delivery_notes_app_go/models"
	"delivery_notes_app_go/services"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// OpenNotes lists notes that are not reconciled yet
type OpenNotes interface {
	Open(cutoff time.Time) []models.DeliveryNote
}

// PendingDigest emails the notes that stayed open longer than MinAge
type PendingDigest struct {
	Notes     OpenNotes
	Mailer    services.Mailer
	Recipient string
	MinAge    time.Duration
	Now       func() time.Time
}

// Run sends one digest. It returns how many notes were reported; nothing is
// sent when there are none.
func (d *PendingDigest) Run(ctx context.Context) (int, error) {
	if d.Recipient == "" {
		return 0, nil
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	notes := d.Notes.Open(now().Add(-d.MinAge))
	if len(notes) == 0 {
		return 0, nil
	}

	if err := d.Mailer.Send(ctx, services.BuildPendingDigestEmail(d.Recipient, notes)); err != nil {
		return 0, fmt.Errorf("failed to send pending digest: %w", err)
	}
	return len(notes), nil
}

// StartScheduler schedules the digest on schedule in loc. The returned cron must
// be stopped on shutdown.
func StartScheduler(digest *PendingDigest, schedule string, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		count, err := digest.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Pending digest failed")
			return
		}
		log.Info().Int("notes", count).Msg("Pending digest ran")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule pending digest %q: %w", schedule, err)
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("Job scheduler started")
	return c, nil
}
