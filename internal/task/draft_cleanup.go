package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/templemart/internal/domain"
)

// IdleSweeper cierra las sesiones de edición sin uso desde before.
type IdleSweeper interface {
	SweepIdle(before time.Time) int
}

// DraftCleanup borra periódicamente los borradores que no se tocaron en TTL y,
// si tiene un IdleSweeper, las sesiones abandonadas.
type DraftCleanup struct {
	drafts   domain.DraftStore
	ttl      time.Duration
	spec     string
	cron     *cron.Cron
	now      func() time.Time
	sessions IdleSweeper
	idle     time.Duration
}

func NewDraftCleanup(drafts domain.DraftStore, ttl time.Duration, spec string) *DraftCleanup {
	if spec == "" {
		spec = "@hourly"
	}
	return &DraftCleanup{drafts: drafts, ttl: ttl, spec: spec, cron: cron.New(), now: time.Now}
}

// WithSessions suma el cierre de sesiones inactivas por más de idle a cada pasada.
func (t *DraftCleanup) WithSessions(s IdleSweeper, idle time.Duration) *DraftCleanup {
	t.sessions = s
	t.idle = idle
	return t
}

func (t *DraftCleanup) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := t.Run(ctx); err != nil {
			log.Error().Err(err).Msg("limpieza de borradores")
		}
	})
	if err != nil {
		return err
	}
	t.cron.Start()
	log.Info().Str("spec", t.spec).Dur("ttl", t.ttl).Msg("limpieza de borradores programada")
	return nil
}

func (t *DraftCleanup) Stop() {
	<-t.cron.Stop().Done()
}

// Run ejecuta una pasada y devuelve cuántos borradores borró.
func (t *DraftCleanup) Run(ctx context.Context) (int64, error) {
	if t.sessions != nil && t.idle > 0 {
		t.sessions.SweepIdle(t.now().Add(-t.idle))
	}
	n, err := t.drafts.DeleteOlderThan(ctx, t.now().Add(-t.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("borradores vencidos eliminados")
	}
	return n, nil
}
