package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"kbox/config"
	"kbox/infras/otel"
	bookingService "kbox/internal/domains/booking/service"
	"kbox/shared/constant"
)

// Reaper periodically cancels PENDING holds whose payment window lapsed,
// releasing their slots for other customers.
type Reaper struct {
	bookings bookingService.Booking
	cfg      *config.Config
	otel     otel.Otel
}

func NewReaper(bookings bookingService.Booking, cfg *config.Config, otel otel.Otel) *Reaper {
	return &Reaper{
		bookings: bookings,
		cfg:      cfg,
		otel:     otel,
	}
}

// Run blocks until ctx is cancelled, sweeping once per configured
// interval. The slot engine tolerates a dead reaper: availability and
// conflict checks already treat expired holds as free.
func (r *Reaper) Run(ctx context.Context) {
	interval := time.Duration(r.cfg.Worker.ReaperIntervalSeconds) * time.Second

	log.Info().Dur("interval", interval).Msg("Booking reaper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Booking reaper stopped")

			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".ReapExpiredBookings")
	defer scope.End()

	count, err := r.bookings.ExpireStale(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("Booking reaper sweep failed")

		return
	}

	if count > 0 {
		log.Info().Int("count", count).Msg("Cancelled expired booking holds")
	}
}
