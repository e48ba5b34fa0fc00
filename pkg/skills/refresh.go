package skills

import (
	"context"
	"time"

	"github.com/jingkaihe/skillsd/pkg/logger"
)

// DefaultRefreshInterval is the delay between the end of one scan and the start of the next
const DefaultRefreshInterval = 30 * time.Second

// Run rescans the roots until ctx is cancelled. The delay is measured from the
// completion of the previous scan, so a slow scan postpones the next one instead
// of overlapping it. Failures are logged and leave the previous cache in place.
func (d *Discovery) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.refresh(ctx)
			timer.Reset(interval)
		}
	}
}

func (d *Discovery) refresh(ctx context.Context) {
	log := logger.G(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("error refreshing skills")
		}
	}()

	log.Debug("refreshing skills")
	count, err := d.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("error refreshing skills")
		return
	}

	log.WithField("count", count).Debug("skills refreshed successfully")
}
