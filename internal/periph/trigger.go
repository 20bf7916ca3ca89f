package periph

import (
	"context"
	"fmt"
	"time"
)

// Trigger is the free-running sampling timer. Prescale and modulo are fixed
// when it is created; every overflow fires one conversion request.
type Trigger struct {
	clock  Clock
	modulo uint16
}

// NewTrigger creates a sampling trigger.
func NewTrigger(clock Clock, modulo uint16) *Trigger {
	return &Trigger{clock: clock, modulo: modulo}
}

// Period returns the sampling period.
func (t *Trigger) Period() time.Duration {
	return t.clock.Period(t.modulo)
}

// Run calls fire once per period until ctx is done.
func (t *Trigger) Run(ctx context.Context, fire func()) error {
	period := t.Period()
	if period <= 0 {
		return fmt.Errorf("trigger: invalid period %v", period)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fire()
		}
	}
}
