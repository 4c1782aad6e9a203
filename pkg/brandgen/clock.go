package brandgen

import (
	"context"
	"time"
)

// Clock abstracts time for the retry and polling loops so their waits can
// be tested without real sleeping. Sleep returns early with the context's
// error when the caller goes away.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock is the real-time Clock used outside of tests.
var SystemClock Clock = systemClock{}
