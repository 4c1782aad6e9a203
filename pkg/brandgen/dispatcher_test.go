package brandgen

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, provider Provider, clock Clock) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(provider, nil, DefaultDispatcherConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d.WithClock(clock)
}

func TestDispatchSendsPlanParameters(t *testing.T) {
	provider := newFakeProvider()
	provider.submitResponses = []*SubmitResponse{
		{Images: []string{"https://tmp/a.png"}},
	}
	d := newTestDispatcher(t, provider, newFakeClock())

	if _, err := d.Dispatch(context.Background(), PlanPremium, "a logo"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	req := provider.lastSubmit
	if req.Prompt != "a logo" {
		t.Errorf("Prompt = %q", req.Prompt)
	}
	if req.Params.NumOutputs != 1 || req.Params.Quality != "high" || req.Params.InferenceSteps != 50 {
		t.Errorf("premium params not applied: %+v", req.Params)
	}
}

func TestDispatchUnknownPlan(t *testing.T) {
	d := newTestDispatcher(t, newFakeProvider(), newFakeClock())
	_, err := d.Dispatch(context.Background(), PlanTier("gold"), "a logo")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Errorf("err = %v, want ErrUnknownPlan", err)
	}
}

func TestDispatchRetriesWithProviderHint(t *testing.T) {
	provider := newFakeProvider()
	provider.submitErrs = []error{
		&RateLimitError{RetryAfter: 5 * time.Second},
		nil,
	}
	provider.submitResponses = []*SubmitResponse{
		nil,
		{Images: []string{"https://tmp/a.png"}},
	}
	clock := newFakeClock()
	d := newTestDispatcher(t, provider, clock)

	sub, err := d.Dispatch(context.Background(), PlanFree, "a logo")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sub.Mode != ModeDirect {
		t.Errorf("Mode = %s, want direct", sub.Mode)
	}

	sleeps := clock.sleptDurations()
	if len(sleeps) != 1 {
		t.Fatalf("slept %d times, want 1", len(sleeps))
	}
	// Provider hint plus the one-second margin.
	if sleeps[0] != 6*time.Second {
		t.Errorf("slept %s, want 6s", sleeps[0])
	}
}

func TestDispatchExponentialBackoffWithoutHint(t *testing.T) {
	provider := newFakeProvider()
	provider.submitErrs = []error{
		&RateLimitError{},
		&RateLimitError{},
		nil,
	}
	provider.submitResponses = []*SubmitResponse{
		nil,
		nil,
		{Images: []string{"https://tmp/a.png"}},
	}
	clock := newFakeClock()
	d := newTestDispatcher(t, provider, clock)

	if _, err := d.Dispatch(context.Background(), PlanFree, "a logo"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	sleeps := clock.sleptDurations()
	want := []time.Duration{10 * time.Second, 20 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("slept %d times, want %d", len(sleeps), len(want))
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, sleeps[i], want[i])
		}
	}
}

func TestDispatchExhaustsAttemptCap(t *testing.T) {
	provider := newFakeProvider()
	provider.submitErrs = []error{
		&RateLimitError{},
		&RateLimitError{},
		&RateLimitError{RetryAfter: 9 * time.Second},
	}
	clock := newFakeClock()
	d := newTestDispatcher(t, provider, clock)

	_, err := d.Dispatch(context.Background(), PlanFree, "a logo")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want *RateLimitError", err)
	}
	if rle.RetryAfter != 9*time.Second {
		t.Errorf("last error not surfaced: %v", rle)
	}
	if provider.submitCalls != 3 {
		t.Errorf("submitCalls = %d, want 3", provider.submitCalls)
	}
	// No sleep after the final attempt.
	if got := len(clock.sleptDurations()); got != 2 {
		t.Errorf("slept %d times, want 2", got)
	}
}

func TestDispatchNonRateLimitErrorIsFatal(t *testing.T) {
	provider := newFakeProvider()
	provider.submitErrs = []error{errors.New("connection refused")}
	clock := newFakeClock()
	d := newTestDispatcher(t, provider, clock)

	_, err := d.Dispatch(context.Background(), PlanFree, "a logo")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", err)
	}
	if provider.submitCalls != 1 {
		t.Errorf("submitCalls = %d, want 1 (no retry)", provider.submitCalls)
	}
	if len(clock.sleptDurations()) != 0 {
		t.Error("non-rate-limit failure should not back off")
	}
}

func TestDispatchCanceledContextStopsBackoff(t *testing.T) {
	provider := newFakeProvider()
	provider.submitErrs = []error{&RateLimitError{}}
	d := newTestDispatcher(t, provider, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, PlanFree, "a logo")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		resp     *SubmitResponse
		wantMode ExecutionMode
		wantErr  bool
	}{
		{
			name:     "direct images",
			resp:     &SubmitResponse{Images: []string{"a", "b", "c"}},
			wantMode: ModeDirect,
		},
		{
			name:     "images win over job ids",
			resp:     &SubmitResponse{Images: []string{"a"}, JobIDs: []string{"j1"}},
			wantMode: ModeDirect,
		},
		{
			name:     "single batch reference",
			resp:     &SubmitResponse{Mode: ModeBatch, JobIDs: []string{"j1"}},
			wantMode: ModeBatch,
		},
		{
			name:     "individual references",
			resp:     &SubmitResponse{JobIDs: []string{"j1", "j2", "j3"}},
			wantMode: ModeIndividual,
		},
		{
			name:     "unlabeled single reference is individual",
			resp:     &SubmitResponse{JobIDs: []string{"j1"}},
			wantMode: ModeIndividual,
		},
		{
			name:    "empty response",
			resp:    &SubmitResponse{},
			wantErr: true,
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := classify(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, ErrGenerationFailed) {
					t.Errorf("err = %v, want ErrGenerationFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if sub.Mode != tt.wantMode {
				t.Errorf("Mode = %s, want %s", sub.Mode, tt.wantMode)
			}
		})
	}
}
