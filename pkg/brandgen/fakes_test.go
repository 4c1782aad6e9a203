package brandgen

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeClock advances instantly on Sleep and records every wait it was
// asked for, so retry and polling timing can be asserted without real
// sleeping.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) sleptDurations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// fakeProvider replays scripted submit responses and per-job status
// sequences.
type fakeProvider struct {
	mu sync.Mutex

	submitResponses []*SubmitResponse
	submitErrs      []error
	submitCalls     int
	lastSubmit      *SubmitRequest

	statuses    map[string][]*JobStatus
	statusErr   error
	statusCalls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		statuses:    make(map[string][]*JobStatus),
		statusCalls: make(map[string]int),
	}
}

func (p *fakeProvider) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.submitCalls
	p.submitCalls++
	p.lastSubmit = req
	if i < len(p.submitErrs) && p.submitErrs[i] != nil {
		return nil, p.submitErrs[i]
	}
	if i < len(p.submitResponses) {
		return p.submitResponses[i], nil
	}
	return nil, fmt.Errorf("unexpected submit call %d", i)
}

func (p *fakeProvider) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	seq := p.statuses[jobID]
	i := p.statusCalls[jobID]
	p.statusCalls[jobID]++
	if len(seq) == 0 {
		return nil, fmt.Errorf("no status scripted for job %s", jobID)
	}
	if i >= len(seq) {
		// Repeat the last observation once the script runs out.
		return seq[len(seq)-1], nil
	}
	return seq[i], nil
}

// fakeLedger is an in-memory LedgerStore with injectable failures.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[LedgerKey]*LedgerEntry
	getErr  error
	addErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[LedgerKey]*LedgerEntry)}
}

func (l *fakeLedger) GetOrCreateEntry(ctx context.Context, key LedgerKey) (*LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getErr != nil {
		return nil, l.getErr
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &LedgerEntry{Key: key}
		l.entries[key] = entry
	}
	cp := *entry
	return &cp, nil
}

func (l *fakeLedger) AddUsage(ctx context.Context, key LedgerKey, generations, images int, usedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return l.addErr
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &LedgerEntry{Key: key}
		l.entries[key] = entry
	}
	entry.GenerationCount += generations
	entry.ImageCount += images
	entry.LastUsedAt = usedAt
	return nil
}

func (l *fakeLedger) entry(key LedgerKey) LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.entries[key]; ok {
		return *entry
	}
	return LedgerEntry{Key: key}
}

// seed installs counters for a key without going through AddUsage.
func (l *fakeLedger) seed(key LedgerKey, generations, images int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = &LedgerEntry{Key: key, GenerationCount: generations, ImageCount: images}
}

// fakeAssets is an in-memory AssetStore with injectable failures.
type fakeAssets struct {
	mu        sync.Mutex
	assets    map[string]*GeneratedAsset
	createErr error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{assets: make(map[string]*GeneratedAsset)}
}

func (a *fakeAssets) CreateAsset(ctx context.Context, asset *GeneratedAsset) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.createErr != nil {
		return a.createErr
	}
	cp := *asset
	a.assets[asset.ID] = &cp
	return nil
}

func (a *fakeAssets) GetAsset(ctx context.Context, ownerID, assetID string) (*GeneratedAsset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset, ok := a.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return nil, ErrAssetNotFound
	}
	cp := *asset
	return &cp, nil
}

func (a *fakeAssets) ListAssets(ctx context.Context, ownerID string) ([]GeneratedAsset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]GeneratedAsset, 0)
	for _, asset := range a.assets {
		if asset.OwnerID == ownerID {
			out = append(out, *asset)
		}
	}
	return out, nil
}

func (a *fakeAssets) ClearSelection(ctx context.Context, ownerID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, asset := range a.assets {
		if asset.OwnerID == ownerID {
			asset.IsSelected = false
		}
	}
	return nil
}

func (a *fakeAssets) MarkSelected(ctx context.Context, ownerID, assetID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset, ok := a.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return ErrAssetNotFound
	}
	asset.IsSelected = true
	return nil
}

func (a *fakeAssets) DeleteAsset(ctx context.Context, ownerID, assetID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset, ok := a.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return ErrAssetNotFound
	}
	delete(a.assets, assetID)
	return nil
}

func (a *fakeAssets) selectedIDs(ownerID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ids []string
	for id, asset := range a.assets {
		if asset.OwnerID == ownerID && asset.IsSelected {
			ids = append(ids, id)
		}
	}
	return ids
}

// fakeProfile records the last brand image write per owner.
type fakeProfile struct {
	mu     sync.Mutex
	images map[string]string
	err    error
}

func newFakeProfile() *fakeProfile {
	return &fakeProfile{images: make(map[string]string)}
}

func (p *fakeProfile) SetBrandImage(ctx context.Context, ownerID, imageURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.images[ownerID] = imageURL
	return nil
}

func (p *fakeProfile) brandImage(ownerID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images[ownerID]
}

// fakeUploader maps temp URLs to durable ones, failing on demand.
type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, tempURL, ownerID, filename string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/" + ownerID + "/" + filename, nil
}
