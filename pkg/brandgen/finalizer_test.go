package brandgen

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testRequest() *GenerationRequest {
	return &GenerationRequest{
		OwnerID: "kid-1",
		ToolID:  "logo",
		Plan:    PlanFree,
		Answers: BrandAnswers{BusinessName: "Luna's Lemonade"},
	}
}

func TestFinalizePersistsOneAssetPerURL(t *testing.T) {
	store := newFakeAssets()
	f, err := NewFinalizer(&fakeUploader{}, store, nil, nil)
	if err != nil {
		t.Fatalf("NewFinalizer: %v", err)
	}
	f.WithClock(newFakeClock())

	urls := []string{"https://tmp/a.png", "https://tmp/b.png", "https://tmp/c.png"}
	assets := f.Finalize(context.Background(), testRequest(), urls)

	if len(assets) != 3 {
		t.Fatalf("returned %d assets, want 3", len(assets))
	}
	seen := make(map[string]bool)
	for _, asset := range assets {
		if asset.ID == "" {
			t.Error("asset has empty id")
		}
		if seen[asset.ID] {
			t.Errorf("duplicate asset id %s", asset.ID)
		}
		seen[asset.ID] = true
		if asset.OwnerID != "kid-1" || asset.ToolID != "logo" || asset.Plan != PlanFree {
			t.Errorf("ownership not denormalized: %+v", asset)
		}
		if asset.Answers.BusinessName != "Luna's Lemonade" {
			t.Errorf("answers not denormalized: %+v", asset.Answers)
		}
		if asset.IsSelected {
			t.Error("fresh asset marked selected")
		}
		if !strings.HasPrefix(asset.ImageURL, "https://cdn.example.com/kid-1/") {
			t.Errorf("durable URL not used: %q", asset.ImageURL)
		}
		if !strings.HasSuffix(asset.ImageURL, ".png") {
			t.Errorf("filename extension missing: %q", asset.ImageURL)
		}

		stored, err := store.GetAsset(context.Background(), "kid-1", asset.ID)
		if err != nil {
			t.Errorf("asset %s not persisted: %v", asset.ID, err)
			continue
		}
		if stored.ImageURL != asset.ImageURL {
			t.Errorf("stored URL %q != returned %q", stored.ImageURL, asset.ImageURL)
		}
	}
}

func TestFinalizeUploadFailureFallsBackToEphemeralURL(t *testing.T) {
	store := newFakeAssets()
	uploader := &fakeUploader{err: errors.New("bucket unavailable")}
	f, _ := NewFinalizer(uploader, store, nil, nil)
	f.WithClock(newFakeClock())

	assets := f.Finalize(context.Background(), testRequest(), []string{"https://tmp/a.png"})

	if len(assets) != 1 {
		t.Fatalf("returned %d assets, want 1", len(assets))
	}
	if assets[0].ImageURL != "https://tmp/a.png" {
		t.Errorf("ImageURL = %q, want ephemeral fallback", assets[0].ImageURL)
	}
}

func TestFinalizeNilUploaderKeepsProviderURLs(t *testing.T) {
	store := newFakeAssets()
	f, _ := NewFinalizer(nil, store, nil, nil)
	f.WithClock(newFakeClock())

	assets := f.Finalize(context.Background(), testRequest(), []string{"https://tmp/a.png"})
	if assets[0].ImageURL != "https://tmp/a.png" {
		t.Errorf("ImageURL = %q", assets[0].ImageURL)
	}
}

func TestFinalizeSwallowsPersistenceFailures(t *testing.T) {
	store := newFakeAssets()
	store.createErr = errors.New("disk full")
	f, _ := NewFinalizer(&fakeUploader{}, store, nil, nil)
	f.WithClock(newFakeClock())

	assets := f.Finalize(context.Background(), testRequest(), []string{"https://tmp/a.png", "https://tmp/b.png"})
	// Results in hand are never retracted over a failed write.
	if len(assets) != 2 {
		t.Errorf("returned %d assets, want 2", len(assets))
	}
}

func TestFinalizeEmptyURLList(t *testing.T) {
	f, _ := NewFinalizer(nil, newFakeAssets(), nil, nil)
	f.WithClock(newFakeClock())

	assets := f.Finalize(context.Background(), testRequest(), nil)
	if len(assets) != 0 {
		t.Errorf("returned %d assets, want 0", len(assets))
	}
}
