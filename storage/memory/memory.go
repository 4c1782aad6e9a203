// Package memory provides in-memory implementations of the brandgen
// storage interfaces. This implementation is primarily intended for
// testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Storage implements brandgen.LedgerStore, brandgen.AssetStore and
// brandgen.ProfileStore using in-memory maps.
type Storage struct {
	mu          sync.RWMutex
	ledger      map[string]*brandgen.LedgerEntry
	assets      map[string]*brandgen.GeneratedAsset
	brandImages map[string]string
}

// New creates a new in-memory storage adapter.
func New() *Storage {
	return &Storage{
		ledger:      make(map[string]*brandgen.LedgerEntry),
		assets:      make(map[string]*brandgen.GeneratedAsset),
		brandImages: make(map[string]string),
	}
}

// GetOrCreateEntry implements brandgen.LedgerStore.
func (s *Storage) GetOrCreateEntry(ctx context.Context, key brandgen.LedgerKey) (*brandgen.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := ledgerKey(key)
	entry, ok := s.ledger[k]
	if !ok {
		entry = &brandgen.LedgerEntry{Key: key}
		s.ledger[k] = entry
	}

	// Return a copy to prevent external mutations
	entryCopy := *entry
	return &entryCopy, nil
}

// AddUsage implements brandgen.LedgerStore. The increment happens under
// one lock, so counters never tear across concurrent callers.
func (s *Storage) AddUsage(ctx context.Context, key brandgen.LedgerKey, generations, images int, usedAt time.Time) error {
	if generations < 0 || images < 0 {
		return fmt.Errorf("usage increments must be non-negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := ledgerKey(key)
	entry, ok := s.ledger[k]
	if !ok {
		entry = &brandgen.LedgerEntry{Key: key}
		s.ledger[k] = entry
	}
	entry.GenerationCount += generations
	entry.ImageCount += images
	entry.LastUsedAt = usedAt
	return nil
}

// CreateAsset implements brandgen.AssetStore.
func (s *Storage) CreateAsset(ctx context.Context, asset *brandgen.GeneratedAsset) error {
	if asset == nil || asset.ID == "" || asset.OwnerID == "" {
		return fmt.Errorf("invalid asset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assetCopy := *asset
	s.assets[asset.ID] = &assetCopy
	return nil
}

// GetAsset implements brandgen.AssetStore.
func (s *Storage) GetAsset(ctx context.Context, ownerID, assetID string) (*brandgen.GeneratedAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return nil, brandgen.ErrAssetNotFound
	}

	assetCopy := *asset
	return &assetCopy, nil
}

// ListAssets implements brandgen.AssetStore, newest first.
func (s *Storage) ListAssets(ctx context.Context, ownerID string) ([]brandgen.GeneratedAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]brandgen.GeneratedAsset, 0)
	for _, asset := range s.assets {
		if asset.OwnerID == ownerID {
			assets = append(assets, *asset)
		}
	}
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].CreatedAt.Equal(assets[j].CreatedAt) {
			return assets[i].CreatedAt.After(assets[j].CreatedAt)
		}
		return assets[i].ID > assets[j].ID
	})
	return assets, nil
}

// ClearSelection implements brandgen.AssetStore.
func (s *Storage) ClearSelection(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, asset := range s.assets {
		if asset.OwnerID == ownerID {
			asset.IsSelected = false
		}
	}
	return nil
}

// MarkSelected implements brandgen.AssetStore.
func (s *Storage) MarkSelected(ctx context.Context, ownerID, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return brandgen.ErrAssetNotFound
	}
	asset.IsSelected = true
	return nil
}

// DeleteAsset implements brandgen.AssetStore.
func (s *Storage) DeleteAsset(ctx context.Context, ownerID, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[assetID]
	if !ok || asset.OwnerID != ownerID {
		return brandgen.ErrAssetNotFound
	}
	delete(s.assets, assetID)
	return nil
}

// SetBrandImage implements brandgen.ProfileStore.
func (s *Storage) SetBrandImage(ctx context.Context, ownerID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.brandImages[ownerID] = imageURL
	return nil
}

// BrandImage returns the owner's current brand image (useful for testing).
func (s *Storage) BrandImage(ownerID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brandImages[ownerID]
}

// Clear removes all data (useful for testing).
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = make(map[string]*brandgen.LedgerEntry)
	s.assets = make(map[string]*brandgen.GeneratedAsset)
	s.brandImages = make(map[string]string)
}

// ledgerKey generates a unique key for usage tracking.
func ledgerKey(key brandgen.LedgerKey) string {
	return fmt.Sprintf("%s:%s:%s", key.OwnerID, key.ToolID, key.Plan)
}
