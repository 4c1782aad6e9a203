package brandgen

import (
	"context"
	"time"
)

// LedgerStore defines the interface for quota ledger persistence.
// All methods use concrete types from this package to avoid import cycles.
type LedgerStore interface {
	// GetOrCreateEntry retrieves the ledger entry for a key, creating a
	// zero-count entry if none exists yet.
	GetOrCreateEntry(ctx context.Context, key LedgerKey) (*LedgerEntry, error)

	// AddUsage atomically increments the generation and image counters for
	// a key and stamps last_used_at. The entry is created if missing.
	// Counters only ever grow.
	AddUsage(ctx context.Context, key LedgerKey, generations, images int, usedAt time.Time) error
}

// AssetStore defines the interface for generated-asset persistence.
type AssetStore interface {
	// CreateAsset stores one generated asset record.
	CreateAsset(ctx context.Context, asset *GeneratedAsset) error

	// GetAsset retrieves one asset by owner and id.
	// Returns ErrAssetNotFound if the id does not resolve for the owner.
	GetAsset(ctx context.Context, ownerID, assetID string) (*GeneratedAsset, error)

	// ListAssets returns the owner's assets, newest first.
	ListAssets(ctx context.Context, ownerID string) ([]GeneratedAsset, error)

	// ClearSelection unsets is_selected on every asset owned by ownerID.
	ClearSelection(ctx context.Context, ownerID string) error

	// MarkSelected sets is_selected on one asset.
	// Returns ErrAssetNotFound if the id does not resolve for the owner.
	MarkSelected(ctx context.Context, ownerID, assetID string) error

	// DeleteAsset removes one asset record.
	// Returns ErrAssetNotFound if the id does not resolve for the owner.
	DeleteAsset(ctx context.Context, ownerID, assetID string) error
}

// ProfileStore receives the denormalized "current brand image" copy when a
// selection is made. The write is best-effort and independent of the
// selection itself.
type ProfileStore interface {
	SetBrandImage(ctx context.Context, ownerID, imageURL string) error
}
