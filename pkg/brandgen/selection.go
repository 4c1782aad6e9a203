package brandgen

import "context"

// SelectionManager enforces that at most one persisted asset is chosen
// per owner. Exclusivity lives here, not in a database constraint: the
// stores have no uniqueness mechanism across the boolean.
type SelectionManager struct {
	assets  AssetStore
	profile ProfileStore
	logger  Logger
}

// NewSelectionManager creates a selection manager. The profile store is
// optional; when present, a selection also copies the asset URL into the
// owner's current-brand-image field.
func NewSelectionManager(assets AssetStore, profile ProfileStore, logger Logger) (*SelectionManager, error) {
	if assets == nil {
		return nil, ErrStorageUnavailable
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &SelectionManager{assets: assets, profile: profile, logger: logger}, nil
}

// Select clears is_selected on every asset owned by ownerID, then sets it
// on assetID. The two steps are sequential, not transactional; a narrow
// window exists where no asset is marked selected. Last writer wins
// across concurrent selections. The brand-image propagation is a second
// write allowed to fail without undoing the selection.
func (s *SelectionManager) Select(ctx context.Context, ownerID, assetID string) error {
	asset, err := s.assets.GetAsset(ctx, ownerID, assetID)
	if err != nil {
		return err
	}
	if err := s.assets.ClearSelection(ctx, ownerID); err != nil {
		return err
	}
	if err := s.assets.MarkSelected(ctx, ownerID, assetID); err != nil {
		return err
	}

	if s.profile != nil {
		if err := s.profile.SetBrandImage(ctx, ownerID, asset.ImageURL); err != nil {
			s.logger.Warn("brand image propagation failed",
				Field{Key: "owner", Value: ownerID},
				Field{Key: "asset", Value: assetID},
				Field{Key: "error", Value: err.Error()},
			)
		}
	}
	return nil
}

// Delete removes the record. A deleted selected asset simply leaves no
// asset selected; no repair is needed.
func (s *SelectionManager) Delete(ctx context.Context, ownerID, assetID string) error {
	return s.assets.DeleteAsset(ctx, ownerID, assetID)
}

// List returns the owner's assets, newest first.
func (s *SelectionManager) List(ctx context.Context, ownerID string) ([]GeneratedAsset, error) {
	return s.assets.ListAssets(ctx, ownerID)
}
