package brandgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Finalizer copies resolved output URLs to durable storage and writes one
// asset record per output. Both steps are best-effort: a logo that is
// visible today on an ephemeral URL beats no logo at all, and results
// already produced are never retracted over a failed write.
type Finalizer struct {
	uploader Uploader
	assets   AssetStore
	logger   Logger
	metrics  Metrics
	clock    Clock
}

// NewFinalizer creates a finalizer. The uploader may be nil, in which case
// assets keep their provider-hosted URLs.
func NewFinalizer(uploader Uploader, assets AssetStore, logger Logger, metrics Metrics) (*Finalizer, error) {
	if assets == nil {
		return nil, ErrStorageUnavailable
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Finalizer{
		uploader: uploader,
		assets:   assets,
		logger:   logger,
		metrics:  metrics,
		clock:    SystemClock,
	}, nil
}

// WithClock overrides the time source, for tests.
func (f *Finalizer) WithClock(clock Clock) *Finalizer {
	f.clock = clock
	return f
}

// Finalize persists one GeneratedAsset per output URL, denormalizing the
// answer fields alongside it with is_selected unset. Upload failures fall
// back to the ephemeral URL; persistence failures are logged and
// swallowed. The returned slice always covers every output.
func (f *Finalizer) Finalize(ctx context.Context, req *GenerationRequest, urls []string) []GeneratedAsset {
	assets := make([]GeneratedAsset, 0, len(urls))
	for _, tempURL := range urls {
		imageURL := tempURL
		if f.uploader != nil {
			filename := fmt.Sprintf("%s.png", uuid.NewString())
			durable, err := f.uploader.Upload(ctx, tempURL, req.OwnerID, filename)
			if err != nil {
				f.metrics.RecordUploadFallback()
				f.logger.Warn("asset upload failed, keeping ephemeral url",
					Field{Key: "owner", Value: req.OwnerID},
					Field{Key: "error", Value: err.Error()},
				)
			} else {
				imageURL = durable
			}
		}

		asset := GeneratedAsset{
			ID:        ulid.Make().String(),
			OwnerID:   req.OwnerID,
			ToolID:    req.ToolID,
			Plan:      req.Plan,
			ImageURL:  imageURL,
			Answers:   req.Answers,
			CreatedAt: f.clock.Now(),
		}
		start := f.clock.Now()
		err := f.assets.CreateAsset(ctx, &asset)
		f.metrics.RecordStorageOperation("create_asset", f.clock.Now().Sub(start), err)
		if err != nil {
			f.logger.Error("failed to persist generated asset",
				Field{Key: "owner", Value: req.OwnerID},
				Field{Key: "asset", Value: asset.ID},
				Field{Key: "error", Value: err.Error()},
			)
		}
		assets = append(assets, asset)
	}
	return assets
}
