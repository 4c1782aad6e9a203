// Package postgres provides PostgreSQL implementations of the brandgen
// storage interfaces. Usage increments are single UPDATE statements, so
// counters stay consistent without explicit locking.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Storage implements brandgen.LedgerStore, brandgen.AssetStore and
// brandgen.ProfileStore using PostgreSQL.
type Storage struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL storage adapter.
func New(ctx context.Context, config Config) (*Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool, config: config}, nil
}

// Close closes the PostgreSQL connection pool.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables this adapter needs.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quota_ledger (
			owner_id         TEXT NOT NULL,
			tool_id          TEXT NOT NULL,
			plan             TEXT NOT NULL,
			generation_count INTEGER NOT NULL DEFAULT 0,
			image_count      INTEGER NOT NULL DEFAULT 0,
			last_used_at     TIMESTAMPTZ,
			PRIMARY KEY (owner_id, tool_id, plan)
		);
		CREATE TABLE IF NOT EXISTS generated_assets (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			tool_id     TEXT NOT NULL,
			plan        TEXT NOT NULL,
			image_url   TEXT NOT NULL,
			answers     JSONB NOT NULL,
			is_selected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS generated_assets_owner_idx
			ON generated_assets (owner_id, created_at DESC);
		CREATE TABLE IF NOT EXISTS brand_profiles (
			owner_id  TEXT PRIMARY KEY,
			image_url TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// GetOrCreateEntry implements brandgen.LedgerStore.
func (s *Storage) GetOrCreateEntry(ctx context.Context, key brandgen.LedgerKey) (*brandgen.LedgerEntry, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quota_ledger (owner_id, tool_id, plan)
			VALUES ($1, $2, $3)
			ON CONFLICT (owner_id, tool_id, plan) DO NOTHING`,
		key.OwnerID, key.ToolID, string(key.Plan),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	entry := brandgen.LedgerEntry{Key: key}
	var lastUsed *time.Time
	err = s.pool.QueryRow(ctx,
		`SELECT generation_count, image_count, last_used_at
			FROM quota_ledger WHERE owner_id = $1 AND tool_id = $2 AND plan = $3`,
		key.OwnerID, key.ToolID, string(key.Plan),
	).Scan(&entry.GenerationCount, &entry.ImageCount, &lastUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if lastUsed != nil {
		entry.LastUsedAt = *lastUsed
	}
	return &entry, nil
}

// AddUsage implements brandgen.LedgerStore with a single atomic upsert.
func (s *Storage) AddUsage(ctx context.Context, key brandgen.LedgerKey, generations, images int, usedAt time.Time) error {
	if generations < 0 || images < 0 {
		return fmt.Errorf("usage increments must be non-negative")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO quota_ledger (owner_id, tool_id, plan, generation_count, image_count, last_used_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (owner_id, tool_id, plan) DO UPDATE SET
				generation_count = quota_ledger.generation_count + EXCLUDED.generation_count,
				image_count = quota_ledger.image_count + EXCLUDED.image_count,
				last_used_at = EXCLUDED.last_used_at`,
		key.OwnerID, key.ToolID, string(key.Plan), generations, images, usedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add usage: %w", err)
	}
	return nil
}

// CreateAsset implements brandgen.AssetStore.
func (s *Storage) CreateAsset(ctx context.Context, asset *brandgen.GeneratedAsset) error {
	if asset == nil || asset.ID == "" || asset.OwnerID == "" {
		return fmt.Errorf("invalid asset")
	}

	answers, err := json.Marshal(asset.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generated_assets (id, owner_id, tool_id, plan, image_url, answers, is_selected, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		asset.ID, asset.OwnerID, asset.ToolID, string(asset.Plan),
		asset.ImageURL, answers, asset.IsSelected, asset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// GetAsset implements brandgen.AssetStore.
func (s *Storage) GetAsset(ctx context.Context, ownerID, assetID string) (*brandgen.GeneratedAsset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, tool_id, plan, image_url, answers, is_selected, created_at
			FROM generated_assets WHERE id = $1 AND owner_id = $2`,
		assetID, ownerID,
	)
	asset, err := scanAsset(row)
	if err == pgx.ErrNoRows {
		return nil, brandgen.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// ListAssets implements brandgen.AssetStore, newest first.
func (s *Storage) ListAssets(ctx context.Context, ownerID string) ([]brandgen.GeneratedAsset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, tool_id, plan, image_url, answers, is_selected, created_at
			FROM generated_assets WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]brandgen.GeneratedAsset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// ClearSelection implements brandgen.AssetStore.
func (s *Storage) ClearSelection(ctx context.Context, ownerID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE generated_assets SET is_selected = FALSE WHERE owner_id = $1 AND is_selected`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	return nil
}

// MarkSelected implements brandgen.AssetStore.
func (s *Storage) MarkSelected(ctx context.Context, ownerID, assetID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE generated_assets SET is_selected = TRUE WHERE id = $1 AND owner_id = $2`,
		assetID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark selected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return brandgen.ErrAssetNotFound
	}
	return nil
}

// DeleteAsset implements brandgen.AssetStore.
func (s *Storage) DeleteAsset(ctx context.Context, ownerID, assetID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM generated_assets WHERE id = $1 AND owner_id = $2`,
		assetID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return brandgen.ErrAssetNotFound
	}
	return nil
}

// SetBrandImage implements brandgen.ProfileStore.
func (s *Storage) SetBrandImage(ctx context.Context, ownerID, imageURL string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO brand_profiles (owner_id, image_url)
			VALUES ($1, $2)
			ON CONFLICT (owner_id) DO UPDATE SET image_url = EXCLUDED.image_url`,
		ownerID, imageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to set brand image: %w", err)
	}
	return nil
}

func scanAsset(row pgx.Row) (*brandgen.GeneratedAsset, error) {
	var asset brandgen.GeneratedAsset
	var plan string
	var answers []byte

	err := row.Scan(&asset.ID, &asset.OwnerID, &asset.ToolID, &plan,
		&asset.ImageURL, &answers, &asset.IsSelected, &asset.CreatedAt)
	if err != nil {
		return nil, err
	}
	asset.Plan = brandgen.PlanTier(plan)
	if err := json.Unmarshal(answers, &asset.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return &asset, nil
}
