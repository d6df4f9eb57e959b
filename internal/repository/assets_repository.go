package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/velvetqueue/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, ma *models.MediaAsset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	List(ctx context.Context) ([]*models.MediaAsset, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

const assetColumns = `id, file_path, asset_type, prompt, tags, meta_data, parent_id, created_at`

func scanAsset(row rowScanner) (*models.MediaAsset, error) {
	var ma models.MediaAsset
	err := row.Scan(
		&ma.ID,
		&ma.FilePath,
		&ma.AssetType,
		&ma.Prompt,
		pq.Array(&ma.Tags),
		&ma.MetaData,
		&ma.ParentID,
		&ma.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ma, nil
}

func (r *mediaAssetRepository) Create(ctx context.Context, ma *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO assets (file_path, asset_type, prompt, tags, meta_data, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		ma.FilePath, ma.AssetType, ma.Prompt, pq.Array(ma.Tags), ma.MetaData, ma.ParentID,
	).Scan(&id)
	if err != nil {
		slog.Error("failed to create asset", "err", err)
		return 0, err
	}

	return id, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	ma, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Error("failed to get asset", "asset_id", id, "err", err)
		return nil, err
	}

	return ma, nil
}

func (r *mediaAssetRepository) List(ctx context.Context) ([]*models.MediaAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("failed to list assets", "err", err)
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		ma, err := scanAsset(rows)
		if err != nil {
			slog.Error("failed to scan asset", "err", err)
			return nil, err
		}
		assets = append(assets, ma)
	}
	return assets, rows.Err()
}
