package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type AssetService interface {
	Register(ctx context.Context, req transfer.AssetCreation) (*models.MediaAsset, error)
	List(ctx context.Context) ([]*models.MediaAsset, error)
}

type assetService struct {
	ma repository.MediaAssetRepository
}

func NewAssetService(ma repository.MediaAssetRepository) AssetService {
	return &assetService{ma: ma}
}

func (s *assetService) Register(ctx context.Context, req transfer.AssetCreation) (*models.MediaAsset, error) {
	filePath := strings.TrimSpace(req.FilePath)
	if filePath == "" {
		return nil, validationf("file_path is required")
	}

	assetType := strings.ToLower(strings.TrimSpace(req.AssetType))
	switch assetType {
	case "":
		assetType = models.AssetTypeFor(filePath)
	case models.AssetTypeImage, models.AssetTypeVideo:
	default:
		return nil, validationf("asset_type must be %q or %q", models.AssetTypeImage, models.AssetTypeVideo)
	}

	if req.ParentID != nil {
		parent, err := s.ma.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, validationf("parent asset %d not found", *req.ParentID)
		}
	}

	asset := &models.MediaAsset{
		FilePath:  filePath,
		AssetType: assetType,
		Prompt:    req.Prompt,
		Tags:      req.Tags,
		MetaData:  models.AssetMeta(req.MetaData),
		ParentID:  req.ParentID,
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	id, err := s.ma.Create(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to register asset: %w", err)
	}
	return s.ma.GetByID(ctx, id)
}

func (s *assetService) List(ctx context.Context) ([]*models.MediaAsset, error) {
	return s.ma.List(ctx)
}
