package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ErrNameRequired
	}

	now := time.Now().UTC()
	cat := &model.Category{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:        name,
		Description: input.Description,
		Color:       colorOrDefault(input.Color),
	}
	if input.UserID != "" {
		cat.CreatedBy = &input.UserID
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	uc.logger.Info("category created", zap.String("category_id", cat.ID), zap.String("name", cat.Name))
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if filters == nil {
		filters = &dto.CategoryFilters{}
	}
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, count, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ErrNameRequired
	}

	cat, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	cat.Name = name
	cat.Description = input.Description
	cat.Color = colorOrDefault(input.Color)
	cat.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("category deleted", zap.String("category_id", id))
	return nil
}

func colorOrDefault(color string) string {
	if color = strings.TrimSpace(color); color == "" {
		return model.DefaultCategoryColor
	}
	return color
}
