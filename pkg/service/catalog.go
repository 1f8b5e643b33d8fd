package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/repository"
	"go.uber.org/zap"
)

// Cache is a JSON key/value cache. A miss is reported as repository.ErrNotFound.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CatalogService manages categories and menu items. Reads go through the
// cache when one is configured; every write invalidates it.
type CatalogService struct {
	store  repository.CatalogStore
	cache  Cache
	logger *zap.Logger
}

func NewCatalogService(store repository.CatalogStore, cache Cache, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, logger: logger.Named("catalog")}
}

func cachedList[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		var out []T
		err := s.cache.GetJSON(ctx, key, &out)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, 0); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cachedList(ctx, s, repository.CategoriesCacheKey, s.store.ListCategories)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", invalid(MsgCategoryNameRequired)
	}
	c := models.Category{
		Name:        name,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if req.Order != nil {
		c.Order = *req.Order
	}
	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, repository.CategoriesCacheKey)
	return id, nil
}

// SeedCategory stores c under its own id.
func (s *CatalogService) SeedCategory(ctx context.Context, c models.Category) error {
	if c.ID == "" || strings.TrimSpace(c.Name) == "" {
		return invalid(MsgCategoryNameRequired)
	}
	if _, err := s.store.CreateCategory(ctx, c); err != nil {
		return fmt.Errorf("seed category %s: %w", c.ID, err)
	}
	s.invalidate(ctx, repository.CategoriesCacheKey)
	return nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, req models.UpdateCategoryRequest) error {
	if req.ID == "" {
		return invalid(MsgCategoryIDRequired)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return invalid(MsgCategoryNameRequired)
	}
	fields := req.Fields()
	if len(fields) == 0 {
		if _, err := s.store.GetCategory(ctx, req.ID); err != nil {
			return fmt.Errorf("update category %s: %w", req.ID, err)
		}
		return nil
	}
	if err := s.store.UpdateCategory(ctx, req.ID, fields); err != nil {
		return fmt.Errorf("update category %s: %w", req.ID, err)
	}
	s.invalidate(ctx, repository.CategoriesCacheKey)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return invalid(MsgCategoryIDRequired)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.invalidate(ctx, repository.CategoriesCacheKey)
	return nil
}

func (s *CatalogService) WatchCategories(ctx context.Context) (*live.Subscription[models.Category], error) {
	return s.store.WatchCategories(ctx)
}

func (s *CatalogService) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return cachedList(ctx, s, repository.MenuCacheKey, s.store.ListMenuItems)
}

// GetMenuItem reads straight from the store so carts capture the current price.
func (s *CatalogService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return s.store.GetMenuItem(ctx, id)
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, req models.CreateMenuItemRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price == nil || req.Category == "" {
		return "", invalid(MsgMenuFieldsRequired)
	}
	if *req.Price < 0 {
		return "", invalid(MsgNegativePrice)
	}
	item := models.MenuItem{
		Name:        name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Available:   true,
		Ingredients: req.Ingredients,
		Allergens:   req.Allergens,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	id, err := s.store.CreateMenuItem(ctx, item)
	if err != nil {
		return "", fmt.Errorf("create menu item: %w", err)
	}
	s.invalidate(ctx, repository.MenuCacheKey)
	return id, nil
}

// SeedMenuItem stores item under its own id.
func (s *CatalogService) SeedMenuItem(ctx context.Context, item models.MenuItem) error {
	if item.ID == "" || item.Name == "" || item.Category == "" {
		return invalid(MsgMenuFieldsRequired)
	}
	if item.Price < 0 {
		return invalid(MsgNegativePrice)
	}
	if _, err := s.store.CreateMenuItem(ctx, item); err != nil {
		return fmt.Errorf("seed menu item %s: %w", item.ID, err)
	}
	s.invalidate(ctx, repository.MenuCacheKey)
	return nil
}

func (s *CatalogService) UpdateMenuItem(ctx context.Context, req models.UpdateMenuItemRequest) error {
	if req.ID == "" {
		return invalid(MsgMenuItemIDRequired)
	}
	if req.Price != nil && *req.Price < 0 {
		return invalid(MsgNegativePrice)
	}
	fields := req.Fields()
	if len(fields) == 0 {
		if _, err := s.store.GetMenuItem(ctx, req.ID); err != nil {
			return fmt.Errorf("update menu item %s: %w", req.ID, err)
		}
		return nil
	}
	if err := s.store.UpdateMenuItem(ctx, req.ID, fields); err != nil {
		return fmt.Errorf("update menu item %s: %w", req.ID, err)
	}
	s.invalidate(ctx, repository.MenuCacheKey)
	return nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, id string) error {
	if id == "" {
		return invalid(MsgMenuItemIDRequired)
	}
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return fmt.Errorf("delete menu item %s: %w", id, err)
	}
	s.invalidate(ctx, repository.MenuCacheKey)
	return nil
}

func (s *CatalogService) WatchMenu(ctx context.Context) (*live.Subscription[models.MenuItem], error) {
	return s.store.WatchMenu(ctx)
}
