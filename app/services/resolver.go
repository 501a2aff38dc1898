package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/cache"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
)

// SchemaSource fetches the raw specification definitions of a category.
type SchemaSource interface {
	CategorySchema(ctx context.Context, categoryID int64) ([]models.SpecificationDefinition, error)
}

// SchemaResolver returns a category's specification definitions ordered by
// name, optionally through a read-through cache.
type SchemaResolver struct {
	src   SchemaSource
	cache cache.Store
	ttl   time.Duration
}

// NewSchemaResolver creates a resolver. A nil store disables caching.
func NewSchemaResolver(src SchemaSource, store cache.Store, ttl time.Duration) *SchemaResolver {
	if store == nil {
		store = cache.Nop{}
	}
	return &SchemaResolver{src: src, cache: store, ttl: ttl}
}

// SchemaCacheKey is the cache key of a category's schema.
func SchemaCacheKey(categoryID int64) string {
	return fmt.Sprintf("schema:category:%d", categoryID)
}

// Resolve returns the definitions of categoryID sorted by name, ties broken
// by id, each stamped with the category id.
func (r *SchemaResolver) Resolve(ctx context.Context, categoryID int64) ([]models.SpecificationDefinition, error) {
	key := SchemaCacheKey(categoryID)

	var defs []models.SpecificationDefinition
	if r.cache.Get(ctx, key, &defs) {
		return defs, nil
	}

	defs, err := r.src.CategorySchema(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	defs = sortDefinitions(categoryID, defs)

	if err := r.cache.Set(ctx, key, defs, r.ttl); err != nil {
		logger.WithCtx(ctx).Warn("schema cache write failed", "category_id", categoryID, "error", err)
	}
	return defs, nil
}

// Invalidate drops the cached schema of categoryID.
func (r *SchemaResolver) Invalidate(ctx context.Context, categoryID int64) error {
	return r.cache.Forget(ctx, SchemaCacheKey(categoryID))
}

func sortDefinitions(categoryID int64, defs []models.SpecificationDefinition) []models.SpecificationDefinition {
	out := make([]models.SpecificationDefinition, len(defs))
	for i, d := range defs {
		d.CategoryID = categoryID
		out[i] = d
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
