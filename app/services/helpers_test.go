package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/repositories"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/cache"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
	"github.com/shashiranjanraj/storeadmin/pkg/workerpool"
)

// memCache is a cache.Store that round-trips through JSON like Redis does.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return ok && json.Unmarshal(b, dest) == nil
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Forget(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type stack struct {
	api        *testkit.FakeAPI
	client     *repositories.RemoteClient
	cache      *memCache
	resolver   *services.SchemaResolver
	reconciler *services.Reconciler
	images     *services.ImageManager
	catalog    *services.CatalogService
	orders     *services.OrderService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	api := testkit.NewFakeAPI(t)
	client := api.Client()
	pool := workerpool.New(4)
	t.Cleanup(pool.Shutdown)

	mc := newMemCache()
	var store cache.Store = mc
	resolver := services.NewSchemaResolver(client, store, time.Minute)
	reconciler := services.NewReconciler(client, resolver, pool)
	images := services.NewImageManager(client)

	return &stack{
		api:        api,
		client:     client,
		cache:      mc,
		resolver:   resolver,
		reconciler: reconciler,
		images:     images,
		catalog:    services.NewCatalogService(client, resolver, reconciler, images),
		orders:     services.NewOrderService(client),
	}
}

// seedExample loads category 5 (Color id 1, Weight id 2) and product 42
// with an existing Color=Red record (id 9).
func (s *stack) seedExample() {
	s.api.SetSchema(5,
		models.SpecificationDefinition{ID: 1, Name: "Color"},
		models.SpecificationDefinition{ID: 2, Name: "Weight"},
	)
	s.api.AddProduct(models.Product{ID: 42, Name: "Phone", CategoryID: 5})
	s.api.SetValues(42, models.SpecificationValue{ID: 9, Name: "Color", Value: "Red"})
}
