package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
)

func TestAddCategory_CreatesDefinitionsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	cat, defs, err := s.catalog.AddCategory(ctx,
		models.NewCategory{Name: "Laptops", IsActive: true, ParentCategoryID: 1},
		[]string{"RAM", " ", "CPU"})
	require.NoError(t, err)
	require.NotZero(t, cat.ID)
	assert.Len(t, defs, 2)

	testkit.AssertJSONBody(t, `{"name":"Laptops","is_active":true,"num_category":0,"parent_category_id":1}`,
		testkit.Only(t, s.api.CallsTo(http.MethodPost, "/categories/child/add")))
	assert.Len(t, s.api.CallsTo(http.MethodPost, "/specifications/add"), 2)

	schema, err := s.catalog.Schema(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "CPU", schema[0].Name)
}

func TestAddCategory_ValidationStopsEarly(t *testing.T) {
	s := newStack(t)

	_, _, err := s.catalog.AddCategory(context.Background(), models.NewCategory{ParentCategoryID: 1}, nil)

	var ve *services.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "name")
	assert.Empty(t, s.api.Calls())
}

func TestAddCategory_DefinitionFailureKeepsCategory(t *testing.T) {
	s := newStack(t)
	s.api.Fail(http.MethodPost, "/specifications/add", http.StatusInternalServerError, testkit.BodyContains(`"CPU"`))

	cat, defs, err := s.catalog.AddCategory(context.Background(),
		models.NewCategory{Name: "Laptops", ParentCategoryID: 1}, []string{"RAM", "CPU"})
	require.Error(t, err)
	assert.NotZero(t, cat.ID)
	require.Len(t, defs, 1)
	assert.Equal(t, "RAM", defs[0].Name)
	assert.Contains(t, err.Error(), "CPU")
}

func TestAddSpecification_InvalidatesSchemaCache(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	s.seedExample()

	_, err := s.resolver.Resolve(ctx, 5)
	require.NoError(t, err)
	require.True(t, s.cache.has(services.SchemaCacheKey(5)))

	def, err := s.catalog.AddSpecification(ctx, models.NewSpecificationDefinition{Name: "Size", CategoryID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), def.CategoryID)
	assert.False(t, s.cache.has(services.SchemaCacheKey(5)))

	schema, err := s.resolver.Resolve(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, schema, 3)
}

func TestAddBrand(t *testing.T) {
	s := newStack(t)

	b, err := s.catalog.AddBrand(context.Background(), models.NewBrand{Name: "  Acme "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", b.Name)

	_, err = s.catalog.AddBrand(context.Background(), models.NewBrand{})
	var ve *services.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func newDraft() services.ProductDraft {
	img := file("front.jpg", "front")
	return services.ProductDraft{
		Product:        models.NewProduct{Name: "Phone", CategoryID: 5, BrandID: 1, ModelName: "X1", Price: 199},
		PrimaryImage:   &img,
		Specifications: models.WorkingValues{1: "Black", 2: "180g"},
		Gallery:        []services.File{file("a.jpg", "a"), file("b.jpg", "b")},
	}
}

func TestCreateProduct_AllSteps(t *testing.T) {
	s := newStack(t)
	s.seedExample()

	log, err := s.catalog.CreateProduct(context.Background(), newDraft())
	require.NoError(t, err)
	assert.True(t, log.Complete())
	assert.Equal(t, 2, log.GalleryAttached)

	p, ok := s.api.Product(log.ProductID)
	require.True(t, ok)
	assert.Equal(t, log.PrimaryImageURL, p.PrimaryImageURL)
	assert.Len(t, s.api.Values(log.ProductID), 2)
	assert.Len(t, s.api.Images(log.ProductID), 2)

	// The primary image is uploaded before the product exists.
	writes := s.api.Writes()
	assert.Equal(t, "/files", writes[0].Path)
	assert.Equal(t, "/products/add", writes[1].Path)
}

func TestCreateProduct_PrimaryUploadFailureAborts(t *testing.T) {
	s := newStack(t)
	s.seedExample()
	s.api.Fail(http.MethodPost, "/files", http.StatusInternalServerError)

	log, err := s.catalog.CreateProduct(context.Background(), newDraft())

	var ce *services.CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, services.StepProductCreated, ce.Step)
	assert.Zero(t, log.ProductID)
	testkit.AssertNotCalled(t, s.api, http.MethodPost, "/products/add")
}

func TestCreateProduct_ResumeAfterSpecificationFailure(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	s.seedExample()
	s.api.Fail(http.MethodPost, "/p_specification", http.StatusInternalServerError, testkit.Times(1))
	draft := newDraft()

	log, err := s.catalog.CreateProduct(ctx, draft)
	var ce *services.CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, services.StepSpecificationsApplied, ce.Step)
	assert.True(t, log.Done(services.StepProductCreated))
	assert.False(t, log.Done(services.StepImagesAttached))

	log, err = s.catalog.ResumeProduct(ctx, log, draft)
	require.NoError(t, err)
	assert.True(t, log.Complete())

	assert.Len(t, s.api.CallsTo(http.MethodPost, "/products/add"), 1)
	assert.Len(t, s.api.Values(log.ProductID), 2)
	assert.Len(t, s.api.Images(log.ProductID), 2)
}

func TestCreateProduct_Validation(t *testing.T) {
	s := newStack(t)
	draft := newDraft()
	draft.Product.Price = -5

	_, err := s.catalog.CreateProduct(context.Background(), draft)

	var ve *services.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "price")
	assert.Empty(t, s.api.Calls())
}

func TestUpdateProduct_EmptyPatchOnlyReads(t *testing.T) {
	s := newStack(t)
	s.seedExample()

	p, err := s.catalog.UpdateProduct(context.Background(), 42, models.ProductPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Phone", p.Name)
	testkit.AssertNoWrites(t, s.api)
}
