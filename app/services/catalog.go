package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
)

// CatalogAPI is the part of the remote client the catalog service uses.
type CatalogAPI interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddChildCategory(ctx context.Context, in models.NewCategory) (models.Category, error)
	AddSpecificationDefinition(ctx context.Context, in models.NewSpecificationDefinition) (models.SpecificationDefinition, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
	AddBrand(ctx context.Context, in models.NewBrand) (models.Brand, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	CreateProduct(ctx context.Context, in models.NewProduct) (models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// CatalogService runs the catalog administration operations: categories,
// brands, specification definitions and product lifecycle.
type CatalogService struct {
	api        CatalogAPI
	resolver   *SchemaResolver
	reconciler *Reconciler
	images     *ImageManager
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(api CatalogAPI, resolver *SchemaResolver, reconciler *Reconciler, images *ImageManager) *CatalogService {
	return &CatalogService{api: api, resolver: resolver, reconciler: reconciler, images: images}
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.api.ListCategories(ctx)
}

// Schema returns a category's definitions ordered by name.
func (s *CatalogService) Schema(ctx context.Context, categoryID int64) ([]models.SpecificationDefinition, error) {
	return s.resolver.Resolve(ctx, categoryID)
}

// ListBrands returns every brand.
func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return s.api.ListBrands(ctx)
}

// AddBrand validates and creates a brand.
func (s *CatalogService) AddBrand(ctx context.Context, in models.NewBrand) (models.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return models.Brand{}, err
	}
	b, err := s.api.AddBrand(ctx, in)
	if err != nil {
		return models.Brand{}, fmt.Errorf("add brand %q: %w", in.Name, err)
	}
	logger.Audit(ctx, "brand.added", "brand_id", b.ID, "name", b.Name)
	return b, nil
}

// AddCategory creates a child category and then, concurrently, one
// specification definition per name. The category is returned even when
// some definitions fail; the error lists the failed names.
func (s *CatalogService) AddCategory(ctx context.Context, in models.NewCategory, specNames []string) (models.Category, []models.SpecificationDefinition, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return models.Category{}, nil, err
	}

	names := make([]string, 0, len(specNames))
	for _, n := range specNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	for _, n := range names {
		if err := check(models.NewSpecificationDefinition{Name: n, CategoryID: 1}); err != nil {
			return models.Category{}, nil, err
		}
	}

	cat, err := s.api.AddChildCategory(ctx, in)
	if err != nil {
		return models.Category{}, nil, fmt.Errorf("add category %q: %w", in.Name, err)
	}
	logger.Audit(ctx, "category.added", "category_id", cat.ID, "name", cat.Name)

	defs := make([]models.SpecificationDefinition, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defs[i], errs[i] = s.api.AddSpecificationDefinition(ctx, models.NewSpecificationDefinition{
				Name:       name,
				CategoryID: cat.ID,
			})
		}(i, name)
	}
	wg.Wait()

	created := make([]models.SpecificationDefinition, 0, len(names))
	var failed []error
	for i := range names {
		if errs[i] != nil {
			failed = append(failed, fmt.Errorf("%s: %w", names[i], errs[i]))
			continue
		}
		created = append(created, defs[i])
	}
	s.invalidate(ctx, cat.ID)

	if len(failed) > 0 {
		return cat, created, fmt.Errorf("category %d created but %d of %d specifications failed: %w",
			cat.ID, len(failed), len(names), errors.Join(failed...))
	}
	return cat, created, nil
}

// AddSpecification creates one definition for an existing category.
func (s *CatalogService) AddSpecification(ctx context.Context, in models.NewSpecificationDefinition) (models.SpecificationDefinition, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return models.SpecificationDefinition{}, err
	}
	def, err := s.api.AddSpecificationDefinition(ctx, in)
	if err != nil {
		return models.SpecificationDefinition{}, fmt.Errorf("add specification %q: %w", in.Name, err)
	}
	s.invalidate(ctx, in.CategoryID)
	logger.Audit(ctx, "specification.defined", "category_id", in.CategoryID, "definition_id", def.ID, "name", def.Name)
	return def, nil
}

func (s *CatalogService) invalidate(ctx context.Context, categoryID int64) {
	if err := s.resolver.Invalidate(ctx, categoryID); err != nil {
		logger.WithCtx(ctx).Warn("schema cache invalidation failed", "category_id", categoryID, "error", err)
	}
}

// GetProduct fetches one product.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return s.api.GetProduct(ctx, id)
}

// UpdateProduct applies a partial update.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	if patch.Empty() {
		return s.api.GetProduct(ctx, id)
	}
	p, err := s.api.UpdateProduct(ctx, id, patch)
	if err != nil {
		return models.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	logger.Audit(ctx, "product.updated", "product_id", id)
	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	logger.Audit(ctx, "product.deleted", "product_id", id)
	return nil
}

// ─────────────────────────────────────────────
// Product creation
// ─────────────────────────────────────────────

// CreationStep names a completed step of product creation.
type CreationStep string

const (
	StepProductCreated        CreationStep = "product_created"
	StepSpecificationsApplied CreationStep = "specifications_applied"
	StepImagesAttached        CreationStep = "images_attached"
)

// ProductDraft is everything needed to create a product in one go.
type ProductDraft struct {
	Product        models.NewProduct
	PrimaryImage   *File
	Specifications models.WorkingValues
	Gallery        []File
}

// CreationLog records how far a product creation got. Passing it back to
// ResumeProduct continues from the first unfinished step without creating
// the product again.
type CreationLog struct {
	ProductID       int64          `json:"product_id,omitempty"`
	PrimaryImageURL string         `json:"primary_image_url,omitempty"`
	Steps           []CreationStep `json:"steps"`
	GalleryAttached int            `json:"gallery_attached"`
}

// Done reports whether step has completed.
func (l *CreationLog) Done(step CreationStep) bool {
	for _, s := range l.Steps {
		if s == step {
			return true
		}
	}
	return false
}

// Complete reports whether every step has completed.
func (l *CreationLog) Complete() bool {
	return l.Done(StepProductCreated) && l.Done(StepSpecificationsApplied) && l.Done(StepImagesAttached)
}

func (l *CreationLog) mark(step CreationStep) {
	if !l.Done(step) {
		l.Steps = append(l.Steps, step)
	}
}

// CreationError is returned when product creation stops part way.
type CreationError struct {
	Step CreationStep // the step that failed
	Log  *CreationLog
	Err  error
}

func (e *CreationError) Error() string {
	if e.Log.ProductID == 0 {
		return fmt.Sprintf("create product: %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("create product %d: %s: %v", e.Log.ProductID, e.Step, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// CreateProduct uploads the optional primary image, creates the product,
// applies its specification values and attaches its gallery, in that
// order. A failed primary upload aborts before the product exists. On a
// later failure the returned log says which steps completed.
func (s *CatalogService) CreateProduct(ctx context.Context, draft ProductDraft) (*CreationLog, error) {
	if err := check(draft.Product); err != nil {
		return nil, err
	}
	return s.ResumeProduct(ctx, &CreationLog{}, draft)
}

// ResumeProduct continues a creation described by log.
func (s *CatalogService) ResumeProduct(ctx context.Context, log *CreationLog, draft ProductDraft) (*CreationLog, error) {
	if log == nil {
		log = &CreationLog{}
	}
	if log.Steps == nil {
		log.Steps = []CreationStep{}
	}

	if !log.Done(StepProductCreated) {
		in := draft.Product
		if draft.PrimaryImage != nil && log.PrimaryImageURL == "" {
			url, err := s.images.Upload(ctx, *draft.PrimaryImage)
			if err != nil {
				return log, &CreationError{Step: StepProductCreated, Log: log,
					Err: &UploadError{Slot: models.SlotPrimary, Stage: StageUpload, File: draft.PrimaryImage.Name, Err: err}}
			}
			log.PrimaryImageURL = url
		}
		if log.PrimaryImageURL != "" {
			in.PrimaryImageURL = log.PrimaryImageURL
		}

		p, err := s.api.CreateProduct(ctx, in)
		if err != nil {
			return log, &CreationError{Step: StepProductCreated, Log: log, Err: err}
		}
		log.ProductID = p.ID
		log.mark(StepProductCreated)
		logger.Audit(ctx, "product.created", "product_id", p.ID, "name", p.Name)
	}

	if !log.Done(StepSpecificationsApplied) {
		if len(draft.Specifications) > 0 {
			res, err := s.reconciler.Reconcile(ctx, log.ProductID, draft.Product.CategoryID, draft.Specifications)
			if err == nil {
				err = res.Err()
			}
			if err != nil {
				return log, &CreationError{Step: StepSpecificationsApplied, Log: log, Err: err}
			}
		}
		log.mark(StepSpecificationsApplied)
	}

	if !log.Done(StepImagesAttached) {
		for i := log.GalleryAttached; i < len(draft.Gallery); i++ {
			if _, err := s.images.AddGallery(ctx, log.ProductID, draft.Gallery[i]); err != nil {
				return log, &CreationError{Step: StepImagesAttached, Log: log, Err: err}
			}
			log.GalleryAttached = i + 1
		}
		log.mark(StepImagesAttached)
	}

	return log, nil
}
