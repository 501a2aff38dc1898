package controllers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/pkg/bind"
	"github.com/shashiranjanraj/storeadmin/pkg/response"
)

// CatalogController exposes categories, brands, specification definitions
// and product lifecycle.
type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

type addCategoryRequest struct {
	models.NewCategory
	Specifications []string `json:"specifications"`
}

type createProductRequest struct {
	Product        models.NewProduct    `json:"product"`
	Specifications models.WorkingValues `json:"specifications"`
}

func (c *CatalogController) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, cats)
}

// AddCategory creates a child category with its initial specifications.
func (c *CatalogController) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if _, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	cat, defs, err := c.catalog.AddCategory(r.Context(), req.NewCategory, req.Specifications)
	data := map[string]interface{}{"category": cat, "specifications": defs}
	if err != nil {
		if cat.ID == 0 {
			fail(w, r, err)
			return
		}
		response.ErrorWithData(w, http.StatusBadGateway, err.Error(), data, nil)
		return
	}
	response.Created(w, data)
}

func (c *CatalogController) Schema(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	defs, err := c.catalog.Schema(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, defs)
}

func (c *CatalogController) AddSpecification(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in models.NewSpecificationDefinition
	if _, err := bind.JSON(r, &in); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	in.CategoryID = id
	def, err := c.catalog.AddSpecification(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, def)
}

func (c *CatalogController) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := c.catalog.ListBrands(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, brands)
}

func (c *CatalogController) AddBrand(w http.ResponseWriter, r *http.Request) {
	var in models.NewBrand
	if _, err := bind.JSON(r, &in); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	b, err := c.catalog.AddBrand(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, b)
}

func (c *CatalogController) Product(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := c.catalog.GetProduct(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, p)
}

func (c *CatalogController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.ProductPatch
	if _, err := bind.JSON(r, &patch); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	p, err := c.catalog.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, p)
}

func (c *CatalogController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := c.catalog.DeleteProduct(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// CreateProduct accepts either a JSON body or a multipart form whose
// "payload" field holds the same JSON, with an optional "primary_image"
// file and any number of "gallery" files.
func (c *CatalogController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var (
		req   createProductRequest
		draft services.ProductDraft
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, 8*config.MaxUploadBytes())
		if err := r.ParseMultipartForm(config.MaxUploadBytes()); err != nil {
			response.BadRequest(w, "invalid multipart body: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &req); err != nil {
			response.BadRequest(w, "invalid payload: "+err.Error())
			return
		}
		files, err := openParts(r.MultipartForm.File["primary_image"])
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if len(files) > 0 {
			draft.PrimaryImage = &files[0]
		}
		if draft.Gallery, err = openParts(r.MultipartForm.File["gallery"]); err != nil {
			for _, f := range files {
				f.Close()
			}
			response.BadRequest(w, err.Error())
			return
		}
		defer func() {
			for _, f := range append(files, draft.Gallery...) {
				f.Close()
			}
		}()
	} else if _, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	draft.Product = req.Product
	draft.Specifications = req.Specifications
	log, err := c.catalog.CreateProduct(r.Context(), draft)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, log)
}

func openParts(hdrs []*multipart.FileHeader) ([]services.File, error) {
	out := make([]services.File, 0, len(hdrs))
	for _, h := range hdrs {
		f, err := h.Open()
		if err != nil {
			for _, o := range out {
				o.Close()
			}
			return nil, err
		}
		out = append(out, services.File{Name: h.Filename, Reader: f})
	}
	return out, nil
}
