// Package testkit provides an in-memory stand-in for the catalog and order
// API, served over httptest, plus testify helpers for asserting on the calls
// it received.
//
//	api := testkit.NewFakeAPI(t)
//	api.SetSchema(5, models.SpecificationDefinition{ID: 1, Name: "Color"})
//	api.SetValues(42, models.SpecificationValue{ID: 9, Name: "Color", Value: "Red"})
//	api.Fail(http.MethodPost, "/p_specification", 500, testkit.BodyContains(`"specification_id":2`))
//
//	client := api.Client()
//	// ... exercise code under test ...
//	testkit.AssertCalled(t, api, http.MethodPut, "/p_specification/9")
package testkit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/repositories"
)

// Call is one request the fake received.
type Call struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into dest.
func (c Call) JSON(dest interface{}) error { return json.Unmarshal(c.Body, dest) }

type failure struct {
	method   string
	path     string
	status   int
	contains string
	times    int // 0 = forever
}

type hold struct {
	method string
	path   string
	gate   chan struct{}
}

// FailOption narrows an injected failure.
type FailOption func(*failure)

// Times limits the failure to the first n matching requests.
func Times(n int) FailOption { return func(f *failure) { f.times = n } }

// BodyContains only fails requests whose body contains s.
func BodyContains(s string) FailOption { return func(f *failure) { f.contains = s } }

// FakeAPI is an in-memory catalog backend.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	categories []models.Category
	schemas    map[int64][]models.SpecificationDefinition
	values     map[int64][]models.SpecificationValue
	products   map[int64]models.Product
	images     map[int64][]models.ImageAttachment
	brands     []models.Brand
	orders     []models.Order
	uploads    map[string][]byte

	calls    []Call
	failures []*failure
	holds    []*hold
	nextID   int64
}

// NewFakeAPI starts a fake backend that is closed when t finishes.
func NewFakeAPI(t testing.TB) *FakeAPI {
	f := &FakeAPI{
		schemas:  map[int64][]models.SpecificationDefinition{},
		values:   map[int64][]models.SpecificationValue{},
		products: map[int64]models.Product{},
		images:   map[int64][]models.ImageAttachment{},
		uploads:  map[string][]byte{},
		nextID:   1000,
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(func() {
		f.releaseAll()
		f.Server.Close()
	})
	return f
}

// URL is the fake's base URL.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Client returns a RemoteClient pointed at the fake.
func (f *FakeAPI) Client(opts ...repositories.Option) *repositories.RemoteClient {
	opts = append([]repositories.Option{repositories.WithTimeout(5 * time.Second)}, opts...)
	return repositories.NewRemoteClient(f.URL(), opts...)
}

// ─── Seeding ──────────────────────────────────────────────────────────────────

// SetCategories replaces the category list.
func (f *FakeAPI) SetCategories(cats ...models.Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append([]models.Category(nil), cats...)
}

// SetSchema replaces the specification definitions of a category.
func (f *FakeAPI) SetSchema(categoryID int64, defs ...models.SpecificationDefinition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[categoryID] = append([]models.SpecificationDefinition(nil), defs...)
}

// SetValues replaces the recorded specification values of a product.
func (f *FakeAPI) SetValues(productID int64, vals ...models.SpecificationValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SpecificationValue, len(vals))
	for i, v := range vals {
		v.ProductID = productID
		out[i] = v
	}
	f.values[productID] = out
}

// AddProduct stores a product.
func (f *FakeAPI) AddProduct(p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

// AddImages stores gallery attachments.
func (f *FakeAPI) AddImages(imgs ...models.ImageAttachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, img := range imgs {
		f.images[img.ProductID] = append(f.images[img.ProductID], img)
	}
}

// SetBrands replaces the brand list.
func (f *FakeAPI) SetBrands(brands ...models.Brand) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brands = append([]models.Brand(nil), brands...)
}

// SetOrders replaces the order list.
func (f *FakeAPI) SetOrders(orders ...models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append([]models.Order(nil), orders...)
}

// ─── Inspection ───────────────────────────────────────────────────────────────

// Values returns the current specification values of a product.
func (f *FakeAPI) Values(productID int64) []models.SpecificationValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SpecificationValue(nil), f.values[productID]...)
}

// Product returns the stored product.
func (f *FakeAPI) Product(id int64) (models.Product, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	return p, ok
}

// Images returns the gallery of a product.
func (f *FakeAPI) Images(productID int64) []models.ImageAttachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ImageAttachment(nil), f.images[productID]...)
}

// Schema returns the definitions of a category.
func (f *FakeAPI) Schema(categoryID int64) []models.SpecificationDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SpecificationDefinition(nil), f.schemas[categoryID]...)
}

// Orders returns the stored orders.
func (f *FakeAPI) Orders() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...)
}

// Uploaded returns the bytes stored under a file URL.
func (f *FakeAPI) Uploaded(url string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.uploads[url]
	return b, ok
}

// Calls returns every recorded request in arrival order.
func (f *FakeAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded requests with the given method whose path
// starts with prefix.
func (f *FakeAPI) CallsTo(method, prefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Writes returns every recorded non-GET request.
func (f *FakeAPI) Writes() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded requests.
func (f *FakeAPI) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// ─── Fault injection ─────────────────────────────────────────────────────────

// Fail makes requests matching method and exact path answer with status.
func (f *FakeAPI) Fail(method, path string, status int, opts ...FailOption) {
	fl := &failure{method: method, path: path, status: status}
	for _, opt := range opts {
		opt(fl)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, fl)
}

// ClearFailures removes every injected failure.
func (f *FakeAPI) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = nil
}

// Hold blocks requests matching method and path until release is called.
// Held requests are released automatically when the test ends.
func (f *FakeAPI) Hold(method, path string) (release func()) {
	h := &hold{method: method, path: path, gate: make(chan struct{})}
	f.mu.Lock()
	f.holds = append(f.holds, h)
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			found := false
			for i, x := range f.holds {
				if x == h {
					f.holds = append(f.holds[:i], f.holds[i+1:]...)
					found = true
					break
				}
			}
			f.mu.Unlock()
			if found {
				close(h.gate)
			}
		})
	}
}

func (f *FakeAPI) releaseAll() {
	f.mu.Lock()
	holds := f.holds
	f.holds = nil
	f.mu.Unlock()
	for _, h := range holds {
		close(h.gate)
	}
}

// ─── Routing ─────────────────────────────────────────────────────────────────

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Get("/categories", f.listCategories)
	r.Get("/categories/values/{id}", f.categorySchema)
	r.Post("/categories/child/add", f.addCategory)
	r.Post("/specifications/add", f.addDefinition)

	r.Get("/p_specification/values/{pid}", f.listValues)
	r.Post("/p_specification", f.createValue)
	r.Put("/p_specification/{id}", f.updateValue)
	r.Delete("/p_specification/product/{pid}/{sid}", f.deleteValue)

	r.Post("/files", f.upload)

	r.Get("/products/{id}", f.getProduct)
	r.Post("/products/add", f.createProduct)
	r.Put("/products/{id}", f.updateProduct)
	r.Delete("/products/{id}", f.deleteProduct)

	r.Get("/images/product/{pid}", f.listImages)
	r.Post("/images/add", f.addImage)
	r.Delete("/images/{id}", f.deleteImage)

	r.Get("/brands", f.listBrands)
	r.Post("/brands/add", f.addBrand)

	r.Get("/orders", f.listOrders)
	r.Patch("/orders/{id}/payment", f.setPayment)
	r.Patch("/orders/{id}/status", f.setStatus)
	return r
}

// record stores the call, then applies holds and injected failures.
func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		f.mu.Lock()
		f.calls = append(f.calls, Call{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		var gate chan struct{}
		for _, h := range f.holds {
			if h.method == r.Method && h.path == r.URL.Path {
				gate = h.gate
				break
			}
		}
		f.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if status, ok := f.matchFailure(r.Method, r.URL.Path, body); ok {
			writeJSON(w, status, map[string]string{"message": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) matchFailure(method, path string, body []byte) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fl := range f.failures {
		if fl.method != method || fl.path != path {
			continue
		}
		if fl.contains != "" && !strings.Contains(string(body), fl.contains) {
			continue
		}
		if fl.times > 0 {
			fl.times--
			if fl.times == 0 {
				f.failures = append(f.failures[:i], f.failures[i+1:]...)
			}
		}
		return fl.status, true
	}
	return 0, false
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (f *FakeAPI) listCategories(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.categories))
}

func (f *FakeAPI) categorySchema(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(f.schemas[id]))
	for _, d := range f.schemas[id] {
		out = append(out, map[string]interface{}{"id": d.ID, "name": d.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) addCategory(w http.ResponseWriter, r *http.Request) {
	var in models.NewCategory
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := in.ParentCategoryID
	cat := models.Category{ID: f.id(), Name: in.Name, ParentCategoryID: &parent, IsActive: in.IsActive}
	f.categories = append(f.categories, cat)
	writeJSON(w, http.StatusCreated, cat)
}

func (f *FakeAPI) addDefinition(w http.ResponseWriter, r *http.Request) {
	var in models.NewSpecificationDefinition
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	def := models.SpecificationDefinition{ID: f.id(), Name: in.Name, CategoryID: in.CategoryID}
	f.schemas[in.CategoryID] = append(f.schemas[in.CategoryID], def)
	writeJSON(w, http.StatusCreated, def)
}

func (f *FakeAPI) listValues(w http.ResponseWriter, r *http.Request) {
	pid := idParam(r, "pid")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(f.values[pid]))
	for _, v := range f.values[pid] {
		out = append(out, map[string]interface{}{"id": v.ID, "name": v.Name, "value": v.Value})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) createValue(w http.ResponseWriter, r *http.Request) {
	var in models.NewSpecificationValue
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.definitionName(in.SpecificationID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "unknown specification"})
		return
	}
	v := models.SpecificationValue{ID: f.id(), ProductID: in.ProductID, Name: name, Value: in.Value}
	f.values[in.ProductID] = append(f.values[in.ProductID], v)
	writeJSON(w, http.StatusCreated, v)
}

func (f *FakeAPI) updateValue(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	var in models.SpecificationValueUpdate
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for pid, vals := range f.values {
		for i := range vals {
			if vals[i].ID == id {
				vals[i].Value = in.Value
				f.values[pid] = vals
				writeJSON(w, http.StatusOK, vals[i])
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "specification value not found"})
}

func (f *FakeAPI) deleteValue(w http.ResponseWriter, r *http.Request) {
	pid, sid := idParam(r, "pid"), idParam(r, "sid")
	f.mu.Lock()
	defer f.mu.Unlock()
	name, _ := f.definitionName(sid)
	vals := f.values[pid]
	for i, v := range vals {
		if v.Name == name {
			f.values[pid] = append(vals[:i], vals[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "specification value not found"})
}

func (f *FakeAPI) upload(w http.ResponseWriter, r *http.Request) {
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "file is required"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://files.test/%d-%s", f.id(), hdr.Filename)
	f.uploads[url] = data
	writeJSON(w, http.StatusOK, url)
}

func (f *FakeAPI) getProduct(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) createProduct(w http.ResponseWriter, r *http.Request) {
	var in models.NewProduct
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{
		ID:              f.id(),
		Name:            in.Name,
		CategoryID:      in.CategoryID,
		BrandID:         in.BrandID,
		ModelName:       in.ModelName,
		Price:           in.Price,
		Discount:        in.Discount,
		StockCount:      in.StockCount,
		SearchKeywords:  in.SearchKeywords,
		IsSuperOffer:    in.IsSuperOffer,
		IsNew:           in.IsNew,
		IsActive:        true,
		PrimaryImageURL: in.PrimaryImageURL,
	}
	f.products[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (f *FakeAPI) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	var patch models.ProductPatch
	if !decode(w, r, &patch) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
		return
	}
	p = patch.Apply(p)
	f.products[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
		return
	}
	delete(f.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) listImages(w http.ResponseWriter, r *http.Request) {
	pid := idParam(r, "pid")
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.images[pid]))
}

func (f *FakeAPI) addImage(w http.ResponseWriter, r *http.Request) {
	var in models.NewImageAttachment
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	img := models.ImageAttachment{ID: f.id(), ImageURL: in.ImageURL, ProductID: in.ProductID}
	f.images[in.ProductID] = append(f.images[in.ProductID], img)
	writeJSON(w, http.StatusCreated, img)
}

func (f *FakeAPI) deleteImage(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for pid, imgs := range f.images {
		for i, img := range imgs {
			if img.ID == id {
				f.images[pid] = append(imgs[:i], imgs[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "image not found"})
}

func (f *FakeAPI) listBrands(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.brands))
}

func (f *FakeAPI) addBrand(w http.ResponseWriter, r *http.Request) {
	var in models.NewBrand
	if !decode(w, r, &in) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b := models.Brand{ID: f.id(), Name: in.Name}
	f.brands = append(f.brands, b)
	writeJSON(w, http.StatusCreated, b)
}

func (f *FakeAPI) listOrders(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.orders))
}

func (f *FakeAPI) setPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PaymentStatus string `json:"payment_status"`
	}
	if !decode(w, r, &in) {
		return
	}
	f.updateOrder(w, idParam(r, "id"), func(o *models.Order) { o.PaymentStatus = in.PaymentStatus })
}

func (f *FakeAPI) setStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	f.updateOrder(w, idParam(r, "id"), func(o *models.Order) { o.Status = in.Status })
}

func (f *FakeAPI) updateOrder(w http.ResponseWriter, id int64, fn func(*models.Order)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			fn(&f.orders[i])
			writeJSON(w, http.StatusOK, f.orders[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "order not found"})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// id returns the next record id. Caller holds f.mu.
func (f *FakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

// definitionName looks a definition id up across every category. Caller
// holds f.mu.
func (f *FakeAPI) definitionName(id int64) (string, bool) {
	cats := make([]int64, 0, len(f.schemas))
	for c := range f.schemas {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		for _, d := range f.schemas[c] {
			if d.ID == id {
				return d.Name, true
			}
		}
	}
	return "", false
}

func idParam(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
