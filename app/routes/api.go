package routes

import (
	"github.com/shashiranjanraj/storeadmin/app/controllers"
	"github.com/shashiranjanraj/storeadmin/pkg/router"
)

// Controllers are the handlers RegisterAPI mounts.
type Controllers struct {
	Editor  *controllers.EditorController
	Catalog *controllers.CatalogController
	Orders  *controllers.OrderController
}

func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")

	editor := api.Group("/editor/{id}")
	editor.Post("/", "editor.open", c.Editor.Open)
	editor.Get("/", "editor.show", c.Editor.Show)
	editor.Delete("/", "editor.close", c.Editor.Close)
	editor.Patch("/fields", "editor.fields", c.Editor.EditFields)
	editor.Patch("/product", "editor.product", c.Editor.EditProduct)
	editor.Post("/submit", "editor.submit", c.Editor.Submit)
	editor.Delete("/values/{definition}", "editor.values.delete", c.Editor.DeleteValue)
	editor.Post("/images/{slot}", "editor.images.upload", c.Editor.Upload)
	editor.Post("/uploads/{key}/retry", "editor.uploads.retry", c.Editor.RetryUpload)
	editor.Delete("/gallery/{image}", "editor.gallery.delete", c.Editor.DeleteImage)
	editor.Get("/events", "editor.events", c.Editor.Events)
	editor.Get("/stream", "editor.stream", c.Editor.Stream)

	api.Get("/categories", "categories.index", c.Catalog.Categories)
	api.Post("/categories", "categories.store", c.Catalog.AddCategory)
	api.Get("/categories/{id}/schema", "categories.schema", c.Catalog.Schema)
	api.Post("/categories/{id}/specifications", "categories.specifications.store", c.Catalog.AddSpecification)

	api.Get("/brands", "brands.index", c.Catalog.Brands)
	api.Post("/brands", "brands.store", c.Catalog.AddBrand)

	api.Post("/products", "products.store", c.Catalog.CreateProduct)
	api.Get("/products/{id}", "products.show", c.Catalog.Product)
	api.Patch("/products/{id}", "products.update", c.Catalog.UpdateProduct)
	api.Delete("/products/{id}", "products.destroy", c.Catalog.DeleteProduct)

	api.Get("/orders", "orders.index", c.Orders.Index)
	api.Get("/orders/{id}", "orders.show", c.Orders.Show)
	api.Patch("/orders/{id}/payment", "orders.payment", c.Orders.MarkPaid)
	api.Patch("/orders/{id}/status", "orders.status", c.Orders.SetStatus)
}
