package app

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/storeadmin/app/controllers"
	"github.com/shashiranjanraj/storeadmin/app/routes"
	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
	"github.com/shashiranjanraj/storeadmin/pkg/middleware"
	"github.com/shashiranjanraj/storeadmin/pkg/reqid"
	"github.com/shashiranjanraj/storeadmin/pkg/response"
	"github.com/shashiranjanraj/storeadmin/pkg/router"
)

// Router builds the dashboard API router. shutdown closes the editor event
// streams.
func (a *Application) Router() (r *router.Router, shutdown func()) {
	r = router.New()

	// Outermost first: metrics see total latency, recovery guards the rest,
	// the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(config.RateLimitPerMinute(), time.Minute))

	r.HandleFunc("/metrics", metrics.Handler())
	r.Get("/healthz", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})

	editor := controllers.NewEditorController(a.Sessions)
	routes.RegisterAPI(r, routes.Controllers{
		Editor:  editor,
		Catalog: controllers.NewCatalogController(a.Catalog),
		Orders:  controllers.NewOrderController(a.Orders),
	})
	return r, editor.Shutdown
}
