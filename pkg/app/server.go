package app

import (
	"context"

	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/internal/server"
)

// Serve runs the dashboard API on APP_PORT until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	r, shutdown := a.Router()
	defer shutdown()
	return server.Start(ctx, ":"+config.AppPort(), r.Handler(), shutdown)
}
