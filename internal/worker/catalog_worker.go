package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
)

// CatalogReloadWorker periodically re-reads the product category file so
// edits take effect without a restart.
type CatalogReloadWorker struct {
	loader   *catalog.Loader
	interval time.Duration
}

// NewCatalogReloadWorker constructs a CatalogReloadWorker.
func NewCatalogReloadWorker(loader *catalog.Loader, interval time.Duration) *CatalogReloadWorker {
	return &CatalogReloadWorker{
		loader:   loader,
		interval: interval,
	}
}

// Start runs the reload loop until ctx is cancelled.
func (w *CatalogReloadWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Str("path", w.loader.Path()).Msg("Starting catalog reload worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Catalog reload worker stopped")
			return
		}
	}
}

func (w *CatalogReloadWorker) run() {
	c, err := w.loader.Reload()
	if err != nil {
		// Keep serving the last good catalog.
		log.Error().Err(err).Str("path", w.loader.Path()).Msg("Failed to reload category catalog")
		return
	}
	log.Debug().Int("categories", c.Len()).Msg("Category catalog reloaded")
}
