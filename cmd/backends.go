package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/serp"
)

// buildBackends instantiates the configured search backends. Each job gets
// its own set so a browser crash never bleeds across jobs.
func buildBackends(cfg config.SearchConfig) ([]serp.Backend, error) {
	var backends []serp.Backend
	for _, name := range cfg.Backends {
		switch name {
		case "bing":
			backends = append(backends, serp.NewHTTPBackend())
		case "google":
			backends = append(backends, serp.NewBrowserBackend(cfg.Headless))
		default:
			for _, b := range backends {
				b.Close()
			}
			return nil, eris.Errorf("unknown search backend %q", name)
		}
	}
	if len(backends) == 0 {
		return nil, eris.New("no search backends configured")
	}
	return backends, nil
}
