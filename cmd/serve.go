package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/enrich"
	"github.com/sells-group/lead-engine/internal/job"
	"github.com/sells-group/lead-engine/internal/jobstore"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/serp"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		mgr := &jobManager{
			cfg:         cfg,
			live:        make(map[string]*job.Controller),
			store:       store,
			ctx:         ctx,
			newBackends: buildBackends,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mgr.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func openStore(cfg config.StoreConfig) (jobstore.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return jobstore.NewMemory(), nil
	case "sqlite":
		return jobstore.NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// jobManager tracks running controllers and mirrors their snapshots into
// the store.
type jobManager struct {
	cfg         *config.Config
	mu          sync.Mutex
	live        map[string]*job.Controller
	store       jobstore.Store
	ctx         context.Context
	newBackends func(config.SearchConfig) ([]serp.Backend, error)
}

func (m *jobManager) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", m.handleStart)
		r.Get("/", m.handleList)
		r.Get("/{id}", m.handleState)
		r.Get("/{id}/leads", m.handleLeads)
		r.Post("/{id}/stop", m.handleStop)
	})
	return r
}

func (m *jobManager) handleStart(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	backends, err := m.newBackends(m.cfg.Search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Progress updates arrive serialized, so a plain captured variable is
	// safe in the hook.
	id := uuid.NewString()
	lastPct := -1
	controller, err := job.New(job.Config{
		ID:       id,
		Request:  req,
		Backends: backends,
		MaxPages: m.cfg.Search.MaxPages,
		Enrich: enrich.Config{
			Workers:           m.cfg.Enrich.Workers,
			PerRequestTimeout: m.cfg.Enrich.RequestTimeout(),
		},
		OnProgress: func(message string, pct int) {
			if pct < 0 || pct == lastPct {
				return
			}
			lastPct = pct
			m.persistByID(id)
		},
	})
	if err != nil {
		for _, b := range backends {
			b.Close()
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	m.live[controller.ID()] = controller
	m.mu.Unlock()
	m.persist(controller)

	go func() {
		controller.Run(m.ctx)
		m.persist(controller)
		m.mu.Lock()
		delete(m.live, controller.ID())
		m.mu.Unlock()
		if err := m.store.PruneFinished(m.cfg.Store.MaxFinished); err != nil {
			zap.L().Warn("prune failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     controller.ID(),
		"status": string(model.StatusRunning),
	})
}

func (m *jobManager) persist(c *job.Controller) {
	state := c.State()
	if err := m.store.Put(&state); err != nil {
		zap.L().Warn("snapshot write failed", zap.String("job", c.ID()), zap.Error(err))
	}
}

func (m *jobManager) persistByID(id string) {
	m.mu.Lock()
	c, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		m.persist(c)
	}
}

// lookup returns the current state for a job, live or stored.
func (m *jobManager) lookup(id string) (*model.JobState, bool) {
	m.mu.Lock()
	c, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		state := c.State()
		return &state, true
	}
	return m.store.Get(id)
}

func (m *jobManager) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.store.List())
}

func (m *jobManager) handleState(w http.ResponseWriter, r *http.Request) {
	state, ok := m.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (m *jobManager) handleLeads(w http.ResponseWriter, r *http.Request) {
	state, ok := m.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     state.ID,
		"status": state.Status,
		"count":  len(state.Leads),
		"leads":  state.Leads,
	})
}

func (m *jobManager) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.mu.Lock()
	c, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		state, found := m.store.Get(id)
		if !found {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, state)
		return
	}
	c.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "stopping"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
