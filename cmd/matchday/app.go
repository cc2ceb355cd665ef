package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/agent"
	"github.com/ShayCichocki/matchday/internal/capability"
	"github.com/ShayCichocki/matchday/internal/complexity"
	"github.com/ShayCichocki/matchday/internal/config"
	"github.com/ShayCichocki/matchday/internal/decompose"
	"github.com/ShayCichocki/matchday/internal/intent"
	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/internal/orchestrator"
	"github.com/ShayCichocki/matchday/internal/pipeline"
	"github.com/ShayCichocki/matchday/internal/router"
	"github.com/ShayCichocki/matchday/internal/store"
	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/internal/validation"
)

// app is the wired pipeline plus everything that must be closed with it.
type app struct {
	pipeline *pipeline.Pipeline
	db       *store.DB
	watcher  *validation.Watcher
	log      zerolog.Logger
}

func (a *app) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func cliLogger() zerolog.Logger {
	return logging.Component("cli")
}

// newCompleter builds the configured model backend. A backend that cannot
// be configured becomes llm.Unavailable so rule-only requests keep working.
func newCompleter(c *config.Config, log zerolog.Logger) llm.Completer {
	completer, err := llm.New(c.LLMBackend())
	if err != nil {
		log.Warn().Err(err).Str("provider", c.LLM.Provider).Msg("model_backend_unavailable")
		return llm.Unavailable{Reason: err.Error()}
	}
	return completer
}

func openStore(c *config.Config) (*store.DB, error) {
	db, err := store.OpenWithDriver(c.Store.Driver, c.Paths.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// newApp wires config -> store -> tools -> agents -> validator -> orchestrator -> pipeline.
func newApp(c *config.Config, completer llm.Completer) (*app, error) {
	log := cliLogger()
	a := &app{log: log}

	db, err := openStore(c)
	if err != nil {
		return nil, err
	}
	a.db = db

	matrix, err := capability.Load(c.Paths.Matrix)
	if err != nil {
		a.Close()
		return nil, err
	}

	catalog, err := tools.DefaultCatalog(db)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build tool catalog: %w", err)
	}

	registry, err := agent.DefaultRegistry(completer)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build agent registry: %w", err)
	}

	shapes, err := validation.LoadConfig(c.Paths.Shapes)
	if err != nil {
		a.Close()
		return nil, err
	}
	validator := validation.New(shapes)
	if c.Paths.Shapes != "" {
		w, err := validation.Watch(c.Paths.Shapes, validator, validation.WithReloadHook(func(_ validation.Config, err error) {
			if err != nil {
				log.Warn().Err(err).Str("path", c.Paths.Shapes).Msg("shapes_reload_failed")
			}
		}))
		if err != nil {
			log.Warn().Err(err).Str("path", c.Paths.Shapes).Msg("shapes_watch_disabled")
		} else {
			a.watcher = w
		}
	}

	orch := orchestrator.New(registry, catalog, validator,
		orchestrator.WithRetryPolicy(c.RetryPolicy()),
	)

	p, err := pipeline.New(pipeline.RequiredConfig{
		Classifier:   intent.New(completer, intent.WithTimeout(c.Pipeline.ClassifierTimeout)),
		Assessor:     complexity.New(nil),
		Decomposer:   decompose.New(completer, decompose.WithMaxSubtasks(c.Pipeline.MaxSubtasks)),
		Router:       router.New(matrix),
		Agents:       registry,
		Orchestrator: orch,
	},
		pipeline.WithRegistrationSource(db),
		pipeline.WithRecorder(db),
		pipeline.WithRequestTimeout(c.Pipeline.RequestTimeout),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pipeline = p

	log.Debug().
		Str("provider", c.LLM.Provider).
		Str("database", db.Path()).
		Str("driver", db.Driver()).
		Int("agents", registry.Len()).
		Int("tools", len(catalog.Names())).
		Msg("app_ready")
	return a, nil
}
