package main

import (
	"errors"
	"fmt"
	"io"

	"interpinfo/internal/adapter/cookie"
	"interpinfo/internal/adapter/logger"
	"interpinfo/internal/adapter/metrics"
	"interpinfo/internal/adapter/platform"
	"interpinfo/internal/adapter/runner"
	"interpinfo/internal/adapter/script"
	"interpinfo/internal/adapter/store"
	"interpinfo/internal/app"
	"interpinfo/internal/config"
	"interpinfo/internal/domain"
)

// loadConfig resolves the config file path and the effective configuration.
func loadConfig(g *globalFlags) (config.Config, string, *platform.Platform, error) {
	plat, err := platform.New()
	if err != nil {
		return config.Config{}, "", nil, err
	}
	path := g.configPath
	if path == "" {
		path = plat.UserConfigPath()
	}
	cfg, err := config.Load(config.LoadOptions{ConfigPath: path, FlagOverrides: g.overrides()})
	if err != nil {
		return config.Config{}, "", nil, err
	}
	return cfg, path, plat, nil
}

// session holds the wired service for one command invocation.
type session struct {
	cfg     config.Config
	appData string
	log     *logger.Charm
	svc     *app.Service
	prom    *metrics.Prometheus
	closers []func() error
}

func openSession(g *globalFlags, stdout, stderr io.Writer) (*session, error) {
	cfg, _, plat, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		appData: plat.ResolveAppDataDir(cfg.Cache.AppData),
		log:     logger.NewCharm(stderr, cfg.Log.Level),
	}

	var st domain.InfoStore
	scriptDir := plat.ScriptDir(s.appData)
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		sq, err := store.OpenSQLite(s.appData)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, sq.Close)
		st = sq
	case config.BackendDisabled:
		st = store.Disabled{}
		// Nothing is persisted, so the script goes to a throwaway directory.
		scriptDir = ""
	default:
		st = store.NewFileStore(s.appData)
	}

	var rec domain.Recorder = metrics.Nop{}
	if cfg.Metrics.Textfile != "" {
		s.prom = metrics.NewPrometheus("interpinfo")
		rec = s.prom
	}

	prober := runner.NewProcessRunner(
		script.NewBootstrap(scriptDir, s.log),
		cookie.NewRandomGenerator(),
		stdout,
		s.log,
	)
	s.svc = app.NewService(app.NewMemoryCache(domain.CurrentProcess()), st, prober, rec, s.log)

	s.log.Debug("session ready", "app_data", s.appData, "backend", cfg.Cache.Backend)
	return s, nil
}

// close flushes metrics and releases the store.
func (s *session) close() error {
	var errs []error
	if s.prom != nil {
		if err := s.prom.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(g *globalFlags, stdout, stderr io.Writer, fn func(*session) error) (err error) {
	s, err := openSession(g, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
