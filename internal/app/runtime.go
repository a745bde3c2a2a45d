package app

import (
	"fmt"

	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// Runtime is what every binary starts with: the loaded configuration, the
// logger it describes and a crash handler.
type Runtime struct {
	Loader *config.Loader
	Config *config.Config
	Logger *logging.Logger
	Crash  *logging.CrashHandler
}

// Boot loads the configuration at configPath, or the first one found when
// it is empty, and sets up logging for component. The logger becomes the
// default logger.
func Boot(configPath, component, version string) (*Runtime, error) {
	loader := config.NewLoader(configPath, logging.Default())
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", loader.Path(), err)
	}

	logCfg, err := cfg.LoggerConfig(component)
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	logging.SetDefault(logger)

	crash := logging.NewCrashHandler(logging.CrashHandlerConfig{
		Dir:       logging.DefaultCrashDir(),
		Version:   version,
		Component: component,
		Logger:    logger,
	})
	return &Runtime{Loader: loader, Config: cfg, Logger: logger, Crash: crash}, nil
}

// Close stops watching the configuration and closes the log.
func (r *Runtime) Close() error {
	err := r.Loader.Close()
	if lerr := r.Logger.Close(); err == nil {
		err = lerr
	}
	return err
}
