package ime

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	Bus        Bus
	NewSession SessionFactory
	Beeper     Beeper
	Logger     *logging.Logger
	Crash      *logging.CrashHandler
}

// Factory implements the IBus Factory D-Bus interface.
type Factory struct {
	cfg FactoryConfig
	log *logging.Logger

	mu      sync.Mutex
	next    uint32
	engines map[dbus.ObjectPath]*Engine
}

// NewFactory creates a Factory.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Factory{
		cfg:     cfg,
		log:     cfg.Logger.WithComponent("ime"),
		engines: make(map[dbus.ObjectPath]*Engine),
	}
}

// CreateEngine creates a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	if engineName != EngineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	f.mu.Lock()
	f.next++
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/IBus/Engine/%d", f.next))
	f.mu.Unlock()

	e, err := NewEngine(EngineConfig{
		Bus:        f.cfg.Bus,
		Path:       path,
		NewSession: f.cfg.NewSession,
		Beeper:     f.cfg.Beeper,
		Logger:     f.cfg.Logger,
		Crash:      f.cfg.Crash,
		OnDestroy:  f.remove,
	})
	if err != nil {
		f.log.Error("create engine failed", "path", path, "error", err)
		return "", dbus.MakeFailedError(err)
	}

	f.mu.Lock()
	f.engines[path] = e
	f.mu.Unlock()

	f.log.Info("engine created", "path", path)
	return path, nil
}

func (f *Factory) remove(e *Engine) {
	f.mu.Lock()
	delete(f.engines, e.Path())
	f.mu.Unlock()
}

func (f *Factory) snapshot() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	engines := make([]*Engine, 0, len(f.engines))
	for _, e := range f.engines {
		engines = append(engines, e)
	}
	return engines
}

// Len returns the number of live engines.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

// SyncSettings makes every engine re-read its settings.
func (f *Factory) SyncSettings() {
	for _, e := range f.snapshot() {
		e.SyncSettings()
	}
}

// Close destroys every engine.
func (f *Factory) Close() {
	for _, e := range f.snapshot() {
		e.Destroy()
	}
}
