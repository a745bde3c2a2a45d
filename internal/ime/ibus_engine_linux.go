//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// ErrNoIBus is returned when the IBus daemon address cannot be found.
var ErrNoIBus = errors.New("ime: ibus-daemon is not running")

// Address returns the D-Bus address of the IBus daemon: $IBUS_ADDRESS, or
// what "ibus address" reports.
func Address() (string, error) {
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return addr, nil
	}
	out, err := exec.Command("ibus", "address").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIBus, err)
	}
	addr := strings.TrimSpace(string(out))
	if addr == "" || addr == "(null)" {
		return "", ErrNoIBus
	}
	return addr, nil
}

// Service is an engine process connected to the IBus daemon.
type Service struct {
	conn    *dbus.Conn
	factory *Factory
	log     *logging.Logger
}

// Connect connects to the IBus daemon. cfg.Bus is set to the connection.
func Connect(cfg FactoryConfig) (*Service, error) {
	addr, err := Address()
	if err != nil {
		return nil, err
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to ibus at %s: %w", addr, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	cfg.Bus = conn
	return &Service{
		conn:    conn,
		factory: NewFactory(cfg),
		log:     cfg.Logger.WithComponent("ime"),
	}, nil
}

// Start exports the factory and requests the engine bus name, after which
// IBus starts creating engines.
func (s *Service) Start() error {
	if err := s.conn.Export(s.factory, FactoryPath, FactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	reply, err := s.conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.log.Info("ibus engine started", "name", BusName)
	return nil
}

// Factory returns the engine factory.
func (s *Service) Factory() *Factory { return s.factory }

// Wait blocks until ctx is done or the daemon closes the connection.
func (s *Service) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.conn.Context().Done():
		return fmt.Errorf("ibus connection closed: %w", context.Cause(s.conn.Context()))
	}
}

// Close destroys every engine and disconnects.
func (s *Service) Close() error {
	s.factory.Close()
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.log.Debug("release bus name failed", "error", err)
	}
	return s.conn.Close()
}
