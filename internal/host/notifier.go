package host

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"

	notificationTimeout = 3000 // ms
)

// DesktopNotifier shows messages through the freedesktop notification
// service. A failed notification is logged.
type DesktopNotifier struct {
	conn    *dbus.Conn
	log     *logging.Logger
	appName string

	mu   sync.Mutex
	last uint32
}

// NewDesktopNotifier creates a notifier on conn, which is usually the
// session bus.
func NewDesktopNotifier(conn *dbus.Conn, appName string, logger *logging.Logger) *DesktopNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &DesktopNotifier{conn: conn, appName: appName, log: logger.WithComponent("notifier")}
}

// Notify shows message, replacing the previous notification.
func (n *DesktopNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	obj := n.conn.Object(notificationsService, notificationsPath)
	call := obj.Call(notificationsInterface+".Notify", 0,
		n.appName, n.last, "", n.appName, message,
		[]string{}, map[string]dbus.Variant{}, int32(notificationTimeout))
	if call.Err != nil {
		n.log.Warn("notification failed", "error", call.Err)
		return
	}
	var id uint32
	if err := call.Store(&id); err == nil {
		n.last = id
	}
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }
