package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// ErrNotConnected is returned by Show before permission was granted.
var ErrNotConnected = errors.New("notification bus not connected")

// DBus talks to the freedesktop notification daemon on the session bus. It
// is both the PermissionSource and the SystemNotifier: permission is granted
// once the daemon answers.
type DBus struct {
	mu      sync.Mutex
	appName string
	connect func(...dbus.ConnOption) (*dbus.Conn, error)
	conn    *dbus.Conn
	state   Permission
	ids     map[string]uint32
}

func NewDBus(appName string) *DBus {
	return &DBus{
		appName: appName,
		connect: dbus.ConnectSessionBus,
		state:   PermissionDefault,
		ids:     make(map[string]uint32),
	}
}

func (n *DBus) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *DBus) RequestPermission() (Permission, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != PermissionDefault {
		return n.state, nil
	}

	conn, err := n.connect()
	if err != nil {
		n.state = PermissionUnsupported
		return n.state, fmt.Errorf("connect session bus: %w", err)
	}

	obj := conn.Object(notificationsService, notificationsPath)
	var name, vendor, version, specVersion string
	call := obj.Call(notificationsService+".GetServerInformation", 0)
	if err := call.Store(&name, &vendor, &version, &specVersion); err != nil {
		conn.Close()
		n.state = PermissionUnsupported
		return n.state, fmt.Errorf("query notification server: %w", err)
	}

	n.conn = conn
	n.state = PermissionGranted
	return n.state, nil
}

// Show sends a notification. The id of the last notification per tag is
// passed as replaces_id so a tag never stacks.
func (n *DBus) Show(title, body, tag string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return ErrNotConnected
	}

	obj := n.conn.Object(notificationsService, notificationsPath)
	hints := map[string]dbus.Variant{
		"category": dbus.MakeVariant("x-dailystretch." + tag),
	}
	call := obj.Call(notificationsService+".Notify", 0,
		n.appName, n.ids[tag], "", title, body, []string{}, hints, int32(-1),
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	n.ids[tag] = id
	return nil
}

func (n *DBus) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
