package confirm

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// DesktopNotifier posts banners through the freedesktop notification
// service on the session bus. On systems without a session bus every
// call fails with an error the gate logs and ignores.
type DesktopNotifier struct {
	appName string
}

// NewDesktopNotifier creates a notifier identifying as appName.
func NewDesktopNotifier(appName string) *DesktopNotifier {
	return &DesktopNotifier{appName: appName}
}

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(summary, body string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		n.appName,
		uint32(0), // no notification to replace
		"",        // default icon
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
		int32(10000), // ms
	)
	if call.Err != nil {
		return fmt.Errorf("post notification: %w", call.Err)
	}
	return nil
}
