// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDestination = "org.freedesktop.Notifications"
	dbusPath        = "/org/freedesktop/Notifications"
	dbusMethod      = "org.freedesktop.Notifications.Notify"

	AppName = "geomarker"
)

// caller is the part of a dbus.BusObject the notifier uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBus sends desktop notifications through the freedesktop notification service on the
// session bus. Every notification replaces the previous one.
type DBus struct {
	conn      *dbus.Conn
	obj       caller
	mu        sync.Mutex
	replaceID uint32
}

// NewDBus connects to the session bus.
func NewDBus() (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBus{conn: conn, obj: conn.Object(dbusDestination, dbusPath)}, nil
}

func (n *DBus) Show(ctx context.Context, text string, d Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	timeout := int32(d.Time().Milliseconds())
	call := n.obj.CallWithContext(ctx, dbusMethod, 0, AppName, n.replaceID, "", AppName, text,
		[]string{}, map[string]dbus.Variant{"transient": dbus.MakeVariant(true)}, timeout)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	n.replaceID = id
	return nil
}

// Close closes the session bus connection.
func (n *DBus) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
