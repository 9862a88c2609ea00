//go:build !linux

package macro

import "errors"

// stubInjector is used on platforms without an injection implementation.
type stubInjector struct{}

func newPlatformInjector() Injector {
	return stubInjector{}
}

var errNotImplemented = errors.New("keyboard injection not implemented on this platform")

func (stubInjector) KeyDown(string) error { return errNotImplemented }
func (stubInjector) KeyUp(string) error   { return errNotImplemented }
func (stubInjector) Close() error         { return nil }
