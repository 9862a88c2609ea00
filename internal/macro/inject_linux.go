//go:build linux

package macro

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl requests and event constants (linux/uinput.h).
const (
	uiSetEvBit  = 0x40045564
	uiSetKeyBit = 0x40045565
	uiDevSetup  = 0x405c5503
	uiDevCreate = 0x5501
	uiDevDestroy = 0x5502

	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0

	busUSB = 0x03
)

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	Name         [80]byte
	FFEffectsMax uint32
}

// uinputInjector feeds key events through /dev/uinput. Requires write
// access to the device (uinput group or root).
type uinputInjector struct {
	mu   sync.Mutex
	f    *os.File
	once sync.Once
	err  error
}

func newPlatformInjector() Injector {
	return &uinputInjector{}
}

// setup lazily creates the virtual keyboard device.
func (u *uinputInjector) setup() error {
	u.once.Do(func() {
		f, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0)
		if err != nil {
			u.err = fmt.Errorf("open /dev/uinput: %w", err)
			return
		}

		fd := int(f.Fd())
		if err := unix.IoctlSetInt(fd, uiSetEvBit, evKey); err != nil {
			f.Close()
			u.err = fmt.Errorf("enable key events: %w", err)
			return
		}
		for _, code := range keyTokenCodes {
			if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
				f.Close()
				u.err = fmt.Errorf("enable key code %d: %w", code, err)
				return
			}
		}

		var setup uinputSetup
		setup.ID.Bustype = busUSB
		setup.ID.Vendor = 0x1
		setup.ID.Product = 0x1
		copy(setup.Name[:], "askd virtual keyboard")
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&setup))); errno != 0 {
			f.Close()
			u.err = fmt.Errorf("device setup: %w", errno)
			return
		}
		if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
			f.Close()
			u.err = fmt.Errorf("create device: %w", err)
			return
		}

		// Give the compositor a moment to pick up the new device.
		time.Sleep(200 * time.Millisecond)
		u.f = f
	})
	return u.err
}

func (u *uinputInjector) KeyDown(token string) error {
	return u.emitKey(token, 1)
}

func (u *uinputInjector) KeyUp(token string) error {
	return u.emitKey(token, 0)
}

func (u *uinputInjector) emitKey(token string, value int32) error {
	if err := u.setup(); err != nil {
		return err
	}
	code, ok := keyTokenCodes[token]
	if !ok {
		return fmt.Errorf("no key code for token %q", token)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writeEvent(evKey, code, value); err != nil {
		return err
	}
	return u.writeEvent(evSyn, synReport, 0)
}

// writeEvent emits one struct input_event.
func (u *uinputInjector) writeEvent(typ, code uint16, value int32) error {
	var tv unix.Timeval
	buf := make([]byte, int(unsafe.Sizeof(tv))+8)
	off := int(unsafe.Sizeof(tv)) // kernel fills the timestamp
	binary.LittleEndian.PutUint16(buf[off:], typ)
	binary.LittleEndian.PutUint16(buf[off+2:], code)
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(value))
	if _, err := u.f.Write(buf); err != nil {
		return fmt.Errorf("write input event: %w", err)
	}
	return nil
}

// Close destroys the virtual device.
func (u *uinputInjector) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f == nil {
		return nil
	}
	fd := int(u.f.Fd())
	_ = unix.IoctlSetInt(fd, uiDevDestroy, 0)
	err := u.f.Close()
	u.f = nil
	return err
}

// keyTokenCodes maps canonical chord tokens to evdev key codes
// (left-hand variants for modifiers).
var keyTokenCodes = map[string]uint16{
	"esc": 1,
	"1":   2, "2": 3, "3": 4, "4": 5, "5": 6,
	"6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"-": 12, "=": 13,
	"backspace": 14,
	"tab":       15,
	"q":         16, "w": 17, "e": 18, "r": 19, "t": 20,
	"y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"[": 26, "]": 27,
	"enter": 28,
	"ctrl":  29,
	"a":     30, "s": 31, "d": 32, "f": 33, "g": 34,
	"h": 35, "j": 36, "k": 37, "l": 38,
	";": 39, "'": 40, "`": 41,
	"shift": 42,
	"\\":    43,
	"z":     44, "x": 45, "c": 46, "v": 47, "b": 48,
	"n": 49, "m": 50,
	",": 51, ".": 52, "/": 53,
	"alt":   56,
	"space": 57,
	"f1":    59, "f2": 60, "f3": 61, "f4": 62, "f5": 63,
	"f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
	"home": 102, "up": 103, "pageup": 104,
	"left": 105, "right": 106,
	"end": 107, "down": 108, "pagedown": 109,
	"insert": 110, "delete": 111,
	"cmd": 125,
}
