//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000

	wmHotkey = 0x0312
	wmQuit   = 0x0012
)

type msg struct {
	HWND   uintptr
	UINT   uintptr
	WPARAM uintptr
	LPARAM uintptr
	DWORD  uintptr
	POINT  struct{ X, Y int32 }
}

// registerHooks installs RegisterHotKey bindings on a locked OS thread
// and pumps the message loop until the returned stop func is called.
func registerHooks(bindings map[Action]Chord, emit func(Action)) (func(), error) {
	user32 := syscall.NewLazyDLL("user32.dll")
	procRegisterHotKey := user32.NewProc("RegisterHotKey")
	procUnregisterHotKey := user32.NewProc("UnregisterHotKey")
	procGetMessageW := user32.NewProc("GetMessageW")
	procPostThreadMessageW := user32.NewProc("PostThreadMessageW")
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	procGetCurrentThreadId := kernel32.NewProc("GetCurrentThreadId")

	type registration struct {
		id     int
		action Action
		mod    uintptr
		vk     uintptr
	}

	regs := make([]registration, 0, len(bindings))
	nextID := 1
	for _, action := range Actions() {
		chord, ok := bindings[action]
		if !ok {
			continue
		}
		vk, err := virtualKey(chord.Key)
		if err != nil {
			return nil, fmt.Errorf("binding for %s: %w", action, err)
		}
		regs = append(regs, registration{
			id:     nextID,
			action: action,
			mod:    modifiers(chord),
			vk:     vk,
		})
		nextID++
	}

	ready := make(chan error, 1)
	threadID := make(chan uintptr, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tid, _, _ := procGetCurrentThreadId.Call()
		threadID <- tid

		for i, reg := range regs {
			r, _, _ := procRegisterHotKey.Call(0, uintptr(reg.id), reg.mod, reg.vk)
			if r == 0 {
				for _, done := range regs[:i] {
					procUnregisterHotKey.Call(0, uintptr(done.id))
				}
				ready <- fmt.Errorf("RegisterHotKey failed for %s", reg.action)
				return
			}
		}
		ready <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				break
			}
			if m.UINT == wmHotkey {
				for _, reg := range regs {
					if uintptr(reg.id) == m.WPARAM {
						emit(reg.action)
						break
					}
				}
			}
		}

		for _, reg := range regs {
			procUnregisterHotKey.Call(0, uintptr(reg.id))
		}
	}()

	tid := <-threadID
	if err := <-ready; err != nil {
		return nil, err
	}

	stop := func() {
		procPostThreadMessageW.Call(tid, wmQuit, 0, 0)
	}
	return stop, nil
}

func modifiers(chord Chord) uintptr {
	mod := uintptr(modNoRepeat)
	if chord.Ctrl {
		mod |= modControl
	}
	if chord.Shift {
		mod |= modShift
	}
	if chord.Alt {
		mod |= modAlt
	}
	if chord.Super {
		mod |= modWin
	}
	return mod
}

func virtualKey(key string) (uintptr, error) {
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uintptr(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uintptr(c), nil
		}
	}

	named := map[string]uintptr{
		"space":     0x20,
		"esc":       0x1B,
		"escape":    0x1B,
		"enter":     0x0D,
		"return":    0x0D,
		"tab":       0x09,
		"backspace": 0x08,
		"delete":    0x2E,
		"insert":    0x2D,
		"home":      0x24,
		"end":       0x23,
		"pageup":    0x21,
		"pagedown":  0x22,
		"up":        0x26,
		"down":      0x28,
		"left":      0x25,
		"right":     0x27,
	}
	if vk, ok := named[key]; ok {
		return vk, nil
	}
	if len(key) >= 2 && key[0] == 'f' {
		n := 0
		for _, c := range key[1:] {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 24 {
			return uintptr(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("unsupported key %q", key)
}
