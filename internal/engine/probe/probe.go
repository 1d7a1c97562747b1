// Package probe checks whether the OpenGL backend can run on this machine.
package probe

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/engine/window"
)

// Func is a capability probe. It returns nil when the capability is present.
type Func func() error

// Check runs fn and reports whether it succeeded. Errors and panics are
// logged and reported as false.
func Check(fn Func, log *zap.Logger) (ok bool) {
	if log == nil {
		log = zap.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("capability probe panicked", zap.Any("panic", r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		log.Warn("capability unavailable", zap.Error(err))
		return false
	}
	return true
}

// OpenGL creates a hidden window with a 4.1 core context, loads the GL
// function pointers and tears everything down again. The SDL video subsystem
// must be initialized.
func OpenGL() error {
	if sdl.WasInit(sdl.INIT_VIDEO) == 0 {
		return errors.New("SDL video subsystem not initialized")
	}

	win, err := window.New(window.Config{Title: "probe", Width: 1, Height: 1, Hidden: true}, nil)
	if err != nil {
		return fmt.Errorf("creating GL context: %w", err)
	}
	defer win.Close()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("loading GL functions: %w", err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 1) {
		return fmt.Errorf("OpenGL %d.%d is older than 4.1", major, minor)
	}
	return nil
}

// Supported reports whether the OpenGL backend is usable.
func Supported(log *zap.Logger) bool {
	return Check(OpenGL, log)
}
