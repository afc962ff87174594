// Package window owns the SDL2 window and its OpenGL 4.1 core context.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/config"
	"github.com/Faultbox/lilcraft/internal/logger"
)

func init() {
	// SDL and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Debug      bool // request a debug GL context
}

// ConfigFrom builds a window config from the graphics settings.
func ConfigFrom(title string, g config.GraphicsConfig) Config {
	return Config{
		Title:      title,
		Width:      g.Width,
		Height:     g.Height,
		Fullscreen: g.Fullscreen,
		VSync:      g.VSync,
	}
}

type glAttribute struct {
	attr  sdl.GLattr
	value int
	name  string
}

// glAttributes lists the context attributes set before the window exists.
func glAttributes(cfg Config) []glAttribute {
	attrs := []glAttribute{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 4, "major version"},
		{sdl.GL_CONTEXT_MINOR_VERSION, 1, "minor version"},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE, "core profile"},
		{sdl.GL_DOUBLEBUFFER, 1, "double buffer"},
		{sdl.GL_DEPTH_SIZE, 24, "depth size"},
	}
	if cfg.Debug {
		attrs = append(attrs, glAttribute{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_DEBUG_FLAG, "debug flag"})
	}
	return attrs
}

// Window is an SDL2 window with a current GL context.
type Window struct {
	config  Config
	handle  *sdl.Window
	context sdl.GLContext
}

// New initializes SDL, creates the window and makes a GL 4.1 core context
// current on it. Everything acquired so far is released on failure.
func New(cfg Config) (_ *Window, err error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("window: SDL_Init: %w", err)
	}
	w := &Window{config: cfg}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	for _, a := range glAttributes(cfg) {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			return nil, fmt.Errorf("window: set GL %s: %w", a.name, err)
		}
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	w.handle, err = sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		return nil, fmt.Errorf("window: SDL_CreateWindow: %w", err)
	}

	w.context, err = w.handle.GLCreateContext()
	if err != nil {
		return nil, fmt.Errorf("window: SDL_GL_CreateContext: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	dw, dh := w.DrawableSize()
	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("drawable_width", dw),
		zap.Int("drawable_height", dh),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
		zap.Bool("debug_context", cfg.Debug),
	)
	return w, nil
}

// Close deletes the context, destroys the window and shuts SDL down.
func (w *Window) Close() {
	if w.context != nil {
		sdl.GLDeleteContext(w.context)
		w.context = nil
	}
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}

// SwapBuffers presents the back buffer.
func (w *Window) SwapBuffers() {
	w.handle.GLSwap()
}

// GetSize returns the window size in screen coordinates, the space mouse
// events are reported in.
func (w *Window) GetSize() (int, int) {
	width, height := w.handle.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the size of the GL drawable in pixels, which differs
// from GetSize on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.handle.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.handle.SetTitle(title)
}
