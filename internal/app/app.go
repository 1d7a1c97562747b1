// Package app drives the trek scene from an SDL event loop.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/assets"
	"github.com/Faultbox/trekscape/internal/config"
	"github.com/Faultbox/trekscape/internal/engine/fallback"
	"github.com/Faultbox/trekscape/internal/engine/input"
	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/engine/probe"
	"github.com/Faultbox/trekscape/internal/engine/renderer"
	"github.com/Faultbox/trekscape/internal/engine/scene"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/internal/engine/window"
	"github.com/Faultbox/trekscape/internal/trek"
)

// Title is the window title prefix.
const Title = "Trekscape"

// idleWait bounds how long the loop sleeps for events when nothing animates.
const idleWait = 250 * time.Millisecond

// Options configure an App.
type Options struct {
	Config *config.Config
	Trek   *trek.Trek
	Logger *zap.Logger
	// OnMarkerActivate receives marker activations. May be nil.
	OnMarkerActivate func(marker.Activation)
}

// App owns the SDL lifecycle and the scene it drives.
type App struct {
	cfg  *config.Config
	trek *trek.Trek
	log  *zap.Logger

	running  bool
	title    string
	input    *input.Input
	assets   *assets.Manager
	fallback *fallback.Presenter
	window   *window.Window
	scene    *scene.Manager

	pointer gesture
	stats   *FrameStats
}

// New initializes SDL video and assembles the scene. Nothing is probed or
// opened until Run.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := opts.Config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %w", err)
	}

	a := &App{
		cfg:   cfg,
		trek:  opts.Trek,
		log:   opts.Logger,
		title: Title,
		input: input.New(),
		stats: NewFrameStats(),
	}
	if opts.Trek != nil && opts.Trek.Name != "" {
		a.title = fmt.Sprintf("%s: %s", Title, opts.Trek.Name)
	}

	a.assets = assets.NewManager(&http.Client{Timeout: cfg.Terrain.LoadTimeout}, a.log.Named("assets"))
	a.fallback = fallback.NewPresenter(a.title, cfg.Graphics.Width, cfg.Graphics.Height, a.log.Named("fallback"))

	a.scene = scene.New(scene.Options{
		Config: cfg.Scene(),
		Trek:   opts.Trek,
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
		Probe: func() bool {
			return probe.Supported(a.log.Named("probe"))
		},
		NewBackend:       a.newBackend,
		TerrainLoader:    terrain.NewLoader(cfg.Terrain, a.assets),
		Fallback:         a.fallback,
		OnMarkerActivate: opts.OnMarkerActivate,
		Logger:           a.log.Named("scene"),
	})

	a.log.Info("app initialized",
		zap.String("trek", a.trekName()),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)
	return a, nil
}

// newBackend opens the scene window and its OpenGL renderer.
func (a *App) newBackend(width, height int) (scene.Backend, error) {
	win, err := window.New(window.Config{
		Title:      a.title,
		Width:      width,
		Height:     height,
		Fullscreen: a.cfg.Graphics.Fullscreen,
		VSync:      a.cfg.Graphics.VSync,
	}, a.log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer comes after the window since the GL context must exist
	r, err := renderer.New(win, renderer.Config{
		ClearColor: a.cfg.Graphics.ClearColor,
		FogFar:     a.cfg.Graphics.FogFar,
	}, a.log.Named("renderer"))
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.window = win
	return r, nil
}

// Run starts the scene and loops until the user quits.
func (a *App) Run() error {
	a.running = true
	a.scene.Start()
	a.log.Info("starting frame loop", zap.Stringer("state", a.scene.State()))

	lastTime := time.Now()
	for a.running {
		if !a.scene.State().Running() {
			// Fallback or disposed: nothing animates, so sleep on the queue
			if a.input.Wait(idleWait) {
				a.running = false
			}
			a.handleEvents()
			lastTime = time.Now()
			continue
		}

		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()

		// 2. Advance and draw; the renderer presents on vsync
		a.scene.Tick(float32(dt))

		// 3. Frame statistics
		a.stats.Add(time.Since(frameStart), a.scene.TerrainUpdateTime())
		if a.stats.Span() >= time.Second {
			a.reportStats()
		}
	}

	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowClose:
			a.running = false

		case input.EventWindowResize:
			if a.fallback.Shown() && event.WindowID == a.fallback.WindowID() {
				a.redrawFallback()
				continue
			}
			a.scene.Resize(event.Width, event.Height)

		case input.EventWindowExposed:
			if a.fallback.Shown() {
				a.redrawFallback()
			}

		case input.EventKeyDown:
			a.handleKey(event.Key)

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_LEFT {
				a.pointer.press(event.MouseX, event.MouseY)
			}

		case input.EventMouseMove:
			if a.pointer.move(event.DeltaX, event.DeltaY) {
				a.scene.Drag(float32(event.DeltaX), float32(event.DeltaY))
			}

		case input.EventMouseUp:
			if event.Button != sdl.BUTTON_LEFT {
				continue
			}
			if x, y, click := a.pointer.release(); click {
				if m := a.scene.Pick(float32(x), float32(y)); m == nil {
					a.scene.ClearSelection()
				}
			}

		case input.EventMouseWheel:
			a.scene.Zoom(event.Wheel)
		}
	}
}

func (a *App) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		// First Esc drops the selection, the next one quits
		if a.scene.Selected() != nil {
			a.scene.ClearSelection()
			return
		}
		a.running = false
	case sdl.SCANCODE_R:
		a.scene.ResetView()
	}
}

func (a *App) redrawFallback() {
	if err := a.fallback.Redraw(); err != nil {
		a.log.Warn("fallback redraw failed", zap.Error(err))
	}
}

func (a *App) reportStats() {
	sum := a.stats.Summary()
	a.stats.Reset()

	a.log.Debug("frame stats",
		zap.Int("frames", sum.Frames),
		zap.Float64("fps", sum.FPS),
		zap.Float64("mean_ms", sum.MeanMS),
		zap.Float64("p95_ms", sum.P95MS),
		zap.Float64("terrain_mean_ms", sum.TerrainMeanMS),
		zap.Float64("terrain_p95_ms", sum.TerrainP95MS),
	)
	if sum.OverBudget > 0 || sum.TerrainOverBudget > 0 {
		a.log.Debug("frame budget exceeded",
			zap.Int("frames", sum.OverBudget),
			zap.Duration("frame_budget", FrameBudget),
			zap.Int("terrain_updates", sum.TerrainOverBudget),
			zap.Duration("terrain_budget", TerrainBudget),
		)
	}

	if a.cfg.Graphics.ShowFPS && a.window != nil {
		a.window.SetTitle(fmt.Sprintf("%s (%.0f fps)", a.title, sum.FPS))
	}
}

func (a *App) trekName() string {
	if a.trek == nil || a.trek.Name == "" {
		return "untitled"
	}
	return a.trek.Name
}

// Close disposes the scene and shuts SDL down.
func (a *App) Close() {
	a.log.Info("closing app")

	if a.scene != nil {
		a.scene.Dispose()
	}
	if a.fallback != nil {
		a.fallback.Close()
	}
	if a.assets != nil {
		hits, misses := a.assets.Stats()
		a.log.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))
		a.assets.Close()
	}
	sdl.Quit()
}
