// Package game implements the main loop: it owns the window, the GL device,
// the loaded meshes and the world, and streams the world into per-mesh
// instance buffers every frame.
package game

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/config"
	"github.com/Faultbox/lilcraft/internal/engine/camera"
	"github.com/Faultbox/lilcraft/internal/engine/debug"
	"github.com/Faultbox/lilcraft/internal/engine/input"
	"github.com/Faultbox/lilcraft/internal/engine/mesh"
	"github.com/Faultbox/lilcraft/internal/engine/picking"
	"github.com/Faultbox/lilcraft/internal/engine/renderer"
	"github.com/Faultbox/lilcraft/internal/engine/stream"
	"github.com/Faultbox/lilcraft/internal/engine/window"
	"github.com/Faultbox/lilcraft/internal/game/world"
	"github.com/Faultbox/lilcraft/internal/gpu/glgpu"
	"github.com/Faultbox/lilcraft/internal/logger"
)

// Title is the window title.
const Title = "lilcraft"

// Gameplay tuning.
const (
	WorldSize   = 24
	PlayerSpeed = 4.0 // world units per second
)

// Game is the main game instance.
type Game struct {
	config  *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	device   *glgpu.Device
	input    *input.Input

	meshes  *mesh.Library
	world   *world.World
	batches *world.Batches
	walker  *world.Walker
	camera  *camera.OrbitCamera
	home    [2]int

	screenshots *debug.Screenshots
	wantShot    bool

	frame frameStats
}

type frameStats struct {
	frames int
	failed int
	since  time.Time
}

// New creates the window and device, loads every configured mesh and builds
// the world. Any mesh that fails to load fails New.
func New(cfg *config.Config) (_ *Game, err error) {
	logger.Info("initializing game",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Strings("meshes", cfg.Assets.Meshes),
	)

	g := &Game{
		config:      cfg,
		input:       input.New(),
		screenshots: debug.NewScreenshots("screenshots", Title),
	}
	defer func() {
		if err != nil {
			g.Close()
		}
	}()

	winCfg := window.ConfigFrom(Title, cfg.Graphics)
	winCfg.Debug = logger.ParseLevel(cfg.Logging.Level) == zap.DebugLevel
	g.window, err = window.New(winCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer initializes GL, so it comes before the device.
	width, height := g.window.DrawableSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:         width,
		Height:        height,
		PositionScale: cfg.Assets.PositionScale,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	g.device = glgpu.New()

	if err := g.loadMeshes(); err != nil {
		return nil, err
	}

	g.world, err = world.Generate(WorldSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate world: %w", err)
	}
	g.batches = world.NewBatches(g.meshes.Names())

	player := g.world.Player()
	g.walker = world.NewWalker(world.NewPathFinder(g.world), player, PlayerSpeed)
	g.home[0], g.home[1] = world.WorldToCell(player.Position)

	g.camera = camera.NewOrbitCamera()
	g.camera.Follow(player.Position)

	logger.Info("game initialized successfully",
		zap.Int("tiles", len(g.world.Tiles())),
		zap.Int("entities", len(g.world.Entities())),
	)
	return g, nil
}

// LoadOptions maps the asset settings onto mesh load options.
func LoadOptions(a config.AssetsConfig) mesh.LoadOptions {
	return mesh.LoadOptions{
		Bake: mesh.BakeOptions{
			Scale: a.PositionScale,
			Bound: a.PositionBound,
		},
		GeometryExt: a.GeometryExt,
		ImageExt:    a.ImageExt,
	}
}

func (g *Game) loadMeshes() error {
	pass, err := g.device.BeginCopyPass()
	if err != nil {
		return fmt.Errorf("failed to begin copy pass: %w", err)
	}
	lib, err := mesh.LoadLibrary(g.device, pass, g.config.Assets.Dir, g.config.Assets.Meshes, LoadOptions(g.config.Assets))
	endErr := pass.End()
	if err != nil {
		return fmt.Errorf("failed to load meshes: %w", err)
	}
	g.meshes = lib
	if endErr != nil {
		return fmt.Errorf("failed to submit mesh uploads: %w", endErr)
	}
	return nil
}

// Run runs the frame loop until the window is closed or Escape is pressed.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	g.frame = frameStats{since: lastTime}

	logger.Info("starting game loop")

	for g.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if g.input.Update() {
			g.running = false
			break
		}
		g.handleEvents()

		g.update(dt)

		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if g.wantShot {
			g.wantShot = false
			g.screenshot()
		}
		g.window.SwapBuffers()

		g.frame.frames++
		if elapsed := now.Sub(g.frame.since); elapsed >= time.Second {
			rs := g.renderer.Stats()
			fps := float64(g.frame.frames) / elapsed.Seconds()
			g.window.SetTitle(fmt.Sprintf("%s - %.0f fps", Title, fps))
			logger.Debug("frame stats",
				zap.Float64("fps", fps),
				zap.Float32("dt_ms", dt*1000),
				zap.Int("draw_calls", rs.DrawCalls),
				zap.Int("instances", rs.Instances),
				zap.Int("triangles", rs.Triangles),
				zap.Int("stream_failures", g.frame.failed),
			)
			g.frame = frameStats{since: now}
		}
	}

	return nil
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			g.renderer.Resize(g.window.DrawableSize())
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				g.running = false
			case sdl.SCANCODE_H:
				g.walkTo(g.home[0], g.home[1])
			case sdl.SCANCODE_F12:
				g.wantShot = true
			}
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				if x, z, ok := g.pick(event.MouseX, event.MouseY); ok {
					g.walkTo(x, z)
				}
			}
		}
	}
}

func (g *Game) walkTo(x, z int) {
	if !g.walker.WalkTo(x, z) {
		logger.Debug("no path", zap.Int("x", x), zap.Int("z", z))
	}
}

// pick returns the column under the cursor.
func (g *Game) pick(mouseX, mouseY int) (x, z int, ok bool) {
	// Mouse coordinates are in window points, not drawable pixels.
	w, h := g.window.GetSize()
	inv := g.camera.ViewProj(g.renderer.Aspect()).Inverse()
	ray := picking.ScreenToRay(float32(mouseX), float32(mouseY), float32(w), float32(h), inv)
	return g.world.Pick(ray)
}

// screenshot saves the frame just rendered. It must run before the swap.
func (g *Game) screenshot() {
	pixels, width, height := g.renderer.ReadPixels()
	path, err := g.screenshots.Save(pixels, width, height)
	if err != nil {
		logger.Warn("failed to save screenshot", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// update moves the player from held keys, or along a walk path when no key
// is held, then advances the world and camera.
func (g *Game) update(dt float32) {
	dx, dy := g.input.Drag()
	g.camera.HandleDrag(dx, dy)
	g.camera.HandleDrag(g.input.Axis(sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT)*200*dt, g.input.Axis(sdl.SCANCODE_DOWN, sdl.SCANCODE_UP)*200*dt)
	if w := g.input.Wheel(); w != 0 {
		g.camera.HandleZoom(w)
	}

	player := g.world.Player()
	forward := g.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := g.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	if forward != 0 || right != 0 {
		g.walker.Stop()
		mx, mz := moveVector(g.camera.RotationY, forward, right)
		step := PlayerSpeed * dt
		g.world.Move(player, mx*step, mz*step)
	} else {
		g.walker.Update(dt)
	}

	g.world.Update(dt)
	g.camera.Follow(player.Position)
}

// moveVector turns forward/right input into a unit XZ direction relative to a
// camera with the given yaw. Forward points away from the camera.
func moveVector(yaw, forward, right float32) (x, z float32) {
	sin, cos := gomath.Sincos(float64(yaw))
	x = -float32(sin)*forward + float32(cos)*right
	z = -float32(cos)*forward - float32(sin)*right
	if l := float32(gomath.Hypot(float64(x), float64(z))); l > 0 {
		x, z = x/l, z/l
	}
	return x, z
}

// render streams the world into the instance buffers and draws every mesh.
// Stream failures are logged by the streams and leave that mesh stale.
func (g *Game) render() error {
	built := g.batches.Build(g.device, g.world)

	pass, err := g.device.BeginCopyPass()
	if err != nil {
		g.batches.Unmap(g.device)
		return fmt.Errorf("begin instance copy pass: %w", err)
	}
	uploaded := g.batches.Upload(g.device, pass)
	if err := pass.End(); err != nil {
		return err
	}

	g.frame.failed += built.Failed + uploaded.Failed

	g.renderer.Begin(g.camera.ViewProj(g.renderer.Aspect()))
	g.batches.Each(func(name string, s *stream.Buffer) {
		if asset, ok := g.meshes.Get(name); ok {
			g.renderer.Draw(asset, s)
		}
	})
	g.renderer.End()
	return nil
}

// Close frees the streams and meshes, then the renderer, device and window.
// It is safe on a partially constructed game.
func (g *Game) Close() {
	logger.Info("closing game")

	if g.batches != nil {
		g.batches.Free(g.device)
	}
	if g.meshes != nil {
		g.meshes.Free(g.device)
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.device != nil {
		g.device.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
