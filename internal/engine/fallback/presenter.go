package fallback

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

// Presenter displays the fallback image in its own window by blitting into
// the window surface, without any GPU context. It draws on Show and then
// only again on Redraw, which the host calls on expose and resize events.
type Presenter struct {
	title         string
	width, height int
	log           *zap.Logger

	window *sdl.Window
	image  *image.RGBA
	reason string
}

// NewPresenter creates a presenter. Nothing is opened until Show.
func NewPresenter(title string, width, height int, log *zap.Logger) *Presenter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Presenter{title: title, width: width, height: height, log: log}
}

// Show opens the fallback window and draws the static image.
// Calling it again only redraws.
func (p *Presenter) Show(reason string) error {
	p.reason = reason
	if p.window != nil {
		return p.Redraw()
	}

	var err error
	p.window, err = sdl.CreateWindow(p.title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(p.width), int32(p.height), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return fmt.Errorf("creating fallback window: %w", err)
	}

	p.log.Info("showing fallback view", zap.String("reason", reason))
	return p.Redraw()
}

// Redraw presents the image again at the current window size.
func (p *Presenter) Redraw() error {
	if p.window == nil {
		return nil
	}
	surface, err := p.window.GetSurface()
	if err != nil {
		return fmt.Errorf("getting fallback surface: %w", err)
	}

	b := surface.Bounds()
	if p.image == nil || p.image.Bounds() != b {
		p.image = Render(b.Dx(), b.Dy())
	}

	if err := surface.Lock(); err != nil {
		return fmt.Errorf("locking fallback surface: %w", err)
	}
	draw.Draw(surface, b, p.image, image.Point{}, draw.Src)
	surface.Unlock()

	if err := p.window.UpdateSurface(); err != nil {
		return fmt.Errorf("presenting fallback view: %w", err)
	}
	return nil
}

// Shown reports whether the fallback window is open.
func (p *Presenter) Shown() bool {
	return p.window != nil
}

// Reason returns why the fallback was shown.
func (p *Presenter) Reason() string {
	return p.reason
}

// WindowID returns the SDL ID of the fallback window, 0 if closed.
func (p *Presenter) WindowID() uint32 {
	if p.window == nil {
		return 0
	}
	id, _ := p.window.GetID()
	return id
}

// Close releases the window. Safe to call more than once.
func (p *Presenter) Close() {
	if p.window != nil {
		p.window.Destroy()
		p.window = nil
	}
	p.image = nil
}
