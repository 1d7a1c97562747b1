package terrain

import (
	"context"
	"fmt"
)

// Loader produces a ready-to-animate terrain. Implementations may block and
// must honour ctx cancellation.
type Loader interface {
	Load(ctx context.Context) (*Generator, error)
}

// Fetcher retrieves raw asset bytes by path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// ProceduralLoader builds a terrain with a flat base and no external asset.
type ProceduralLoader struct {
	Config Config
}

// Load implements Loader.
func (l ProceduralLoader) Load(ctx context.Context) (*Generator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewGenerator(l.Config, nil), nil
}

// AssetLoader fetches and decodes a heightmap image, then builds the grid on top of it.
type AssetLoader struct {
	Config  Config
	Fetcher Fetcher
}

// Load implements Loader.
func (l AssetLoader) Load(ctx context.Context) (*Generator, error) {
	if l.Config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Config.LoadTimeout)
		defer cancel()
	}

	data, err := l.Fetcher.Fetch(ctx, l.Config.Asset)
	if err != nil {
		return nil, fmt.Errorf("fetching terrain asset %s: %w", l.Config.Asset, err)
	}

	hm, err := DecodeHeightmap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing terrain asset %s: %w", l.Config.Asset, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewGenerator(l.Config, hm), nil
}

// NewLoader picks the asset loader when an asset is configured and the
// procedural one otherwise.
func NewLoader(cfg Config, fetcher Fetcher) Loader {
	if cfg.Asset == "" || fetcher == nil {
		return ProceduralLoader{Config: cfg}
	}
	return AssetLoader{Config: cfg, Fetcher: fetcher}
}
