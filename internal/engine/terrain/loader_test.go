package terrain

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (f stubFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.data, f.err
}

func encodePNG(t *testing.T, w, h int, fill func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeHeightmap(t *testing.T) {
	data := encodePNG(t, 3, 2, func(x, y int) uint8 {
		if x == 2 {
			return 255
		}
		return 0
	})

	hm, err := DecodeHeightmap(data)
	if err != nil {
		t.Fatalf("DecodeHeightmap() error = %v", err)
	}
	if hm.Width != 3 || hm.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", hm.Width, hm.Height)
	}
	if hm.Values[0] != 0 || hm.Values[2] != 1 {
		t.Errorf("values = %v", hm.Values)
	}
}

func TestDecodeHeightmapRejectsGarbage(t *testing.T) {
	if _, err := DecodeHeightmap([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestHeightmapSample(t *testing.T) {
	hm := &Heightmap{Width: 2, Height: 2, Values: []float32{0, 1, 1, 1}}
	tests := []struct {
		u, v, want float32
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0.5, 0, 0.5},
		{0.5, 0.5, 0.75},
		{-3, -3, 0},
		{5, 5, 1},
	}
	for _, tt := range tests {
		if got := hm.Sample(tt.u, tt.v); got != tt.want {
			t.Errorf("Sample(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
		}
	}
}

func TestAssetLoader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 4, 4
	cfg.Asset = "mountains.png"
	data := encodePNG(t, 4, 4, func(x, y int) uint8 { return uint8(x * 60) })

	g, err := AssetLoader{Config: cfg, Fetcher: stubFetcher{data: data}}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if g.VertexCount() != 25 {
		t.Errorf("VertexCount() = %d, want 25", g.VertexCount())
	}
}

func TestAssetLoaderFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Asset = "mountains.png"
	fetchErr := errors.New("connection refused")

	tests := []struct {
		name    string
		fetcher Fetcher
		wantErr error
	}{
		{"fetch fails", stubFetcher{err: fetchErr}, fetchErr},
		{"parse fails", stubFetcher{data: []byte("<html>")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssetLoader{Config: cfg, Fetcher: tt.fetcher}.Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want wrapping %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadersHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	if _, err := (ProceduralLoader{Config: cfg}).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("procedural: error = %v, want context.Canceled", err)
	}
	cfg.Asset = "x.png"
	if _, err := (AssetLoader{Config: cfg, Fetcher: stubFetcher{}}).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("asset: error = %v, want context.Canceled", err)
	}
}

func TestNewLoaderSelection(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := NewLoader(cfg, stubFetcher{}).(ProceduralLoader); !ok {
		t.Error("no asset should select ProceduralLoader")
	}
	cfg.Asset = "hills.png"
	if _, ok := NewLoader(cfg, stubFetcher{}).(AssetLoader); !ok {
		t.Error("configured asset should select AssetLoader")
	}
}
