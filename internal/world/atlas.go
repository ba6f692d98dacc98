package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/config"
)

// AtlasUV is a normalized texture rectangle.
type AtlasUV struct {
	UV0 mgl32.Vec2
	UV1 mgl32.Vec2
}

// Size returns the rectangle extent.
func (a AtlasUV) Size() mgl32.Vec2 {
	return a.UV1.Sub(a.UV0)
}

// Atlas describes a grid of square tiles packed into one texture. Padding is
// in texels and is inset on every side of a tile to avoid bleeding.
type Atlas struct {
	TilesX            int
	TilesY            int
	Padding           float32
	TextureResolution int
}

// AtlasFromConfig converts the config section.
func AtlasFromConfig(cfg config.AtlasConfig) Atlas {
	return Atlas{
		TilesX:            cfg.TilesX,
		TilesY:            cfg.TilesY,
		Padding:           float32(cfg.Padding),
		TextureResolution: cfg.TextureResolution,
	}
}

// UV returns the padded rectangle for a tile.
func (a Atlas) UV(tile BlockFaceUV) AtlasUV {
	tileW := 1 / float32(max(a.TilesX, 1))
	tileH := 1 / float32(max(a.TilesY, 1))
	var pad float32
	if a.TextureResolution > 0 {
		pad = a.Padding / float32(a.TextureResolution)
	}
	x, y := float32(tile.TileX), float32(tile.TileY)
	return AtlasUV{
		UV0: mgl32.Vec2{x*tileW + pad, y*tileH + pad},
		UV1: mgl32.Vec2{(x+1)*tileW - pad, (y+1)*tileH - pad},
	}
}

// Validate checks that a texture of the given pixel size divides evenly into
// the tile grid. The returned error is a warning; the atlas stays usable.
func (a Atlas) Validate(widthPx, heightPx int) error {
	if a.TilesX <= 0 || a.TilesY <= 0 {
		return fmt.Errorf("atlas: tile grid %dx%d must be positive", a.TilesX, a.TilesY)
	}
	if widthPx%a.TilesX != 0 || heightPx%a.TilesY != 0 {
		return fmt.Errorf("atlas: texture %dx%d is not divisible by the %dx%d tile grid", widthPx, heightPx, a.TilesX, a.TilesY)
	}
	return nil
}
