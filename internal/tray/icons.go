//go:build tray

package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/tnunamak/usagegauge/internal/display"
)

const iconSize = 64

var iconColors = map[display.Level]color.RGBA{
	display.LevelNone:     {0x9e, 0x9e, 0x9e, 0xff},
	display.LevelOK:       {0x4c, 0xaf, 0x50, 0xff},
	display.LevelWarning:  {0xff, 0xc1, 0x07, 0xff},
	display.LevelCritical: {0xf4, 0x43, 0x36, 0xff},
}

var iconCache = map[display.Level][]byte{}

// iconFor returns a filled circle PNG in the level's color.
func iconFor(l display.Level) []byte {
	if data, ok := iconCache[l]; ok {
		return data
	}
	c, ok := iconColors[l]
	if !ok {
		c = iconColors[display.LevelNone]
	}

	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	r := iconSize/2 - 2
	cx, cy := iconSize/2, iconSize/2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	iconCache[l] = buf.Bytes()
	return iconCache[l]
}
