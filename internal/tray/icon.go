package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"runtime"
	"sync"

	ico "github.com/sergeymakinen/go-ico"
)

const iconSize = 64

// Indicator is the radio state shown by the tray icon.
type Indicator int

const (
	IndicatorUnknown Indicator = iota
	IndicatorOn
	IndicatorOff
)

var indicatorColors = map[Indicator]color.NRGBA{
	IndicatorUnknown: {R: 0x80, G: 0x80, B: 0x80, A: 0xFF},
	IndicatorOn:      {R: 0x2E, G: 0xA0, B: 0x43, A: 0xFF},
	IndicatorOff:     {R: 0xD3, G: 0x2F, B: 0x2F, A: 0xFF},
}

var (
	iconMu    sync.Mutex
	iconCache = map[Indicator][]byte{}
)

// Icon returns the encoded tray icon for an indicator: ICO on Windows
// (required by the Windows tray), PNG elsewhere.
func Icon(ind Indicator) ([]byte, error) {
	iconMu.Lock()
	defer iconMu.Unlock()

	if data, ok := iconCache[ind]; ok {
		return data, nil
	}

	img := drawIcon(indicatorColors[ind])

	var buf bytes.Buffer
	var err error
	if runtime.GOOS == "windows" {
		err = ico.Encode(&buf, img)
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}

	iconCache[ind] = buf.Bytes()
	return buf.Bytes(), nil
}

// drawIcon renders a filled disc in bg with a white WLAN symbol: a dot and
// three arcs opening upwards.
func drawIcon(bg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	white := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	center := float64(iconSize) / 2
	// origin of the WLAN symbol, below the disc center
	ox, oy := center, center+14

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			if math.Hypot(px-center, py-center) > center-1 {
				continue
			}
			img.SetNRGBA(x, y, bg)

			dx, dy := px-ox, py-oy
			r := math.Hypot(dx, dy)
			if r <= 4 {
				img.SetNRGBA(x, y, white)
				continue
			}
			// 90 degree cone pointing up
			if dy >= 0 || math.Abs(dx) > -dy {
				continue
			}
			for _, arc := range [][2]float64{{9, 14}, {18, 23}, {27, 32}} {
				if r >= arc[0] && r <= arc[1] {
					img.SetNRGBA(x, y, white)
				}
			}
		}
	}
	return img
}
