// Package rose renders wind-direction frequency histograms as wind-rose
// images: one filled sector per compass bin, petal length proportional to
// the bin's frequency, north up, degrees increasing clockwise.
package rose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/vector"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

const (
	// fraction of each 22.5° sector the petal fills, leaving a gap between petals
	petalOpening = 0.9

	arcSteps = 8
)

var (
	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	gridColor  = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
	petalColor = color.RGBA{R: 0x4f, G: 0x83, B: 0xc3, A: 0xff}
)

// Render draws the frequency histogram onto a square canvas of the given
// size in pixels.
func Render(freq [models.DirBins]float64, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	cx := float64(size) / 2
	cy := float64(size) / 2
	maxRadius := float64(size)/2 - float64(size)/20

	maxFreq := 0.0
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}

	drawGrid(img, cx, cy, maxRadius)
	if maxFreq == 0 {
		return img
	}

	binWidth := 360.0 / models.DirBins
	for i, f := range freq {
		if f == 0 {
			continue
		}
		radius := maxRadius * f / maxFreq
		center := float64(i) * binWidth
		half := binWidth * petalOpening / 2
		fillSector(img, cx, cy, radius, center-half, center+half)
	}
	return img
}

// RenderPNG encodes the wind rose to w.
func RenderPNG(w io.Writer, freq [models.DirBins]float64, size int) error {
	if err := png.Encode(w, Render(freq, size)); err != nil {
		return fmt.Errorf("encode rose png: %w", err)
	}
	return nil
}

// WriteFile renders the rose to a PNG file.
func WriteFile(path string, freq [models.DirBins]float64, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create rose file: %w", err)
	}
	if err := RenderPNG(f, freq, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fillSector rasterizes one petal: a pie slice from the center out to
// radius, spanning [from, to] in compass degrees (0 = north, clockwise).
func fillSector(img *image.RGBA, cx, cy, radius, from, to float64) {
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	z.MoveTo(float32(cx), float32(cy))
	for s := 0; s <= arcSteps; s++ {
		deg := from + (to-from)*float64(s)/arcSteps
		x, y := compassPoint(cx, cy, radius, deg)
		z.LineTo(float32(x), float32(y))
	}
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(petalColor), image.Point{})
}

// drawGrid paints concentric reference circles.
func drawGrid(img *image.RGBA, cx, cy, maxRadius float64) {
	for _, frac := range []float64{0.25, 0.5, 0.75, 1.0} {
		strokeCircle(img, cx, cy, maxRadius*frac)
	}
}

func strokeCircle(img *image.RGBA, cx, cy, radius float64) {
	steps := int(2 * math.Pi * radius)
	if steps < 16 {
		steps = 16
	}
	for s := 0; s < steps; s++ {
		angle := 2 * math.Pi * float64(s) / float64(steps)
		x := int(cx + radius*math.Cos(angle))
		y := int(cy + radius*math.Sin(angle))
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, gridColor)
		}
	}
}

// compassPoint converts a compass bearing and radius to canvas coordinates.
func compassPoint(cx, cy, radius, deg float64) (x, y float64) {
	rad := deg * math.Pi / 180
	return cx + radius*math.Sin(rad), cy - radius*math.Cos(rad)
}
