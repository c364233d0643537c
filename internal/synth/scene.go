// ABOUTME: Display list built from one snapshot and the current settings
// ABOUTME: One scene function per style, selected by the Style tag
package synth

import (
	"math"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
)

const (
	barSlot      = 8 // pixels per bar bin
	barFill      = 0.7
	barScale     = 0.8
	barMinHeight = 2
	barAlpha     = 0.9

	waveScale = 0.35
	waveWidth = 2.5
	waveAlpha = 0.95

	circlePoints = 128
	circleRadius = 0.28
	circleScale  = 0.6
	circleWidth  = 3
	circleAlpha  = 0.95
)

// Point is a position in surface pixels
type Point struct {
	X, Y float32
}

// Rect is an axis-aligned filled rectangle
type Rect struct {
	X, Y, W, H float32
}

// Scene is what one frame draws on top of the background
type Scene struct {
	Width, Height int
	Color         Color
	Alpha         float32

	Rects []Rect // filled

	Path      []Point // stroked
	Closed    bool
	LineWidth float32
}

// BuildScene computes the display list for a w×h surface
func BuildScene(w, h int, snap *analyser.Snapshot, s Settings) Scene {
	switch s.Style {
	case Wave:
		return sceneWave(w, h, snap, s)
	case Circle:
		return sceneCircle(w, h, snap, s)
	default:
		return sceneBars(w, h, snap, s)
	}
}

func frequencyAt(snap *analyser.Snapshot, i int) float32 {
	if i < 0 || i >= len(snap.Frequency) {
		return 0
	}
	return float32(snap.Frequency[i]) / 255
}

func timeDomainAt(snap *analyser.Snapshot, i int) float32 {
	if i < 0 || i >= len(snap.TimeDomain) {
		return 128
	}
	return float32(snap.TimeDomain[i])
}

func sceneBars(w, h int, snap *analyser.Snapshot, s Settings) Scene {
	sc := Scene{Width: w, Height: h, Color: s.Color, Alpha: barAlpha}

	count := w / barSlot
	if count <= 0 {
		return sc
	}
	stride := analyser.Bins / count
	if stride < 1 {
		stride = 1
	}

	slot := float32(w) / float32(count)
	barW := slot * barFill
	gain := s.gain()
	sc.Rects = make([]Rect, count)
	for i := 0; i < count; i++ {
		v := frequencyAt(snap, i*stride)
		barH := v * float32(h) * barScale * gain
		if barH < barMinHeight {
			barH = barMinHeight
		}
		sc.Rects[i] = Rect{
			X: float32(i)*slot + (slot-barW)/2,
			Y: float32(h) - barH,
			W: barW,
			H: barH,
		}
	}
	return sc
}

func sceneWave(w, h int, snap *analyser.Snapshot, s Settings) Scene {
	sc := Scene{Width: w, Height: h, Color: s.Color, Alpha: waveAlpha, LineWidth: waveWidth}

	n := len(snap.TimeDomain)
	step := float32(w) / float32(n)
	mid := float32(h) / 2
	gain := s.gain()
	sc.Path = make([]Point, 0, n+1)
	for i := 0; i < n; i++ {
		a := timeDomainAt(snap, i)
		sc.Path = append(sc.Path, Point{
			X: float32(i) * step,
			Y: (a/128-1)*float32(h)*waveScale*gain + mid,
		})
	}
	sc.Path = append(sc.Path, Point{X: float32(w), Y: mid})
	return sc
}

func sceneCircle(w, h int, snap *analyser.Snapshot, s Settings) Scene {
	sc := Scene{Width: w, Height: h, Color: s.Color, Alpha: circleAlpha, LineWidth: circleWidth, Closed: true}

	cx, cy := float32(w)/2, float32(h)/2
	base := float32(math.Min(float64(w), float64(h))) * circleRadius
	stride := analyser.Bins / circlePoints
	if stride < 1 {
		stride = 1
	}
	gain := s.gain()
	sc.Path = make([]Point, circlePoints)
	for i := 0; i < circlePoints; i++ {
		v := frequencyAt(snap, i*stride)
		r := base + v*base*circleScale*gain
		angle := float64(i) / circlePoints * 2 * math.Pi
		sc.Path[i] = Point{
			X: cx + float32(math.Cos(angle))*r,
			Y: cy + float32(math.Sin(angle))*r,
		}
	}
	return sc
}
