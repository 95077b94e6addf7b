package core

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // texture formats
	_ "image/png"
	"io"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultSurfaceColumns and DefaultSurfaceRows define the UV grid the
	// surface point cloud is built from.
	DefaultSurfaceColumns = 160
	DefaultSurfaceRows    = 80

	// LandThreshold is the minimum mask value at which a surface vertex is drawn.
	LandThreshold = 0.4
)

// SurfaceVertex maps a texture coordinate (u, v ∈ [0,1], v=1 at the top of
// the texture) onto the sphere. φ is measured from the top, θ is the raw UV
// longitude rotated by -90°; z is negated so the result agrees with Project.
func SurfaceVertex(u, v, radius float64) CartesianPoint {
	phi := (1 - v) * math.Pi
	theta := u*2*math.Pi - math.Pi
	theta -= math.Pi / 2

	sinPhi := math.Sin(phi)
	return CartesianPoint{
		X: radius * sinPhi * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: -(radius * sinPhi * math.Sin(theta)),
	}
}

// LatLonFromUV returns the geographic coordinate a texture coordinate shows.
func LatLonFromUV(u, v float64) (lat, lon float64) {
	return v*180 - 90, u*360 - 180
}

// UVFromLatLon is the inverse of LatLonFromUV.
func UVFromLatLon(lat, lon float64) (u, v float64) {
	return (lon + 180) / 360, (lat + 90) / 180
}

// SurfacePulse is the brightness multiplier applied to the surface at time t
// (seconds since the globe was mounted).
func SurfacePulse(t float64) float64 {
	return math.Sin(t)*0.1 + 0.6
}

// LandMask holds per-vertex visibility sampled from a greyscale land texture.
// Only the red channel is used.
type LandMask struct {
	cols, rows int
	gray       *image.Gray
}

// DecodeLandMask decodes a PNG, JPEG, BMP or WebP texture and resamples it
// onto a (cols+1) x (rows+1) vertex grid.
func DecodeLandMask(r io.Reader, cols, rows int) (*LandMask, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode land mask: %w", err)
	}
	m, err := NewLandMask(img, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("land mask (%s): %w", format, err)
	}
	return m, nil
}

// NewLandMask resamples img onto the vertex grid.
func NewLandMask(img image.Image, cols, rows int) (*LandMask, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("surface grid %dx%d: need at least 1x1 segments", cols, rows)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty texture")
	}

	// Collapse to the red channel before scaling, Gray conversion would mix
	// in green and blue.
	src := image.NewGray(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			src.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}

	dst := image.NewGray(image.Rect(0, 0, cols+1, rows+1))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &LandMask{cols: cols, rows: rows, gray: dst}, nil
}

// Value returns the mask value in [0,1] at the vertex nearest to (u, v).
func (m *LandMask) Value(u, v float64) float64 {
	if m == nil {
		return 1
	}
	x := int(math.Round(clamp(u, 0, 1) * float64(m.cols)))
	// Texture rows run top to bottom, v runs bottom to top.
	y := int(math.Round((1 - clamp(v, 0, 1)) * float64(m.rows)))
	return float64(m.gray.GrayAt(x, y).Y) / 255
}

// SurfacePoint is one visible vertex of the globe's point cloud.
type SurfacePoint struct {
	Position  CartesianPoint
	U, V      float64
	Intensity float64 // mask value, >= LandThreshold
}

// BuildSurface returns every grid vertex whose mask value reaches
// LandThreshold. A nil mask keeps every vertex at full intensity.
func BuildSurface(cols, rows int, radius float64, mask *LandMask) []SurfacePoint {
	if cols < 1 || rows < 1 {
		return nil
	}
	points := make([]SurfacePoint, 0, (cols+1)*(rows+1))
	for j := 0; j <= rows; j++ {
		v := 1 - float64(j)/float64(rows)
		for i := 0; i <= cols; i++ {
			u := float64(i) / float64(cols)
			intensity := mask.Value(u, v)
			if intensity < LandThreshold {
				continue
			}
			points = append(points, SurfacePoint{
				Position:  SurfaceVertex(u, v, radius),
				U:         u,
				V:         v,
				Intensity: intensity,
			})
		}
	}
	return points
}
