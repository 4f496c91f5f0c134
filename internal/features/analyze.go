// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package features

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Label thresholds.
const (
	boldEdgeDensity  = 0.1
	whiteLevel       = 200
	yangWhiteRatio   = 0.6
	yinWhiteRatio    = 0.4
	monochromeSpread = 30
	smoothTextureVar = 1000
	textureBlurSigma = 2.0
	defaultMaxSide   = 256

	// gaussianTail is the kernel radius in standard deviations.
	gaussianTail = 3
)

// Analyzer computes VisualFeatures from pixels.
type Analyzer struct {
	// MaxSide bounds the longest image side used for analysis. Larger
	// images are downscaled first. Zero uses 256; negative disables
	// downscaling.
	MaxSide int
}

// Analyze computes the low-level descriptors of img. It is deterministic
// for a given image and MaxSide.
func (a Analyzer) Analyze(img image.Image) types.VisualFeatures {
	rgba := a.prepare(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()

	gray := make([]float64, w*h)
	reds := make([]float64, w*h)
	greens := make([]float64, w*h)
	blues := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := rgba.RGBAAt(x, y)
			i := y*w + x
			reds[i], greens[i], blues[i] = float64(c.R), float64(c.G), float64(c.B)
			gray[i] = luma(c)
		}
	}

	var f types.VisualFeatures
	f.EdgeDensity = edgeDensity(gray, w, h)
	f.WhiteRatio = whiteRatio(gray)
	f.ColorSpread = popStdDev([]float64{stat.Mean(reds, nil), stat.Mean(greens, nil), stat.Mean(blues, nil)})
	f.TextureVariance = popVariance(findEdges(gaussianBlur(gray, w, h, textureBlurSigma), w, h))
	applyLabels(&f)
	return f
}

// applyLabels derives the categorical labels from the raw measurements.
func applyLabels(f *types.VisualFeatures) {
	f.LineStyle = types.LineFine
	if f.EdgeDensity < boldEdgeDensity {
		f.LineStyle = types.LineBold
	}

	switch {
	case f.WhiteRatio > yangWhiteRatio:
		f.CuttingTechnique = types.CutYang
	case f.WhiteRatio < yinWhiteRatio:
		f.CuttingTechnique = types.CutYin
	default:
		f.CuttingTechnique = types.CutMixed
	}

	f.ColorScheme = types.ColorPolychrome
	if f.ColorSpread < monochromeSpread {
		f.ColorScheme = types.ColorMonochrome
	}

	f.Texture = types.TextureRough
	if f.TextureVariance < smoothTextureVar {
		f.Texture = types.TextureSmooth
	}
}

// prepare flattens img onto white and downscales it to MaxSide.
func (a Analyzer) prepare(img image.Image) *image.RGBA {
	src := img.Bounds()
	maxSide := a.MaxSide
	if maxSide == 0 {
		maxSide = defaultMaxSide
	}

	w, h := src.Dx(), src.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		scale := float64(maxSide) / float64(max(w, h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}
	return dst
}

// luma is the ITU-R 601-2 grey level of c.
func luma(c color.RGBA) float64 {
	return float64((19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16)
}

// edgeDensity is the mean absolute difference between horizontally and
// vertically adjacent grey levels, averaged over both directions and
// scaled to [0,1].
func edgeDensity(gray []float64, w, h int) float64 {
	var horiz, vert float64
	if w > 1 {
		var sum float64
		for y := 0; y < h; y++ {
			row := gray[y*w : (y+1)*w]
			for x := 1; x < w; x++ {
				sum += math.Abs(row[x] - row[x-1])
			}
		}
		horiz = sum / float64(h*(w-1))
	}
	if h > 1 {
		var sum float64
		for y := 1; y < h; y++ {
			for x := 0; x < w; x++ {
				sum += math.Abs(gray[y*w+x] - gray[(y-1)*w+x])
			}
		}
		vert = sum / float64((h-1)*w)
	}
	return (horiz + vert) / 2 / 255
}

func whiteRatio(gray []float64) float64 {
	var n int
	for _, g := range gray {
		if g > whiteLevel {
			n++
		}
	}
	return float64(n) / float64(len(gray))
}

// gaussianBlur applies a separable Gaussian kernel with clamped borders.
func gaussianBlur(gray []float64, w, h int, sigma float64) []float64 {
	radius := int(math.Ceil(sigma * gaussianTail))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	tmp := make([]float64, len(gray))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				xx := clamp(x+k-radius, 0, w-1)
				acc += kv * gray[y*w+xx]
			}
			tmp[y*w+x] = acc
		}
	}

	out := make([]float64, len(gray))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				yy := clamp(y+k-radius, 0, h-1)
				acc += kv * tmp[yy*w+x]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

// findEdges applies the 3x3 edge kernel (8 at the centre, -1 around it)
// and clamps the response to the 8-bit range.
func findEdges(gray []float64, w, h int) []float64 {
	out := make([]float64, len(gray))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := gray[clamp(y+dy, 0, h-1)*w+clamp(x+dx, 0, w-1)]
					if dx == 0 && dy == 0 {
						acc += 8 * v
					} else {
						acc -= v
					}
				}
			}
			out[y*w+x] = math.Max(0, math.Min(255, math.Round(acc)))
		}
	}
	return out
}

// popVariance is the population variance of x.
func popVariance(x []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	return stat.Variance(x, nil) * (n - 1) / n
}

func popStdDev(x []float64) float64 {
	return math.Sqrt(popVariance(x))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
