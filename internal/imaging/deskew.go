package imaging

import (
	"image"
	"math"
)

const deskewMinAngle = 0.5

type point struct {
	x, y float64
}

// deskew estimates the dominant text angle from the minimum-area rectangle
// around the largest white region and rotates the image upright. Images with
// no white pixels, or with an estimated angle at or below half a degree, are
// returned unchanged.
func (p *Preprocessor) deskew(src *image.Gray) *image.Gray {
	pts := largestComponentExtrema(src)
	if len(pts) < 3 {
		p.logger.Warn("deskew skipped, no text region found")
		return src
	}

	hull := convexHull(pts)
	if len(hull) < 3 {
		return src
	}

	angle := minAreaRectAngle(hull)
	if angle < -45 {
		angle = -(90 + angle)
	} else {
		angle = -angle
	}
	if math.Abs(angle) <= deskewMinAngle {
		return src
	}

	p.logger.Debug("deskewing image", "angle", angle)
	return rotate(src, angle)
}

// largestComponentExtrema finds the largest 8-connected white component and
// returns its leftmost and rightmost pixel per row. The extrema are enough
// to recover the component's convex hull without holding every pixel.
func largestComponentExtrema(src *image.Gray) []point {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y

	visited := make([]bool, w*h)
	isWhite := func(x, y int) bool {
		return src.GrayAt(x+minX, y+minY).Y > 127
	}

	var bestSize int
	var bestLeft, bestRight []int

	queue := make([]int, 0, 256)
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			idx := sy*w + sx
			if visited[idx] || !isWhite(sx, sy) {
				continue
			}

			left := make([]int, h)
			right := make([]int, h)
			for i := range left {
				left[i] = -1
			}

			size := 0
			visited[idx] = true
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				cur := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := cur%w, cur/w
				size++
				if left[cy] == -1 || cx < left[cy] {
					left[cy] = cx
				}
				if cx > right[cy] {
					right[cy] = cx
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := cx+dx, cy+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						nidx := ny*w + nx
						if !visited[nidx] && isWhite(nx, ny) {
							visited[nidx] = true
							queue = append(queue, nidx)
						}
					}
				}
			}

			if size > bestSize {
				bestSize = size
				bestLeft, bestRight = left, right
			}
		}
	}

	if bestSize == 0 {
		return nil
	}
	pts := make([]point, 0, 2*h)
	for y := 0; y < h; y++ {
		if bestLeft[y] == -1 {
			continue
		}
		pts = append(pts, point{float64(bestLeft[y]), float64(y)})
		if bestRight[y] != bestLeft[y] {
			pts = append(pts, point{float64(bestRight[y]), float64(y)})
		}
	}
	return pts
}

// convexHull computes the hull with the monotone chain algorithm. Input
// points arrive sorted by y then x from the row scan; the chain needs x then
// y, so they are re-sorted here.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sorted := make([]point, len(pts))
	copy(sorted, pts)
	sortPoints(sorted)

	cross := func(o, a, b point) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	hull := make([]point, 0, 2*len(sorted))
	for _, pt := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		pt := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	return hull[:len(hull)-1]
}

func sortPoints(pts []point) {
	// Insertion sort keeps this dependency-free; hull inputs are small
	// (two extrema per image row).
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0; j-- {
			a, b := pts[j-1], pts[j]
			if b.x < a.x || (b.x == a.x && b.y < a.y) {
				pts[j-1], pts[j] = b, a
			} else {
				break
			}
		}
	}
}

// minAreaRectAngle runs rotating calipers over the hull edges and returns
// the angle of the minimum-area enclosing rectangle, normalized to [-90, 0).
func minAreaRectAngle(hull []point) float64 {
	best := math.MaxFloat64
	bestAngle := 0.0
	n := len(hull)
	for i := 0; i < n; i++ {
		a := hull[i]
		b := hull[(i+1)%n]
		dx, dy := b.x-a.x, b.y-a.y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		// Project every hull point onto the edge direction and its normal.
		minU, maxU := math.MaxFloat64, -math.MaxFloat64
		minV, maxV := math.MaxFloat64, -math.MaxFloat64
		for _, pt := range hull {
			u := pt.x*ux + pt.y*uy
			v := -pt.x*uy + pt.y*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		area := (maxU - minU) * (maxV - minV)
		if area < best {
			best = area
			angle := math.Atan2(uy, ux) * 180 / math.Pi
			for angle >= 0 {
				angle -= 90
			}
			for angle < -90 {
				angle += 90
			}
			bestAngle = angle
		}
	}
	return bestAngle
}

// rotate spins the image by the given angle in degrees around its center,
// sampling source pixels with Catmull-Rom interpolation and replicating the
// border outside the frame.
func rotate(src *image.Gray, degrees float64) *image.Gray {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y

	theta := degrees * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx, cy := float64(w)/2, float64(h)/2

	at := func(x, y int) float64 {
		return float64(src.GrayAt(clampInt(x, 0, w-1)+minX, clampInt(y, 0, h-1)+minY).Y)
	}

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Inverse map the destination pixel into the source frame.
			dx, dy := float64(x)-cx, float64(y)-cy
			sx := dx*cos + dy*sin + cx
			sy := -dx*sin + dy*cos + cy
			dst.SetGray(x+minX, y+minY, grayValue(catmullRom(at, sx, sy)))
		}
	}
	return dst
}

// catmullRom samples a fractional coordinate with bicubic Catmull-Rom
// weights over a 4x4 neighborhood.
func catmullRom(at func(x, y int) float64, sx, sy float64) float64 {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	weight := func(t float64) [4]float64 {
		t2 := t * t
		t3 := t2 * t
		return [4]float64{
			0.5 * (-t3 + 2*t2 - t),
			0.5 * (3*t3 - 5*t2 + 2),
			0.5 * (-3*t3 + 4*t2 + t),
			0.5 * (t3 - t2),
		}
	}
	wx := weight(fx)
	wy := weight(fy)

	var acc float64
	for j := 0; j < 4; j++ {
		var row float64
		for i := 0; i < 4; i++ {
			row += wx[i] * at(x0-1+i, y0-1+j)
		}
		acc += wy[j] * row
	}
	return acc
}
