package detect

import "image"

// minBlobPixels is the smallest component that still counts as a disc;
// anything under it falls through to the next tier.
const minBlobPixels = 3

// blobCentroid labels connected components in the threshold mask
// (4-connectivity), picks the component with the largest pixel count, and
// returns its brightness-weighted centroid.
type blobCentroid struct{}

func (blobCentroid) detect(g *brightness, mask []bool) (Result, bool) {
	labels := make([]int32, len(mask))
	var sizes []int // sizes[label-1] = pixel count

	next := int32(1)
	queue := make([]int, 0, 64)

	for start, marked := range mask {
		if !marked || labels[start] != 0 {
			continue
		}

		label := next
		next++
		size := 0

		queue = append(queue[:0], start)
		labels[start] = label
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			size++

			x, y := idx%g.width, idx/g.width
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= g.width || ny < 0 || ny >= g.height {
					continue
				}
				nidx := ny*g.width + nx
				if mask[nidx] && labels[nidx] == 0 {
					labels[nidx] = label
					queue = append(queue, nidx)
				}
			}
		}
		sizes = append(sizes, size)
	}

	if len(sizes) == 0 {
		return Result{}, false
	}

	largest := int32(1)
	for i, size := range sizes {
		if size > sizes[largest-1] {
			largest = int32(i + 1)
		}
	}
	if sizes[largest-1] < minBlobPixels {
		return Result{}, false
	}

	var sumX, sumY, sumW float64
	for idx, label := range labels {
		if label != largest {
			continue
		}
		w := float64(g.px[idx])
		sumX += float64(idx%g.width) * w
		sumY += float64(idx/g.width) * w
		sumW += w
	}
	if sumW == 0 {
		return Result{}, false
	}

	return Result{
		Center:   g.point(sumX/sumW, sumY/sumW),
		Area:     sizes[largest-1],
		Strategy: "blob",
	}, true
}

// weightedCentroid averages all threshold pixels weighted by brightness,
// without component analysis. It refuses masks smaller than minPixels,
// where a centroid would amount to chasing noise.
type weightedCentroid struct {
	minPixels int
}

func (s weightedCentroid) detect(g *brightness, mask []bool) (Result, bool) {
	var sumX, sumY, sumW float64
	count := 0

	for idx, marked := range mask {
		if !marked {
			continue
		}
		count++
		w := float64(g.px[idx])
		sumX += float64(idx%g.width) * w
		sumY += float64(idx/g.width) * w
		sumW += w
	}

	if count < s.minPixels || sumW == 0 {
		return Result{}, false
	}

	return Result{
		Center:   g.point(sumX/sumW, sumY/sumW),
		Area:     count,
		Strategy: "weighted",
	}, true
}

// brightestPixel returns the location of the single brightest pixel. It
// never fails on a non-empty grid, making it the terminal fallback.
type brightestPixel struct{}

func (brightestPixel) detect(g *brightness, _ []bool) (Result, bool) {
	best := 0
	for i, v := range g.px {
		if v > g.px[best] {
			best = i
		}
	}

	return Result{
		Center:   image.Point{X: g.origin.X + best%g.width, Y: g.origin.Y + best/g.width},
		Strategy: "brightest",
	}, true
}
