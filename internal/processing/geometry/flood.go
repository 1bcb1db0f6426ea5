package geometry

// FloodGround marks every pixel reachable from the bottom row without
// crossing an edge. edges holds one byte per pixel, non-zero on an edge.
// The result holds 1 for ground and 0 elsewhere.
func FloodGround(edges []uint8, w, h int) []uint8 {
	mask := make([]uint8, w*h)
	if w <= 0 || h <= 0 || len(edges) != w*h {
		return mask
	}

	queue := make([]int, 0, w)
	for x := 0; x < w; x++ {
		i := (h-1)*w + x
		if edges[i] == 0 {
			mask[i] = 1
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w

		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			nx, ny := n[0], n[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			j := ny*w + nx
			if mask[j] == 0 && edges[j] == 0 {
				mask[j] = 1
				queue = append(queue, j)
			}
		}
	}
	return mask
}

// RestrictBelow clears every row above horizon
func RestrictBelow(mask []uint8, w, horizon int) {
	end := horizon * w
	if end > len(mask) {
		end = len(mask)
	}
	for i := 0; i < end; i++ {
		mask[i] = 0
	}
}
