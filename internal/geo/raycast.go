package geo

// polygonContains tests point containment against one polygon: inside the
// outer ring and not inside any hole.
func polygonContains(p polygon, lat, lon float64) bool {
	if !ringContains(p.outer, lat, lon) {
		return false
	}
	for _, h := range p.holes {
		if ringContains(h, lat, lon) {
			return false
		}
	}
	return true
}

// ringContains is a ray-casting test counting crossings of a horizontal ray
// to the east of the point. Points lying exactly on a ring edge count as
// inside, so border reports attribute to the country rather than vanishing.
func ringContains(r ring, lat, lon float64) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		x1, y1 := r[i][0], r[i][1]
		x2, y2 := r[j][0], r[j][1]

		if onSegment(x1, y1, x2, y2, lon, lat) {
			return true
		}

		if (y1 > lat) != (y2 > lat) {
			xCross := x1 + (lat-y1)*(x2-x1)/(y2-y1)
			if lon < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

const onEdgeEpsilon = 1e-9

// onSegment reports whether (px, py) lies on the segment (x1,y1)-(x2,y2).
func onSegment(x1, y1, x2, y2, px, py float64) bool {
	cross := (px-x1)*(y2-y1) - (py-y1)*(x2-x1)
	if cross > onEdgeEpsilon || cross < -onEdgeEpsilon {
		return false
	}
	if px < min64(x1, x2)-onEdgeEpsilon || px > max64(x1, x2)+onEdgeEpsilon {
		return false
	}
	if py < min64(y1, y2)-onEdgeEpsilon || py > max64(y1, y2)+onEdgeEpsilon {
		return false
	}
	return true
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
