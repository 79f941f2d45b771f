// internal/heatmap/rect.go - Rectangle normalization
package heatmap

// Normalize canonicalizes two arbitrary corner points into a Rectangle whose
// TopLeft is the north-west corner. The two axes are handled independently,
// so the inputs need not be diagonal corners of a valid rectangle; the
// result always satisfies the Rectangle invariant. Pure and idempotent.
func Normalize(a, b MapPoint) Rectangle {
	if a.Lat < b.Lat {
		a.Lat, b.Lat = b.Lat, a.Lat
	}
	if a.Long > b.Long {
		a.Long, b.Long = b.Long, a.Long
	}
	return Rectangle{TopLeft: a, BottomRight: b}
}

// Normalized returns the rectangle with its corners re-canonicalized
func (r Rectangle) Normalized() Rectangle {
	return Normalize(r.TopLeft, r.BottomRight)
}
