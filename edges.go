package autocal

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/erh/autocal/calib"
	"github.com/erh/autocal/imgutils"
)

// dirVectors8 maps the 8 quantized gradient directions (multiples of 45
// degrees, counterclockwise from +x) to unit step vectors (dx, dy).
var dirVectors8 = [8][2]float64{
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{-1, -1},
	{0, -1},
	{1, -1},
}

// stencilOffsets walks one pixel along the gradient and two against it.
var stencilOffsets = [4]float64{-2, -1, 0, 1}

// EdgeRecord is one depth-edge candidate. Records are created at IR
// candidates and progressively invalidated; the filter chain never revives a
// record.
type EdgeRecord struct {
	X, Y   int     // integer pixel location on the depth image
	Dir    int     // 8-bin quantized gradient direction
	Offset float64 // sub-pixel shift along the direction vector
	SubX   float64 // refined sub-pixel location
	SubY   float64

	GradIR  float64 // IR edge magnitude at the candidate
	GradZ   float64 // depth gradient magnitude along the direction
	Depth   float64 // minimum depth over the stencil, raw units
	Section int     // coarse spatial bin
	Weight  float64

	Vertex r3.Vector // deprojected 3D point, set once PassedDepth holds
	UV     r2.Point  // projection into the color image under the initial model

	PassedIR    bool
	PassedNMS   bool
	PassedDepth bool
	Inside      bool
}

// Valid reports whether the record survived every filter stage.
func (e *EdgeRecord) Valid() bool {
	return e.PassedIR && e.PassedNMS && e.PassedDepth && e.Inside
}

// Dir4 folds the 8 directions onto 4 (opposite directions share an edge
// orientation).
func (e *EdgeRecord) Dir4() int { return e.Dir % 4 }

func quantizeDirection8(gx, gy float64) int {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return int(math.Round(angle/45)) % 8
}

// parabolicOffset fits a parabola through three consecutive gradient samples
// and returns the peak offset relative to the center sample. Flat curvature
// falls back to zero.
func parabolicOffset(s2, s3, s4 float64) float64 {
	denom := s4 + s2 - 2*s3
	if denom == 0 {
		return 0
	}
	return -0.5 * (s4 - s2) / denom
}

func sectionIndex(x, y, width, height, sectionsX, sectionsY int) int {
	cellW := (width + sectionsX - 1) / sectionsX
	cellH := (height + sectionsY - 1) / sectionsY
	return (y/cellH)*sectionsX + x/cellW
}

// buildEdges runs the full localization chain over the ingested frames.
func (o *Optimizer) buildEdges() {
	z := &o.depth
	ir := &o.ir
	w, h := z.frame.Width(), z.frame.Height()

	p := o.color.model.ProjectionMatrix()
	cIntr := o.color.model.Intrinsics
	cDist := o.color.model.Distortion
	cw := float64(cIntr.Width)
	ch := float64(cIntr.Height)

	records := make([]EdgeRecord, 0, 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mag := ir.edges.At(x, y)
			if mag <= o.params.GradIRThreshold {
				continue
			}
			rec := EdgeRecord{
				X: x, Y: y,
				GradIR:   mag,
				Weight:   o.params.ConstantWeight,
				Section:  sectionIndex(x, y, w, h, o.params.SectionsX, o.params.SectionsY),
				PassedIR: true,
			}
			rec.Dir = quantizeDirection8(ir.gx.At(x, y), ir.gy.At(x, y))
			dx := dirVectors8[rec.Dir][0]
			dy := dirVectors8[rec.Dir][1]

			var s [4]float64
			stencilOK := true
			for k, off := range stencilOffsets {
				s[k] = ir.edges.Bilinear(float64(x)+dx*off, float64(y)+dy*off)
				if s[k] == imgutils.OutOfRange {
					stencilOK = false
					break
				}
			}
			if !stencilOK {
				records = append(records, rec)
				continue
			}

			rec.PassedNMS = s[2] >= s[1] && s[2] >= s[3]
			rec.Offset = parabolicOffset(s[1], s[2], s[3])
			rec.SubX = float64(x) + rec.Offset*dx
			rec.SubY = float64(y) + rec.Offset*dy

			rec.GradZ = o.directionalDepthGradient(float64(x), float64(y), dx, dy)
			rec.Depth = o.minStencilDepth(float64(x), float64(y), dx, dy)

			rec.PassedDepth = rec.PassedNMS &&
				rec.GradZ > o.params.GradZThreshold &&
				rec.Depth > 0

			if rec.PassedDepth {
				rec.Vertex = calib.Deproject(&z.intrinsics, rec.SubX, rec.SubY, rec.Depth*z.units)
				uv, ok := calib.ProjectThroughP(p, cIntr, cDist, rec.Vertex)
				rec.UV = uv
				rec.Inside = ok &&
					uv.X >= 0 && uv.X <= cw-1 &&
					uv.Y >= 0 && uv.Y <= ch-1
			}
			records = append(records, rec)
		}
	}
	z.records = records
	o.collapseValidEdges()
}

// directionalDepthGradient averages the depth gradient over the two stencil
// samples closest to the edge and projects it onto the normalized direction.
func (o *Optimizer) directionalDepthGradient(x, y, dx, dy float64) float64 {
	z := &o.depth
	var mgx, mgy float64
	for _, off := range []float64{-1, 0} {
		sgx := z.gx.Bilinear(x+dx*off, y+dy*off)
		sgy := z.gy.Bilinear(x+dx*off, y+dy*off)
		if sgx == imgutils.OutOfRange || sgy == imgutils.OutOfRange {
			return 0
		}
		mgx += sgx / 2
		mgy += sgy / 2
	}
	// dx,dy components are in {-1,0,1} so |dx|+|dy| equals dx^2+dy^2
	n := math.Sqrt(math.Abs(dx) + math.Abs(dy))
	return math.Abs(mgx*dx/n + mgy*dy/n)
}

// minStencilDepth picks the closest depth along the stencil, so an edge gets
// the depth of the surface it belongs to rather than the background behind
// it.
func (o *Optimizer) minStencilDepth(x, y, dx, dy float64) float64 {
	z := &o.depth
	best := math.Inf(1)
	for _, off := range stencilOffsets {
		d := z.frame.Bilinear(x+dx*off, y+dy*off)
		if d == imgutils.OutOfRange {
			continue
		}
		if d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// collapseValidEdges compacts the surviving records into the vertex and
// weight sets the optimizer consumes.
func (o *Optimizer) collapseValidEdges() {
	z := &o.depth
	z.valid = z.valid[:0]
	z.vertices = z.vertices[:0]
	z.weights = z.weights[:0]
	for i := range z.records {
		if !z.records[i].Valid() {
			continue
		}
		z.valid = append(z.valid, z.records[i])
		z.vertices = append(z.vertices, z.records[i].Vertex)
		z.weights = append(z.weights, z.records[i].Weight)
	}
}

// ZeroInvalidEdges re-gates every record against the current thresholds,
// using the raw IR and depth edge magnitudes at the record's pixel. Useful
// after changing thresholds between runs; it only ever invalidates.
func (o *Optimizer) ZeroInvalidEdges() {
	z := &o.depth
	for i := range z.records {
		rec := &z.records[i]
		if o.ir.edges.At(rec.X, rec.Y) <= o.params.GradIRThreshold ||
			z.edges.At(rec.X, rec.Y) <= o.params.GradZThreshold {
			rec.PassedIR = false
			rec.SubX = 0
			rec.SubY = 0
			rec.Depth = 0
		}
	}
	o.collapseValidEdges()
}

// Records exposes every candidate record, including filtered ones.
func (o *Optimizer) Records() []EdgeRecord { return o.depth.records }

// SectionWeights sums the surviving edge weights per section cell.
func (o *Optimizer) SectionWeights() []float64 {
	sums := make([]float64, o.params.SectionsX*o.params.SectionsY)
	for i := range o.depth.valid {
		sums[o.depth.valid[i].Section] += o.depth.valid[i].Weight
	}
	return sums
}
