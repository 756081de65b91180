package physics

import (
	"math"

	"github.com/TFMV/liquiditymap/models"
)

// NarrowBreakpoint is the viewport width below which the compact constants apply
const NarrowBreakpoint = 768.0

// Viewport is the drawable surface the layout targets
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is the fixed-height wide surface of the dashboard
var DefaultViewport = Viewport{Width: 1200, Height: 600}

// Narrow reports whether the compact constants apply
func (vp Viewport) Narrow() bool {
	return vp.Width < NarrowBreakpoint
}

// Valid reports whether both dimensions are positive and finite
func (vp Viewport) Valid() bool {
	return vp.Width > 0 && vp.Height > 0 && !math.IsInf(vp.Width, 0) && !math.IsInf(vp.Height, 0)
}

// Params holds the viewport-dependent force and sizing constants
type Params struct {
	LinkDistance     float64
	ChargeStrength   float64
	BaseRadius       float64
	PerWeightScale   float64
	CollidePadding   float64
	CollideStrength  float64
	GroupX           map[models.Group]float64 // fraction of viewport width
	GroupXStrength   float64
	CenterXStrength  float64
	CenterYStrength  float64
	DistanceMinSqrd  float64
	InitialRadius    float64
	CollideIteration int
}

// ParamsFor returns the constants for a viewport. Wide viewports spread the layout
// with longer links and stronger repulsion; narrow ones shrink bubbles and forces.
func ParamsFor(vp Viewport) Params {
	p := Params{
		LinkDistance:     120,
		ChargeStrength:   -600,
		BaseRadius:       35,
		PerWeightScale:   4.5,
		CollidePadding:   15,
		CollideStrength:  1,
		GroupXStrength:   0.1,
		CenterXStrength:  0.01,
		CenterYStrength:  0.08,
		DistanceMinSqrd:  1,
		InitialRadius:    10,
		CollideIteration: 2,
		GroupX: map[models.Group]float64{
			models.GroupOnshore:  0.35,
			models.GroupOffshore: 0.65,
			models.GroupFed:      0.5,
		},
	}
	if vp.Narrow() {
		p.LinkDistance = 80
		p.ChargeStrength = -250
		p.BaseRadius = 22
		p.PerWeightScale = 3
		p.CollidePadding = 8
		p.GroupX = map[models.Group]float64{
			models.GroupOnshore:  0.30,
			models.GroupOffshore: 0.70,
			models.GroupFed:      0.5,
		}
	}
	return p
}

// TargetX returns the horizontal attractor for a group
func (p Params) TargetX(group models.Group, vp Viewport) float64 {
	frac, ok := p.GroupX[group]
	if !ok {
		frac = 0.5
	}
	return frac * vp.Width
}

// Radius is the bubble radius for a weight at a viewport width. The collision force
// and every renderer size nodes with this function.
func Radius(weight, width float64) float64 {
	p := ParamsFor(Viewport{Width: width})
	return p.BaseRadius + weight*p.PerWeightScale
}

// CollisionRadius is the radius the collision force keeps clear around a node
func CollisionRadius(weight, width float64) float64 {
	return Radius(weight, width) + ParamsFor(Viewport{Width: width}).CollidePadding
}

// LabelSizes returns the code and value label font sizes for a bubble radius
func LabelSizes(radius float64) (code, value float64) {
	return math.Min(radius/2, 14), math.Min(radius/2.5, 11)
}
