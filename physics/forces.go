package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// applyLink pulls linked nodes toward the rest length. Positions are predicted one
// step ahead and the correction is split by the endpoints' degrees.
func (s *Simulation) applyLink() {
	for _, l := range s.links {
		d := r2.Sub(r2.Add(l.target.pos, l.target.vel), r2.Add(l.source.pos, l.source.vel))
		if d.X == 0 {
			d.X = s.jiggle()
		}
		if d.Y == 0 {
			d.Y = s.jiggle()
		}
		dist := r2.Norm(d)
		k := (dist - s.params.LinkDistance) / dist * s.alpha * l.strength
		d = r2.Scale(k, d)
		l.target.vel = r2.Sub(l.target.vel, r2.Scale(l.bias, d))
		l.source.vel = r2.Add(l.source.vel, r2.Scale(1-l.bias, d))
	}
}

// applyCharge repels every pair of nodes. The pairwise loop is quadratic, which is
// fine for the few dozen nodes a dashboard view carries.
func (s *Simulation) applyCharge() {
	strength := s.params.ChargeStrength * s.alpha
	for i, a := range s.order {
		for j, b := range s.order {
			if i == j {
				continue
			}
			d := r2.Sub(b.pos, a.pos)
			if d.X == 0 {
				d.X = s.jiggle()
			}
			if d.Y == 0 {
				d.Y = s.jiggle()
			}
			l := r2.Norm2(d)
			if l < s.params.DistanceMinSqrd {
				l = math.Sqrt(s.params.DistanceMinSqrd * l)
			}
			a.vel = r2.Add(a.vel, r2.Scale(strength/l, d))
		}
	}
}

// applyCollide pushes overlapping nodes apart. The correction is not scaled by alpha
// so separation holds even at the residual energy.
func (s *Simulation) applyCollide() {
	strength := s.params.CollideStrength
	for i, a := range s.order {
		ri := a.radius
		ri2 := ri * ri
		pi := r2.Add(a.pos, a.vel)
		for _, b := range s.order[i+1:] {
			rj := b.radius
			r := ri + rj
			d := r2.Sub(pi, r2.Add(b.pos, b.vel))
			l := r2.Norm2(d)
			if l >= r*r {
				continue
			}
			if d.X == 0 {
				d.X = s.jiggle()
				l += d.X * d.X
			}
			if d.Y == 0 {
				d.Y = s.jiggle()
				l += d.Y * d.Y
			}
			l = math.Sqrt(l)
			k := (r - l) / l * strength
			d = r2.Scale(k, d)
			share := rj * rj / (ri2 + rj*rj)
			a.vel = r2.Add(a.vel, r2.Scale(share, d))
			b.vel = r2.Sub(b.vel, r2.Scale(1-share, d))
		}
	}
}

// applyGroupX draws each node toward its group's horizontal band
func (s *Simulation) applyGroupX() {
	k := s.params.GroupXStrength * s.alpha
	for _, b := range s.order {
		target := s.params.TargetX(b.group, s.viewport)
		b.vel.X += (target - b.pos.X) * k
	}
}

// applyCenter keeps the layout near the middle, vertically much more than horizontally
func (s *Simulation) applyCenter() {
	cx, cy := s.viewport.Width/2, s.viewport.Height/2
	kx := s.params.CenterXStrength * s.alpha
	ky := s.params.CenterYStrength * s.alpha
	for _, b := range s.order {
		b.vel.X += (cx - b.pos.X) * kx
		b.vel.Y += (cy - b.pos.Y) * ky
	}
}
