package geom

import "math"

// CatmullRom samples the centripetal Catmull-Rom segment between p1 and p2,
// using p0 and p3 as control points. The result starts at p1 and ends at p2.
func CatmullRom(p0, p1, p2, p3 Vec, steps int) []Vec {
	if steps < 1 {
		steps = 1
	}

	const alpha = 0.5
	knot := func(t float64, a, b Vec) float64 {
		d := a.DistanceTo(b)
		if d < 1e-9 {
			d = 1e-9
		}
		return t + math.Pow(d, alpha)
	}

	t0 := 0.0
	t1 := knot(t0, p0, p1)
	t2 := knot(t1, p1, p2)
	t3 := knot(t2, p2, p3)

	mix := func(a, b Vec, ta, tb, t float64) Vec {
		return a.Mulf((tb - t) / (tb - ta)).Add(b.Mulf((t - ta) / (tb - ta)))
	}

	out := make([]Vec, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		t := Lerp(t1, t2, float64(i)/float64(steps))
		a1 := mix(p0, p1, t0, t1, t)
		a2 := mix(p1, p2, t1, t2, t)
		a3 := mix(p2, p3, t2, t3, t)
		b1 := mix(a1, a2, t0, t2, t)
		b2 := mix(a2, a3, t1, t3, t)
		out = append(out, mix(b1, b2, t1, t2, t))
	}
	return append(out, p2)
}
