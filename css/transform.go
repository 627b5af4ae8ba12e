package css

import (
	"math"
	"strings"
)

const deg2rad = math.Pi / 180.0

// Matrix is a 2x3 affine transform matrix, row-major with translation in the
// last column:
//
//	[ A C Tx ]
//	[ B D Ty ]
//
// The matrix is the source of truth; Decomposed is derived for target APIs
// that only accept discrete rotation/scale.
type Matrix struct {
	A, B, C, D, Tx, Ty float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// IsIdentity reports whether the matrix is the identity within a small epsilon.
func (m Matrix) IsIdentity() bool {
	const eps = 1e-9
	return math.Abs(m.A-1) < eps && math.Abs(m.B) < eps &&
		math.Abs(m.C) < eps && math.Abs(m.D-1) < eps &&
		math.Abs(m.Tx) < eps && math.Abs(m.Ty) < eps
}

// Mul returns m×n (n applied first, then m).
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A:  m.A*n.A + m.C*n.B,
		B:  m.B*n.A + m.D*n.B,
		C:  m.A*n.C + m.C*n.D,
		D:  m.B*n.C + m.D*n.D,
		Tx: m.A*n.Tx + m.C*n.Ty + m.Tx,
		Ty: m.B*n.Tx + m.D*n.Ty + m.Ty,
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.Tx, m.B*x + m.D*y + m.Ty
}

// Translated returns the matrix with an additional translation applied after m.
func (m Matrix) Translated(tx, ty float64) Matrix {
	m.Tx += tx
	m.Ty += ty
	return m
}

// Decomposed holds rotation/scale/skew/translation derived from a Matrix.
// Angles are degrees.
type Decomposed struct {
	Rotate     float64
	ScaleX     float64
	ScaleY     float64
	SkewX      float64
	SkewY      float64
	TranslateX float64
	TranslateY float64
}

// Decompose derives discrete rotation/scale/skew components. A degenerate
// (zero determinant) matrix decomposes to zero scale, which round-trips to a
// collapsed matrix - callers should check IsDegenerate first when it matters.
func (m Matrix) Decompose() Decomposed {
	d := Decomposed{TranslateX: m.Tx, TranslateY: m.Ty, ScaleX: 1, ScaleY: 1}

	a, b, c, e := m.A, m.B, m.C, m.D

	sx := math.Hypot(a, b)
	if sx != 0 {
		a /= sx
		b /= sx
	}
	shear := a*c + b*e
	c -= a * shear
	e -= b * shear
	sy := math.Hypot(c, e)
	if sy != 0 {
		shear /= sy
	}

	// A reflection ends up as a negative Y scale so the rotation stays proper.
	if a*e-b*c < 0 {
		c, e = -c, -e
		sy = -sy
		shear = -shear
	}

	d.Rotate = math.Atan2(b, a) / deg2rad
	d.ScaleX = sx
	d.ScaleY = sy
	d.SkewX = math.Atan(shear) / deg2rad
	return d
}

// Recompose builds a matrix back from decomposed components:
// translate ∘ rotate ∘ skewX ∘ scale.
func Recompose(d Decomposed) Matrix {
	m := Identity()
	m.Tx, m.Ty = d.TranslateX, d.TranslateY
	m = m.Mul(rotationMatrix(d.Rotate))
	if d.SkewX != 0 {
		m = m.Mul(Matrix{A: 1, C: math.Tan(d.SkewX * deg2rad), D: 1})
	}
	if d.SkewY != 0 {
		m = m.Mul(Matrix{A: 1, B: math.Tan(d.SkewY * deg2rad), D: 1})
	}
	m = m.Mul(Matrix{A: d.ScaleX, D: d.ScaleY})
	return m
}

// IsDegenerate reports whether the matrix collapses space (zero determinant).
func (m Matrix) IsDegenerate() bool {
	return math.Abs(m.A*m.D-m.B*m.C) < 1e-12
}

func rotationMatrix(deg float64) Matrix {
	sin, cos := math.Sincos(deg * deg2rad)
	return Matrix{A: cos, B: sin, C: -sin, D: cos}
}

// ParseTransform parses a CSS transform function list into one affine matrix.
// 3D functions contribute their 2D projection; a pure Z rotation maps exactly,
// anything else is approximated (which is the documented policy for 3D).
// Returns the identity matrix for "", "none" or unparseable input.
func ParseTransform(raw string) Matrix {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return Identity()
	}

	m := Identity()
	for _, fn := range splitTopLevel(raw) {
		open := strings.IndexByte(fn, '(')
		if open < 0 || !strings.HasSuffix(fn, ")") {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(fn[:open]))
		args := parseNumberList(fn[open+1 : len(fn)-1])
		m = m.Mul(transformFunction(name, args))
	}
	return m
}

// transformFunction builds the matrix of one transform function.
func transformFunction(name string, args []Value) Matrix {
	num := func(i int) float64 {
		if i < len(args) {
			return args[i].Value
		}
		return 0
	}
	px := func(i int) float64 {
		if i < len(args) {
			return args[i].Px(16, 0)
		}
		return 0
	}
	angle := func(i int) float64 {
		if i < len(args) {
			return valueAngleDeg(args[i])
		}
		return 0
	}

	switch name {
	case "matrix":
		if len(args) >= 6 {
			return Matrix{A: num(0), B: num(1), C: num(2), D: num(3), Tx: num(4), Ty: num(5)}
		}
	case "matrix3d":
		// Column-major 4x4; take the 2D-affine part.
		if len(args) >= 16 {
			return Matrix{A: num(0), B: num(1), C: num(4), D: num(5), Tx: num(12), Ty: num(13)}
		}
	case "translate":
		ty := 0.0
		if len(args) > 1 {
			ty = px(1)
		}
		return Matrix{A: 1, D: 1, Tx: px(0), Ty: ty}
	case "translate3d":
		return Matrix{A: 1, D: 1, Tx: px(0), Ty: px(1)}
	case "translatex":
		return Matrix{A: 1, D: 1, Tx: px(0)}
	case "translatey":
		return Matrix{A: 1, D: 1, Ty: px(0)}
	case "scale":
		sy := num(0)
		if len(args) > 1 {
			sy = num(1)
		}
		return Matrix{A: num(0), D: sy}
	case "scale3d":
		return Matrix{A: num(0), D: num(1)}
	case "scalex":
		return Matrix{A: num(0), D: 1}
	case "scaley":
		return Matrix{A: 1, D: num(0)}
	case "rotate", "rotatez":
		return rotationMatrix(angle(0))
	case "skew":
		m := Matrix{A: 1, D: 1, C: math.Tan(angle(0) * deg2rad)}
		if len(args) > 1 {
			m.B = math.Tan(angle(1) * deg2rad)
		}
		return m
	case "skewx":
		return Matrix{A: 1, D: 1, C: math.Tan(angle(0) * deg2rad)}
	case "skewy":
		return Matrix{A: 1, D: 1, B: math.Tan(angle(0) * deg2rad)}
	}
	return Identity()
}

func valueAngleDeg(v Value) float64 {
	switch v.Unit {
	case "rad":
		return v.Value / deg2rad
	case "turn":
		return v.Value * 360.0
	case "grad":
		return v.Value * 0.9
	default:
		return v.Value
	}
}

// parseNumberList splits function arguments at commas or whitespace.
func parseNumberList(s string) []Value {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]Value, 0, len(fields))
	for _, f := range fields {
		out = append(out, ParseValue(f))
	}
	return out
}

// ParseTransformOrigin resolves a CSS transform-origin against a box of the
// given size. Defaults to the box center (CSS initial "50% 50%").
func ParseTransformOrigin(raw string, width, height float64) (ox, oy float64) {
	ox, oy = width/2, height/2
	parts := splitTopLevel(raw)
	if len(parts) == 0 {
		return ox, oy
	}

	axis := func(part string, extent float64) (float64, bool) {
		switch strings.ToLower(part) {
		case "left", "top":
			return 0, true
		case "center":
			return extent / 2, true
		case "right", "bottom":
			return extent, true
		}
		v := ParseValue(part)
		if !v.IsNumeric() {
			return 0, false
		}
		return v.Px(16, extent), true
	}

	if v, ok := axis(parts[0], width); ok {
		ox = v
	}
	if len(parts) > 1 {
		if v, ok := axis(parts[1], height); ok {
			oy = v
		}
	}
	return ox, oy
}
