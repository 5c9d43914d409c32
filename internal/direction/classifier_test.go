package direction

import "testing"

func classifiers() map[string]Classifier {
	return map[string]Classifier{
		"axis-max": AxisMax{Epsilon: DefaultEpsilon},
		"dot":      DotProduct{Epsilon: DefaultEpsilon, MinCos: Cos45},
	}
}

func TestClassifyBelowEpsilon(t *testing.T) {
	start := Vec3{X: 0.3, Y: 1.2, Z: -0.4}
	small := []Vec3{
		{},
		{X: 0.005},
		{Y: -0.009},
		{X: 0.004, Y: 0.004, Z: 0.004},
	}
	for name, c := range classifiers() {
		for _, d := range small {
			if got := c.Classify(start, start.Add(d)); got != None {
				t.Fatalf("%s: expected none for %+v, got %v", name, d, got)
			}
		}
	}
}

func TestClassifyAxisUnitsAreBijective(t *testing.T) {
	for name, c := range classifiers() {
		seen := map[Direction]bool{}
		for _, want := range All {
			got := c.Classify(Vec3{}, want.Unit())
			if got != want {
				t.Fatalf("%s: expected %v for %+v, got %v", name, want, want.Unit(), got)
			}
			if seen[got] {
				t.Fatalf("%s: label %v produced twice", name, got)
			}
			seen[got] = true
		}
		if len(seen) != Count {
			t.Fatalf("%s: expected %d labels, got %d", name, Count, len(seen))
		}
	}
}

func TestClassifyDominantAxis(t *testing.T) {
	c := AxisMax{Epsilon: DefaultEpsilon}
	cases := []struct {
		d    Vec3
		want Direction
	}{
		{Vec3{X: 0.2, Y: 0.1, Z: -0.05}, Right},
		{Vec3{X: -0.2, Y: 0.1}, Left},
		{Vec3{X: 0.05, Y: 0.3, Z: 0.2}, Up},
		{Vec3{Y: -0.3, Z: 0.2}, Down},
		{Vec3{X: 0.1, Z: 0.4}, Forward},
		{Vec3{X: -0.1, Y: 0.1, Z: -0.4}, Back},
	}
	for _, tc := range cases {
		if got := c.Classify(Vec3{}, tc.d); got != tc.want {
			t.Fatalf("expected %v for %+v, got %v", tc.want, tc.d, got)
		}
	}
}

func TestClassifiersDisagreeOnDiagonals(t *testing.T) {
	diag := Vec3{X: 0.1, Y: 0.1}
	if got := (AxisMax{Epsilon: DefaultEpsilon}).Classify(Vec3{}, diag); got != Right {
		t.Fatalf("axis-max should break the x/y tie toward x, got %v", got)
	}
	if got := (DotProduct{Epsilon: DefaultEpsilon, MinCos: Cos45}).Classify(Vec3{}, diag); got != None {
		t.Fatalf("dot product should reject an exact diagonal, got %v", got)
	}
}

func TestParseClassifier(t *testing.T) {
	c, err := ParseClassifier("dot", 0.02)
	if err != nil {
		t.Fatalf("parse dot: %v", err)
	}
	if _, ok := c.(DotProduct); !ok {
		t.Fatalf("expected DotProduct, got %T", c)
	}
	c, err = ParseClassifier("", 0.02)
	if err != nil {
		t.Fatalf("parse default: %v", err)
	}
	if _, ok := c.(AxisMax); !ok {
		t.Fatalf("expected AxisMax default, got %T", c)
	}
	if _, err := ParseClassifier("angle", 0.02); err == nil {
		t.Fatalf("expected error for unknown classifier")
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range All {
		got, err := Parse(d.String())
		if err != nil || got != d {
			t.Fatalf("parse %q: got %v, %v", d.String(), got, err)
		}
		got, err = Parse(d.Arrow())
		if err != nil || got != d {
			t.Fatalf("parse %q: got %v, %v", d.Arrow(), got, err)
		}
	}
	if _, err := Parse("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
