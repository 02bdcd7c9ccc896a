package texsource

import (
	"math"
	"testing"
)

func TestFitExamples(t *testing.T) {
	tests := []struct {
		name      string
		src       Size
		aspect    float64
		want      Size
		wantScale Vec2
	}{
		{"landscape to square", Size{1920, 1080}, 1, Size{1080, 1080}, V2(1920.0/1080, 1)},
		{"portrait to 16:9", Size{1080, 1920}, 16.0 / 9, Size{1080, 608}, V2(1, 1920.0/608)},
		{"already fitted", Size{1280, 720}, 16.0 / 9, Size{1280, 720}, V2(1, 1)},
		{"round to even", Size{100, 100}, 1.05, Size{100, 96}, V2(1, 100.0/96)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, scale := Fit(tt.src, tt.aspect)
			if got != tt.want {
				t.Errorf("Fit(%v, %v) size = %v, want %v", tt.src, tt.aspect, got, tt.want)
			}
			if !vecNear(scale, tt.wantScale) {
				t.Errorf("Fit(%v, %v) scale = %v, want %v", tt.src, tt.aspect, scale, tt.wantScale)
			}
		})
	}
}

func TestFitDegenerateInput(t *testing.T) {
	tests := []struct {
		name   string
		src    Size
		aspect float64
	}{
		{"zero width", Size{0, 10}, 1},
		{"negative height", Size{10, -1}, 1},
		{"zero aspect", Size{10, 10}, 0},
		{"nan aspect", Size{10, 10}, math.NaN()},
		{"inf aspect", Size{10, 10}, math.Inf(1)},
		{"single row", Size{3, 1}, 1},
		{"single column tall target", Size{1, 1000}, 1000},
		{"single pixel", Size{1, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, scale := Fit(tt.src, tt.aspect)
			if got != (Size{}) || scale != V2(1, 1) {
				t.Errorf("Fit() = %v, %v, want zero size and (1,1)", got, scale)
			}
		})
	}
}

func TestFitProperties(t *testing.T) {
	sizes := []Size{{640, 480}, {480, 640}, {1920, 1080}, {1081, 1921}, {333, 777}, {4000, 3000}, {101, 100}, {2, 2}, {3, 1000}, {1000, 3}}
	aspects := []float64{0.5, 9.0 / 16, 0.75, 1, 4.0 / 3, 16.0 / 9, 2.39}

	for _, src := range sizes {
		for _, a := range aspects {
			dst, scale := Fit(src, a)

			if dst.W%2 != 0 || dst.H%2 != 0 {
				t.Errorf("Fit(%v, %.3f) = %v, want even dimensions", src, a, dst)
			}
			if dst.W > src.W || dst.H > src.H {
				t.Errorf("Fit(%v, %.3f) = %v exceeds source", src, a, dst)
			}
			// One axis passes through, the other is within rounding of the aspect.
			if scale.Y == 1 {
				if math.Abs(float64(dst.W)-float64(src.H)*a) > 1+a {
					t.Errorf("Fit(%v, %.3f) width %d far from %.1f", src, a, dst.W, float64(src.H)*a)
				}
			} else if scale.X == 1 {
				if math.Abs(float64(dst.H)-float64(src.W)/a) > 1+1/a {
					t.Errorf("Fit(%v, %.3f) height %d far from %.1f", src, a, dst.H, float64(src.W)/a)
				}
			} else {
				t.Errorf("Fit(%v, %.3f) scale %v scales both axes", src, a, scale)
			}

			again, first := Fit(src, a)
			if again != dst || first != scale {
				t.Errorf("Fit(%v, %.3f) not deterministic", src, a)
			}
		}
	}
}

func TestFitIdempotent(t *testing.T) {
	sizes := []Size{{640, 480}, {1920, 1080}, {1080, 1920}, {1000, 1000}}
	aspects := []float64{0.5, 0.75, 1, 16.0 / 9, 2}

	for _, src := range sizes {
		for _, a := range aspects {
			dst, _ := Fit(src, a)
			_, scale := Fit(dst, a)
			if math.Abs(scale.X-1) > 0.01 || math.Abs(scale.Y-1) > 0.01 {
				t.Errorf("Fit(Fit(%v, %.3f)) scale = %v, want about (1,1)", src, a, scale)
			}
		}
	}
}
