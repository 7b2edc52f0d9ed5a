package vector

import "testing"

func TestInExpr(t *testing.T) {
	s := &MilvusStore{IDField: "product_id"}

	tests := []struct {
		name string
		ids  []int64
		want string
	}{
		{"single", []int64{42}, "product_id in [42]"},
		{"multi", []int64{1, 2, 3}, "product_id in [1,2,3]"},
		{"empty", nil, "product_id in []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.inExpr(tt.ids); got != tt.want {
				t.Fatalf("inExpr(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	in := []float64{0.5, -1.25, 2}
	got := convertToFloat64(convertToFloat32(in))
	if len(got) != len(in) {
		t.Fatalf("len = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], in[i])
		}
	}
}
