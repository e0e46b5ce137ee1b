package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		name  string
		value int
		cfg   PageSizeConfig
		want  int
	}{
		{name: "zero uses default", value: 0, cfg: cfg, want: 20},
		{name: "negative uses default", value: -4, cfg: cfg, want: 20},
		{name: "within range", value: 7, cfg: cfg, want: 7},
		{name: "above max", value: 500, cfg: cfg, want: 100},
		{name: "no default", value: 0, cfg: PageSizeConfig{}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPageSize(tt.value, tt.cfg); got != tt.want {
				t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
