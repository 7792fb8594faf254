package ocr

import "testing"

func TestMeanConfidence(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "no words", values: nil, want: 0},
		{name: "single word", values: []float64{87.5}, want: 87.5},
		{name: "several words", values: []float64{90, 80, 70}, want: 80},
		{name: "all zero", values: []float64{0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := meanConfidence(tt.values)
			if got != tt.want {
				t.Errorf("meanConfidence(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestNewTesseractFactory_DefaultLanguage(t *testing.T) {
	f := NewTesseractFactory(Options{})
	if f.opts.Language != "eng" {
		t.Errorf("default language = %q, want %q", f.opts.Language, "eng")
	}
}
