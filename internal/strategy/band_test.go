package strategy

import (
	"testing"
)

func TestComputeBand(t *testing.T) {
	tests := []struct {
		name      string
		high      float64
		low       float64
		wantRange float64
		wantUpper float64
		wantLower float64
	}{
		{
			name:      "simple band",
			high:      100.0,
			low:       90.0,
			wantRange: 10.0,
			wantUpper: 110.0,
			wantLower: 80.0,
		},
		{
			name:      "fractional band",
			high:      101.5,
			low:       99.25,
			wantRange: 2.25,
			wantUpper: 103.75,
			wantLower: 97.0,
		},
		{
			name:      "zero range",
			high:      50.0,
			low:       50.0,
			wantRange: 0.0,
			wantUpper: 50.0,
			wantLower: 50.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := ComputeBand(tt.high, tt.low)
			if band.Range != tt.wantRange {
				t.Errorf("ComputeBand() range = %v, want %v", band.Range, tt.wantRange)
			}
			if band.Upper != tt.wantUpper {
				t.Errorf("ComputeBand() upper = %v, want %v", band.Upper, tt.wantUpper)
			}
			if band.Lower != tt.wantLower {
				t.Errorf("ComputeBand() lower = %v, want %v", band.Lower, tt.wantLower)
			}
		})
	}
}

func TestBuyTrigger(t *testing.T) {
	tests := []struct {
		name string
		high float64
		want float64
	}{
		{name: "fractional high rounds up", high: 114.25, want: 115.0},
		{name: "barely fractional high rounds up", high: 114.01, want: 115.0},
		{name: "whole high unchanged", high: 115.0, want: 115.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuyTrigger(tt.high); got != tt.want {
				t.Errorf("BuyTrigger(%v) = %v, want %v", tt.high, got, tt.want)
			}
		})
	}
}

func TestSellTrigger(t *testing.T) {
	tests := []struct {
		name string
		low  float64
		want float64
	}{
		{name: "fractional low rounds down", low: 94.75, want: 94.0},
		{name: "barely fractional low rounds down", low: 94.99, want: 94.0},
		{name: "whole low unchanged", low: 94.0, want: 94.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SellTrigger(tt.low); got != tt.want {
				t.Errorf("SellTrigger(%v) = %v, want %v", tt.low, got, tt.want)
			}
		})
	}
}
