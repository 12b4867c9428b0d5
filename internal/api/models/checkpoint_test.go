package models

import (
	"strings"
	"testing"
)

func TestSaveCheckpointRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SaveCheckpointRequest
		wantErr int
	}{
		{"valid", SaveCheckpointRequest{PlaybackTime: 42, Duration: 120}, 0},
		{"zero values", SaveCheckpointRequest{}, 0},
		{"unknown duration", SaveCheckpointRequest{PlaybackTime: 3, Duration: 0}, 0},
		{"negative playback time", SaveCheckpointRequest{PlaybackTime: -1, Duration: 120}, 1},
		{"negative duration", SaveCheckpointRequest{PlaybackTime: 10, Duration: -5}, 1},
		{"both negative", SaveCheckpointRequest{PlaybackTime: -1, Duration: -1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if len(errs) != tt.wantErr {
				t.Errorf("Validate() returned %d errors, want %d: %v", len(errs), tt.wantErr, errs)
			}
		})
	}
}

func TestValidContentID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"intro-to-calculus", true},
		{"lesson1", true},
		{"a", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"Upper-Case", false},
		{"has space", false},
		{"slash/bad", false},
		{strings.Repeat("a", MaxContentIDLength), true},
		{strings.Repeat("a", MaxContentIDLength+1), false},
	}

	for _, tt := range tests {
		if got := ValidContentID(tt.id); got != tt.want {
			t.Errorf("ValidContentID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
