package models

import "testing"

func TestParseRenderTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected RenderTarget
	}{
		{"kindle", TargetKindle},
		{"Kindle", TargetKindle},
		{"KINDLE", TargetKindle},
		{"other", TargetOther},
		{"", TargetOther},
		{"eink", TargetOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseRenderTarget(tt.input); got != tt.expected {
				t.Errorf("ParseRenderTarget(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRenderTargetString(t *testing.T) {
	if got := TargetKindle.String(); got != "kindle" {
		t.Errorf("TargetKindle.String() = %q, want kindle", got)
	}
	if got := TargetOther.String(); got != "other" {
		t.Errorf("TargetOther.String() = %q, want other", got)
	}
}
