package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"nl", "nl"},
		{"NL", "nl"},
		{"nld", "nl"},
		{"dut", "nl"},
		{"dutch", "nl"},
		{"Dutch", "nl"},
		{"en", "en"},
		{"eng", "en"},
		{"deu", "de"},
		{"ger", "de"},
		{"fre", "fr"},
		{" nl ", "nl"},
		// Unknown 2-letter codes pass through.
		{"xx", "xx"},
		// Unknown longer forms are rejected.
		{"klingon", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("nl") || !Supported("dutch") {
		t.Fatal("expected Dutch to be supported")
	}
	if Supported("xx") {
		t.Fatal("xx should not be supported")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"nl", "Dutch"},
		{"nld", "Dutch"},
		{"en", "English"},
		{"xx", "XX"},
		{"", "Unknown"},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.input); got != tc.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
