package helpers

import "testing"

func TestNormalizeMsisdn(t *testing.T) {
	valid := map[string]string{
		"0712345678":    "254712345678",
		"254712345678":  "254712345678",
		"+254712345678": "254712345678",
		"712345678":     "254712345678",
	}
	for input, want := range valid {
		got, ok := NormalizeMsisdn(input)
		if !ok {
			t.Errorf("NormalizeMsisdn(%q): unexpectedly rejected", input)
			continue
		}
		if got != want {
			t.Errorf("NormalizeMsisdn(%q) = %q, want %q", input, got, want)
		}
	}

	invalid := []string{
		"",
		"12345",
		"0812345678",
		"25571234567",
		"07123456789",
		"phone",
		"+1712345678",
	}
	for _, input := range invalid {
		if got, ok := NormalizeMsisdn(input); ok {
			t.Errorf("NormalizeMsisdn(%q) = %q, want rejection", input, got)
		}
	}
}

func TestMaskMsisdn(t *testing.T) {
	if got := MaskMsisdn("254712345678"); got != "2547****678" {
		t.Errorf("MaskMsisdn = %q", got)
	}
	// Short values pass through rather than panic.
	if got := MaskMsisdn("0712"); got != "0712" {
		t.Errorf("MaskMsisdn short = %q", got)
	}
}
