package anonymise

import "testing"

func TestShiftTime(t *testing.T) {
	cases := []struct {
		in     string
		offset int
		want   string
	}{
		{"153000.000000", 5, "103000.000000"},
		{"013000", 5, "203000"},
		{"000000", 1, "230000"},
	}
	for _, c := range cases {
		got, err := ShiftTime(c.in, c.offset)
		if err != nil {
			t.Fatalf("ShiftTime(%q, %d): %v", c.in, c.offset, err)
		}
		if got != c.want {
			t.Errorf("ShiftTime(%q, %d) = %q, want %q", c.in, c.offset, got, c.want)
		}
	}
}

func TestShiftTime_RejectsTooShort(t *testing.T) {
	if _, err := ShiftTime("1", 5); err == nil {
		t.Fatalf("expected error for too-short time value")
	}
}
