package anonymise

import "testing"

func TestHashUID_PreservesPrefixAndLength(t *testing.T) {
	uid := "1.2.124.113532.10.122.1.203.20051130.122937.2950157"
	salt := []byte("PIXL")

	got := HashUID(uid, salt)

	prefix := "1.2.124.113532"
	if got[:len(prefix)] != prefix {
		t.Fatalf("prefix not preserved: got %q", got)
	}

	in := splitDots(uid)
	out := splitDots(got)
	if len(in) != len(out) {
		t.Fatalf("segment count changed: in=%d out=%d", len(in), len(out))
	}
	for i := 4; i < len(in); i++ {
		if len(out[i]) > len(in[i]) {
			t.Fatalf("segment %d grew: in=%q out=%q", i, in[i], out[i])
		}
		if len(out[i]) > 1 && out[i][0] == '0' {
			t.Fatalf("segment %d has disallowed leading zero: %q", i, out[i])
		}
	}
}

func TestHashUID_Deterministic(t *testing.T) {
	uid := "1.2.840.10008.5.1.4.1.1.4.20051130.122937.2950157"
	salt := []byte("PIXL")

	first := HashUID(uid, salt)
	second := HashUID(uid, salt)
	if first != second {
		t.Fatalf("hash-uid is not deterministic: %q vs %q", first, second)
	}
}

func TestHashUID_DifferentSaltDifferentOutput(t *testing.T) {
	uid := "1.2.840.10008.5.1.4.1.1.4.20051130.122937.2950157"
	a := HashUID(uid, []byte("PIXL"))
	b := HashUID(uid, []byte("OTHER"))
	if a == b {
		t.Fatalf("expected different salts to produce different UIDs")
	}
}

func splitDots(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
