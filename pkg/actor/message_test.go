package actor

import "testing"

func TestPackUnpackSizeTypeRoundTrip(t *testing.T) {
	cases := []struct {
		size int
		typ  PType
	}{
		{0, PTypeText},
		{1, PTypeResponse},
		{MaxPayloadSize, PTypeClient},
		{12345, PTypeError},
	}
	for _, c := range cases {
		packed := PackSizeType(c.size, c.typ)
		size, typ := UnpackSizeType(packed)
		if size != c.size || typ != c.typ {
			t.Errorf("PackSizeType(%d,%d) -> Unpack = (%d,%d), want (%d,%d)", c.size, c.typ, size, typ, c.size, c.typ)
		}
	}
}
