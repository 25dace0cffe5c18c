package tlv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   []byte
	}{
		{
			name:   "select common data file",
			inputs: []string{"00 A4 02 0C", "02 2F01"},
			want:   []byte{0x00, 0xA4, 0x02, 0x0C, 0x02, 0x2F, 0x01},
		},
		{
			name:   "tag and length then JIS text",
			inputs: []string{"12 04", "3B33 4544"},
			want:   []byte{0x12, 0x04, 0x3B, 0x33, 0x45, 0x44},
		},
		{
			name:   "lower case trailer",
			inputs: []string{"63c2"},
			want:   []byte{0x63, 0xC2},
		},
		{
			name:   "nothing",
			inputs: nil,
			want:   []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Hex(tt.inputs...)); diff != "" {
				t.Errorf("Hex() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHex_PanicsOnBadFixture(t *testing.T) {
	for _, in := range []string{"9G00", "900"} {
		t.Run(in, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Hex(%q) did not panic", in)
				}
			}()
			Hex(in)
		})
	}
}
