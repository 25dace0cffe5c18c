package tlv

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNextField(t *testing.T) {
	buf := Hex(
		"C0 02 3132",   // field 0
		"C1 00",        // empty field
		"C2 03 AABBCC", // field 2
	)

	tests := []struct {
		name     string
		offset   int
		want     []byte
		wantNext int
	}{
		{"First field", 0, Hex("3132"), 4},
		{"Empty field", 4, []byte{}, 6},
		{"Last field", 6, Hex("AABBCC"), 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, err := NextField(buf, tt.offset)
			if err != nil {
				t.Fatalf("NextField() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
			if next != tt.wantNext {
				t.Errorf("next = %d, want %d", next, tt.wantNext)
			}
		})
	}
}

func TestNextField_Truncated(t *testing.T) {
	tests := []struct {
		name       string
		buf        []byte
		offset     int
		wantLength int
	}{
		{"Value runs past end", Hex("C0 05 3132"), 0, 5},
		{"Header cut after tag", Hex("C0 01 31 C1"), 3, -1},
		{"Offset at end", Hex("C0 01 31"), 3, -1},
		{"Offset beyond end", Hex("C0 01 31"), 10, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NextField(tt.buf, tt.offset)

			var trunc *TruncatedFieldError
			if !errors.As(err, &trunc) {
				t.Fatalf("expected *TruncatedFieldError, got %v", err)
			}
			if trunc.Length != tt.wantLength {
				t.Errorf("Length = %d, want %d", trunc.Length, tt.wantLength)
			}
			if trunc.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", trunc.Offset, tt.offset)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	buf := Hex("C0 01 01", "C1 02 0203", "C2 00", "FF FF") // trailing bytes are not read

	values, end, err := Split(buf, 3)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	want := [][]byte{Hex("01"), Hex("0203"), {}}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if end != 9 {
		t.Errorf("end = %d, want 9", end)
	}

	if _, _, err := Split(buf, 5); err == nil {
		t.Error("expected error when asking for more fields than present")
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		const count = 35
		tags := make([]byte, count)
		values := make([][]byte, count)
		for i := range values {
			tags[i] = byte(0xC0 + i)
			values[i] = make([]byte, rng.Intn(64))
			rng.Read(values[i])
		}

		encoded := Join(tags, values)

		got, end, err := Split(encoded, count)
		if err != nil {
			t.Fatalf("round %d: Split() error: %v", round, err)
		}
		if end != len(encoded) {
			t.Fatalf("round %d: end = %d, want %d", round, end, len(encoded))
		}
		if diff := cmp.Diff(encoded, Join(tags, got)); diff != "" {
			t.Fatalf("round %d: re-join mismatch (-want +got):\n%s", round, diff)
		}
	}
}

func TestJoin_PanicsOnLongValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Join(nil, [][]byte{make([]byte, 256)})
}
