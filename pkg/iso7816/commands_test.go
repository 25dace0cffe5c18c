package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/jdl-reader/pkg/tlv"
)

func TestCommandBuilders(t *testing.T) {
	readDF1, err := ReadBinarySFI(BasicClass, 1, 0, 0x0370)
	if err != nil {
		t.Fatalf("ReadBinarySFI: %v", err)
	}

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name:     "Select Master File",
			cmd:      SelectMF(BasicClass),
			expected: tlv.Hex("00 A4 00 00"),
		},
		{
			name: "Select EF 2F01 under current DF",
			cmd:  SelectEF(BasicClass, [2]byte{0x2F, 0x01}),
			expected: tlv.Hex(
				"00 A4 02 0C", // P1=02 (EF under DF), P2=0C (No Data)
				"02 2F 01",
			),
		},
		{
			name: "Select DF by name",
			cmd:  SelectDF(BasicClass, tlv.Hex("A0 00 00 02 31 01 00 00 00 00 00 00 00 00 00 00")),
			expected: tlv.Hex(
				"00 A4 04 0C",
				"10 A0 00 00 02 31 01 00 00 00 00 00 00 00 00 00 00",
			),
		},
		{
			name:     "Read Binary current EF",
			cmd:      ReadBinary(BasicClass, 0, 17),
			expected: tlv.Hex("00 B0 00 00 11"),
		},
		{
			name:     "Read Binary offset above 255",
			cmd:      ReadBinary(BasicClass, 0x0102, 4),
			expected: tlv.Hex("00 B0 01 02 04"),
		},
		{
			name:     "Read Binary SFI 1 extended Le",
			cmd:      readDF1,
			expected: tlv.Hex("00 B0 81 00 00 03 70"),
		},
		{
			name:     "Verify status query",
			cmd:      VerifyStatus(BasicClass, 0x81),
			expected: tlv.Hex("00 20 00 81"),
		},
		{
			name:     "Verify PIN",
			cmd:      Verify(BasicClass, 0x82, []byte("5678")),
			expected: tlv.Hex("00 20 00 82 04 35 36 37 38"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadBinarySFI_Invalid(t *testing.T) {
	for _, sfi := range []byte{0, 31, 0xFF} {
		if _, err := ReadBinarySFI(BasicClass, sfi, 0, 1); err == nil {
			t.Errorf("ReadBinarySFI(sfi=%d) expected error", sfi)
		}
	}
}

func TestSelectionMethod_String(t *testing.T) {
	if got := SelectByDFName.String(); got != "Select by DF Name (AID)" {
		t.Errorf("String() = %q", got)
	}
	if got := SelectionMethod(0x42).String(); got != "Unknown Method (0x42)" {
		t.Errorf("String() = %q", got)
	}
}
