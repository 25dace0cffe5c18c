package jdl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gregLibert/jdl-reader/pkg/tlv"
)

// Field values as stored on a sample card. Text is JIS X 0208 without the
// leading escape; dates are narrow digits.
var (
	// 山田太郎
	nameRaw = tlv.Hex("3B33 4544 4240 4F3A")

	// ヤマダタロウ
	readingRaw = tlv.Hex("2564 255E 2540 253F 256D 2526")

	// 東京都千代田区霞が関２丁目１
	addressRaw = tlv.Hex("456C 357E 4554 4069 4265 4544 3668 3262 242C 3458 2332 437A 4C5C 2331")

	// 新規
	colorRaw = tlv.Hex("3F37 352C")

	// 眼鏡等
	glassesRaw = tlv.Hex("3463 3640 4579")

	// 東京都公安委員会
	commissionRaw = tlv.Hex("456C 357E 4554 3878 3042 3051 3077 3271")

	// 千代田区 1-2, switching to ASCII mid-field
	domicileRaw = tlv.Hex("4069 4265 4544 3668", "1B2842", "20312D32")
)

const (
	sampleAddress    = "東京都千代田区霞が関２丁目１"
	sampleDomicile   = "千代田区 1-2"
	sampleCommission = "東京都公安委員会"
)

// licenseFields returns the 35 field values of the sample card.
func licenseFields() [][]byte {
	fields := make([][]byte, LicenseFieldCount)
	fields[FieldEdition] = []byte{0x19, 0x97}
	fields[FieldName] = nameRaw
	fields[FieldReading] = readingRaw
	fields[FieldAliasName] = []byte{}
	fields[FieldUnifiedName] = []byte{}
	fields[FieldBirthday] = []byte("3550101")
	fields[FieldAddress] = addressRaw
	fields[FieldIssueDate] = []byte("5050301")
	fields[FieldReferenceNumber] = []byte("123456789012")
	fields[FieldColorClass] = colorRaw
	fields[FieldExpiryDate] = []byte("5100401")
	fields[FieldCondition1] = glassesRaw
	fields[FieldCondition2] = []byte{}
	fields[FieldCondition3] = []byte{}
	fields[FieldCondition4] = []byte{}
	fields[FieldPublicSafetyCommission] = commissionRaw
	fields[FieldLicenseNumber] = []byte("301234567890")
	for c := 0; c < CategoryCount; c++ {
		fields[FieldFirstGrant+c] = []byte("0000000")
	}
	fields[FieldFirstGrant+int(CatOrdinary)] = []byte("4300430")
	fields[FieldFirstGrant+int(CatOrdinaryMotorcycle)] = []byte("3620815")
	fields[FieldFirstGrant+int(CatMoped)] = []byte("5000000")
	return fields
}

func fieldTags(n int) []byte {
	tags := make([]byte, n)
	for i := range tags {
		tags[i] = byte(0x10 + i)
	}
	return tags
}

func withTrailer(b []byte) []byte {
	return append(append([]byte(nil), b...), 0x90, 0x00)
}

func licenseResponse(fields [][]byte) []byte {
	return withTrailer(tlv.Join(fieldTags(len(fields)), fields))
}

// commonResponse holds version "008", issued 230401, expiring 280501.
var commonResponse = tlv.Hex("45 0B", "303038 01 230401 02 280501", "46 02 0000", "9000")

var domicileResponse = withTrailer(tlv.Join([]byte{0x21}, [][]byte{domicileRaw}))

// Commands the reader is expected to send, in order.
var (
	cmdSelectMF      = tlv.Hex("00 A4 00 00")
	cmdSelectCommon  = tlv.Hex("00 A4 02 0C 02 2F 01")
	cmdReadCommon    = tlv.Hex("00 B0 00 00 11")
	cmdQueryAttempts = tlv.Hex("00 20 00 81")
	cmdVerifyPrimary = tlv.Hex("00 20 00 81 04 31 32 33 34")
	cmdSelectDF1     = tlv.Hex("00 A4 04 0C 10 A0 00 00 02 31 01 00 00 00 00 00 00 00 00 00 00")
	cmdReadLicense   = tlv.Hex("00 B0 81 00 00 03 70")
	cmdVerifySecond  = tlv.Hex("00 20 00 82 04 35 36 37 38")
	cmdReadDomicile  = tlv.Hex("00 B0 82 00 00 03 70")
)

type exchange struct {
	step Step
	cmd  []byte
	resp []byte
	err  error
}

func primaryScript() []exchange {
	return []exchange{
		{step: StepSelectMaster, cmd: cmdSelectMF, resp: tlv.Hex("9000")},
		{step: StepSelectCommon, cmd: cmdSelectCommon, resp: tlv.Hex("9000")},
		{step: StepReadCommon, cmd: cmdReadCommon, resp: commonResponse},
		{step: StepQueryAttempts, cmd: cmdQueryAttempts, resp: tlv.Hex("63C3")},
		{step: StepVerifyPrimary, cmd: cmdVerifyPrimary, resp: tlv.Hex("9000")},
		{step: StepSelectLicense, cmd: cmdSelectDF1, resp: tlv.Hex("9000")},
		{step: StepReadLicense, cmd: cmdReadLicense, resp: licenseResponse(licenseFields())},
	}
}

func fullScript() []exchange {
	return append(primaryScript(),
		exchange{step: StepReselectMaster, cmd: cmdSelectMF, resp: tlv.Hex("9000")},
		exchange{step: StepVerifySecondary, cmd: cmdVerifySecond, resp: tlv.Hex("9000")},
		exchange{step: StepReselectLicense, cmd: cmdSelectDF1, resp: tlv.Hex("9000")},
		exchange{step: StepReadDomicile, cmd: cmdReadDomicile, resp: domicileResponse},
	)
}

// scriptedTransport replays canned answers and records what was sent.
type scriptedTransport struct {
	t        *testing.T
	script   []exchange
	sent     [][]byte
	closed   int
	closeErr error
}

func newScriptedTransport(t *testing.T, script []exchange) *scriptedTransport {
	return &scriptedTransport{t: t, script: script}
}

func (s *scriptedTransport) Transmit(cmd []byte) ([]byte, error) {
	if s.closed > 0 {
		s.t.Errorf("Transmit(%X) after Close", cmd)
	}
	i := len(s.sent)
	s.sent = append(s.sent, append([]byte(nil), cmd...))
	if i >= len(s.script) {
		s.t.Errorf("unexpected command #%d: %X", i, cmd)
		return nil, errors.New("script exhausted")
	}
	x := s.script[i]
	if fmt.Sprintf("%X", x.cmd) != fmt.Sprintf("%X", cmd) {
		s.t.Errorf("command #%d (%s) = %X, want %X", i, x.step, cmd, x.cmd)
	}
	return x.resp, x.err
}

func (s *scriptedTransport) Close() error {
	s.closed++
	return s.closeErr
}

func strPtr(s string) *string { return &s }
