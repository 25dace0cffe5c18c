package jdl

import (
	"fmt"

	"github.com/gregLibert/jdl-reader/pkg/jis"
	"github.com/gregLibert/jdl-reader/pkg/tlv"
)

// LICENSE RECORD LAYOUT (DF1/EF01):
// The record is a run of SIMPLE-TLV fields identified by position only.
// Tags are present on the card but never interpreted.
//
//	 0      JIS X 0208 edition code      17-34  grant date per category
//	 1- 4   name, reading, alias, unified name
//	 5      birthday                     (era date, mandatory)
//	 6      address
//	 7      issue date                   (era date, mandatory)
//	 8      reference number             (narrow)
//	 9      color class
//	10      expiry date                  (era date, mandatory)
//	11-14   conditions 1-4               (absent when empty)
//	15      public safety commission
//	16      license number               (narrow)

// Field positions in the license record.
const (
	FieldEdition = iota
	FieldName
	FieldReading
	FieldAliasName
	FieldUnifiedName
	FieldBirthday
	FieldAddress
	FieldIssueDate
	FieldReferenceNumber
	FieldColorClass
	FieldExpiryDate
	FieldCondition1
	FieldCondition2
	FieldCondition3
	FieldCondition4
	FieldPublicSafetyCommission
	FieldLicenseNumber
	FieldFirstGrant

	// LicenseFieldCount is the number of fields consumed from DF1/EF01.
	LicenseFieldCount = FieldFirstGrant + CategoryCount
)

// Category is a license category with its own grant date.
type Category int

const (
	CatTwoSmallMoped Category = iota
	CatOther
	CatSecondClass
	CatLarge
	CatOrdinary
	CatLargeSpecial
	CatLargeMotorcycle
	CatOrdinaryMotorcycle
	CatSmallSpecial
	CatMoped
	CatTowing
	CatLargeSecondClass
	CatOrdinarySecondClass
	CatLargeSpecialSecondClass
	CatTowingSecondClass
	CatMedium
	CatMediumSecondClass
	CatSemiMedium

	CategoryCount = 18
)

var categoryLabels = [CategoryCount]struct{ short, name string }{
	CatTwoSmallMoped:           {"二・小・原", "two-wheel/small special/moped"},
	CatOther:                   {"他", "other"},
	CatSecondClass:             {"二種", "second class"},
	CatLarge:                   {"大型", "large"},
	CatOrdinary:                {"普通", "ordinary"},
	CatLargeSpecial:            {"大特", "large special"},
	CatLargeMotorcycle:         {"大自二", "large motorcycle"},
	CatOrdinaryMotorcycle:      {"普自二", "ordinary motorcycle"},
	CatSmallSpecial:            {"小特", "small special"},
	CatMoped:                   {"原付", "moped"},
	CatTowing:                  {"け引", "towing"},
	CatLargeSecondClass:        {"大二", "large second class"},
	CatOrdinarySecondClass:     {"普二", "ordinary second class"},
	CatLargeSpecialSecondClass: {"大特二", "large special second class"},
	CatTowingSecondClass:       {"け引二", "towing second class"},
	CatMedium:                  {"中型", "medium"},
	CatMediumSecondClass:       {"中二", "medium second class"},
	CatSemiMedium:              {"準中型", "semi-medium"},
}

// Label returns the abbreviation printed on the card.
func (c Category) Label() string {
	if c < 0 || c >= CategoryCount {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c].short
}

func (c Category) String() string {
	if c < 0 || c >= CategoryCount {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c].name
}

// CommonRecord is the common data element read from MF/EF01.
type CommonRecord struct {
	SpecVersion string `json:"spec_version"`
	IssueDate   string `json:"issue_date"`
	ExpiryDate  string `json:"expiry_date"`
}

// LicenseRecord holds the printed items of the license.
type LicenseRecord struct {
	EditionCode            string     `json:"edition_code"`
	Name                   string     `json:"name"`
	Reading                string     `json:"reading"`
	AliasName              string     `json:"alias_name"`
	UnifiedName            string     `json:"unified_name"`
	Birthday               jis.Date   `json:"birthday"`
	Address                string     `json:"address"`
	IssueDate              jis.Date   `json:"issue_date"`
	ReferenceNumber        string     `json:"reference_number"`
	ColorClass             string     `json:"color_class"`
	ExpiryDate             jis.Date   `json:"expiry_date"`
	Conditions             [4]*string `json:"conditions"`
	PublicSafetyCommission string     `json:"public_safety_commission"`
	LicenseNumber          string     `json:"license_number"`

	// Grants is indexed by Category; nil means the category is not held.
	Grants [CategoryCount]*jis.Date `json:"grants"`

	fields [][]byte
}

// Grant returns the grant date of c, or nil when the category is not held.
func (r *LicenseRecord) Grant(c Category) *jis.Date {
	if c < 0 || c >= CategoryCount {
		return nil
	}
	return r.Grants[c]
}

// Fields returns a copy of the raw field values the record was decoded from.
func (r *LicenseRecord) Fields() [][]byte {
	out := make([][]byte, len(r.fields))
	for i, f := range r.fields {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// SessionResult is everything read during one successful session.
// Domicile is set only when the secondary code was supplied and verified.
type SessionResult struct {
	Common            CommonRecord  `json:"common"`
	RemainingAttempts int           `json:"remaining_attempts"`
	License           LicenseRecord `json:"license"`
	Domicile          *string       `json:"domicile,omitempty"`
}

// Byte offsets inside the common data element payload.
const (
	commonVersionEnd = 3
	commonIssueStart = 4
	commonIssueEnd   = 7
	commonExpStart   = 8
	commonExpEnd     = 11
)

// ParseCommon decodes the answer to the MF/EF01 read. The payload is the
// value of the first field; the version uses a plain single-byte table and
// both dates are kept as hex digits.
func ParseCommon(raw []byte) (CommonRecord, error) {
	payload, _, err := tlv.NextField(raw, 0)
	if err != nil {
		return CommonRecord{}, err
	}
	if len(payload) < commonExpEnd {
		return CommonRecord{}, &tlv.TruncatedFieldError{Offset: 0, Length: commonExpEnd, Available: len(payload) + 2}
	}

	version, err := jis.DecodePlain(payload[:commonVersionEnd])
	if err != nil {
		return CommonRecord{}, err
	}

	return CommonRecord{
		SpecVersion: version,
		IssueDate:   fmt.Sprintf("%x", payload[commonIssueStart:commonIssueEnd]),
		ExpiryDate:  fmt.Sprintf("%x", payload[commonExpStart:commonExpEnd]),
	}, nil
}

// ParseLicense splits and decodes the answer to the DF1/EF01 read.
func ParseLicense(raw []byte) (LicenseRecord, error) {
	fields, _, err := tlv.Split(raw, LicenseFieldCount)
	if err != nil {
		return LicenseRecord{}, err
	}

	d := fieldDecoder{fields: fields}
	rec := LicenseRecord{
		EditionCode:            d.code(FieldEdition),
		Name:                   d.wide(FieldName),
		Reading:                d.wide(FieldReading),
		AliasName:              d.wide(FieldAliasName),
		UnifiedName:            d.wide(FieldUnifiedName),
		Birthday:               d.date(FieldBirthday),
		Address:                d.wide(FieldAddress),
		IssueDate:              d.date(FieldIssueDate),
		ReferenceNumber:        d.narrow(FieldReferenceNumber),
		ColorClass:             d.wide(FieldColorClass),
		ExpiryDate:             d.date(FieldExpiryDate),
		PublicSafetyCommission: d.wide(FieldPublicSafetyCommission),
		LicenseNumber:          d.narrow(FieldLicenseNumber),
		fields:                 fields,
	}
	for i := range rec.Conditions {
		rec.Conditions[i] = d.condition(FieldCondition1 + i)
	}
	for c := range rec.Grants {
		rec.Grants[c] = d.optionalDate(FieldFirstGrant + c)
	}

	if d.err != nil {
		return LicenseRecord{}, d.err
	}
	return rec, nil
}

// ParseDomicile decodes the answer to the DF1/EF02 read.
func ParseDomicile(raw []byte) (string, error) {
	v, _, err := tlv.NextField(raw, 0)
	if err != nil {
		return "", err
	}
	return jis.Decode(v, jis.Wide)
}

// fieldDecoder keeps the first error so the record can be built in one
// expression; later calls become no-ops.
type fieldDecoder struct {
	fields [][]byte
	err    error
}

func (d *fieldDecoder) fail(i int, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("field %d: %w", i, err)
	}
}

func (d *fieldDecoder) code(i int) string {
	f := d.fields[i]
	if len(f) == 0 {
		d.fail(i, &jis.DecodeError{Profile: jis.Narrow, Raw: f, Reason: "empty code field"})
		return ""
	}
	return fmt.Sprintf("%02x", f[len(f)-1])
}

func (d *fieldDecoder) text(i int, p jis.Profile) string {
	if d.err != nil {
		return ""
	}
	s, err := jis.Decode(d.fields[i], p)
	if err != nil {
		d.fail(i, err)
	}
	return s
}

func (d *fieldDecoder) wide(i int) string   { return d.text(i, jis.Wide) }
func (d *fieldDecoder) narrow(i int) string { return d.text(i, jis.Narrow) }

func (d *fieldDecoder) condition(i int) *string {
	s := d.wide(i)
	if s == "" {
		return nil
	}
	return &s
}

func (d *fieldDecoder) optionalDate(i int) *jis.Date {
	if d.err != nil {
		return nil
	}
	date, err := jis.DecodeDate(d.fields[i])
	if err != nil {
		d.fail(i, err)
		return nil
	}
	return date
}

func (d *fieldDecoder) date(i int) jis.Date {
	if d.err != nil {
		return jis.Date{}
	}
	date := d.optionalDate(i)
	if date == nil {
		if d.err == nil {
			d.fail(i, &jis.DecodeError{Profile: jis.Narrow, Raw: d.fields[i], Reason: "mandatory date is not set"})
		}
		return jis.Date{}
	}
	return *date
}
