package jis

import (
	"encoding/json"
	"fmt"
	"time"
)

// Era is a Japanese calendar era.
type Era int

const (
	Meiji Era = iota + 1
	Taisho
	Showa
	Heisei
	Reiwa
)

var eraNames = map[Era]struct {
	kanji, romaji string
	start         time.Time
}{
	Meiji:  {"明治", "Meiji", time.Date(1868, time.January, 25, 0, 0, 0, 0, time.UTC)},
	Taisho: {"大正", "Taisho", time.Date(1912, time.July, 30, 0, 0, 0, 0, time.UTC)},
	Showa:  {"昭和", "Showa", time.Date(1926, time.December, 25, 0, 0, 0, 0, time.UTC)},
	Heisei: {"平成", "Heisei", time.Date(1989, time.January, 8, 0, 0, 0, 0, time.UTC)},
	Reiwa:  {"令和", "Reiwa", time.Date(2019, time.May, 1, 0, 0, 0, 0, time.UTC)},
}

// EraFromDigit maps the era digit stored on the card. Digits other than
// '1'-'4' map to the newest era.
func EraFromDigit(d byte) Era {
	switch d {
	case '1':
		return Meiji
	case '2':
		return Taisho
	case '3':
		return Showa
	case '4':
		return Heisei
	default:
		return Reiwa
	}
}

// String returns the kanji era name.
func (e Era) String() string {
	if n, ok := eraNames[e]; ok {
		return n.kanji
	}
	return fmt.Sprintf("Era(%d)", int(e))
}

// Romaji returns the era name in Latin letters.
func (e Era) Romaji() string {
	if n, ok := eraNames[e]; ok {
		return n.romaji
	}
	return fmt.Sprintf("Era(%d)", int(e))
}

// Date is a calendar date expressed in a Japanese era.
type Date struct {
	Era   Era
	Year  int
	Month int
	Day   int
}

// String formats the date the way it is printed on the license:
// "<era> <YY>年 <MM>月 <DD>日".
func (d Date) String() string {
	return fmt.Sprintf("%s %02d年 %02d月 %02d日", d.Era, d.Year, d.Month, d.Day)
}

// Gregorian converts the date to a UTC time.Time at midnight.
func (d Date) Gregorian() (time.Time, error) {
	info, ok := eraNames[d.Era]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown era %d", int(d.Era))
	}
	if d.Year < 1 {
		return time.Time{}, fmt.Errorf("invalid era year %d", d.Year)
	}

	year := info.start.Year() + d.Year - 1
	t := time.Date(year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return time.Time{}, fmt.Errorf("invalid date %s", d)
	}
	return t, nil
}

type dateJSON struct {
	Era       string `json:"era"`
	EraRomaji string `json:"era_romaji"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Text      string `json:"text"`
	ISO       string `json:"iso,omitempty"`
}

// MarshalJSON emits the structured date plus its printed and ISO 8601 forms.
func (d Date) MarshalJSON() ([]byte, error) {
	out := dateJSON{
		Era:       d.Era.String(),
		EraRomaji: d.Era.Romaji(),
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		Text:      d.String(),
	}
	if t, err := d.Gregorian(); err == nil {
		out.ISO = t.Format(time.DateOnly)
	}
	return json.Marshal(out)
}

// notHeld is what the card stores after the era digit for a license
// category that was never granted.
const notHeld = "000000"

// DecodeDate decodes a 7-character era date field (E YY MM DD).
// It returns nil without error when the field holds the "not held" pattern.
func DecodeDate(b []byte) (*Date, error) {
	s, err := Decode(b, Narrow)
	if err != nil {
		return nil, err
	}
	if len(s) != 7 {
		return nil, &DecodeError{Profile: Narrow, Raw: b, Reason: fmt.Sprintf("date field has %d characters, want 7", len(s))}
	}
	if s[1:] == notHeld {
		return nil, nil
	}
	// The era digit is not checked: unknown values fall back to the newest era.
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, &DecodeError{Profile: Narrow, Raw: b, Reason: "date field is not numeric"}
		}
	}

	return &Date{
		Era:   EraFromDigit(s[0]),
		Year:  atoi2(s[1:3]),
		Month: atoi2(s[3:5]),
		Day:   atoi2(s[5:7]),
	}, nil
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
