package jdl

import (
	"fmt"
	"strings"

	"github.com/gregLibert/jdl-reader/pkg/jis"
)

// Describe renders the session result as a plain-text report for terminals.
// Absent values are shown as "-".
func (r *SessionResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== DRIVER LICENSE REPORT ===\n")

	sb.WriteString("[1] Common Data (MF/EF01)\n")
	sb.WriteString(fmt.Sprintf("    + Spec Version: %s\n", r.Common.SpecVersion))
	sb.WriteString(fmt.Sprintf("    + Issued:       %s\n", r.Common.IssueDate))
	sb.WriteString(fmt.Sprintf("    + Expires:      %s\n", r.Common.ExpiryDate))
	sb.WriteString(fmt.Sprintf("    + PIN1 Tries:   %d\n", r.RemainingAttempts))
	sb.WriteString("\n")

	l := &r.License
	sb.WriteString("[2] Printed Items (DF1/EF01)\n")
	sb.WriteString(fmt.Sprintf("    + JIS Edition:  %s\n", l.EditionCode))
	sb.WriteString(fmt.Sprintf("    + Name:         %s\n", l.Name))
	sb.WriteString(fmt.Sprintf("    + Reading:      %s\n", l.Reading))
	sb.WriteString(fmt.Sprintf("    + Alias:        %s\n", orDash(l.AliasName)))
	sb.WriteString(fmt.Sprintf("    + Unified Name: %s\n", orDash(l.UnifiedName)))
	sb.WriteString(fmt.Sprintf("    + Birthday:     %s\n", l.Birthday))
	sb.WriteString(fmt.Sprintf("    + Address:      %s\n", l.Address))
	sb.WriteString(fmt.Sprintf("    + Issued:       %s\n", l.IssueDate))
	sb.WriteString(fmt.Sprintf("    + Reference:    %s\n", l.ReferenceNumber))
	sb.WriteString(fmt.Sprintf("    + Color:        %s\n", l.ColorClass))
	sb.WriteString(fmt.Sprintf("    + Expires:      %s\n", l.ExpiryDate))
	for i, c := range l.Conditions {
		sb.WriteString(fmt.Sprintf("    + Condition %d:  %s\n", i+1, ptrOrDash(c)))
	}
	sb.WriteString(fmt.Sprintf("    + Commission:   %s\n", l.PublicSafetyCommission))
	sb.WriteString(fmt.Sprintf("    + Number:       %s\n", l.LicenseNumber))
	sb.WriteString("\n")

	sb.WriteString("[3] Categories\n")
	for c := Category(0); c < CategoryCount; c++ {
		sb.WriteString(fmt.Sprintf("    + %s %s\n", padLabel(c.Label()), dateOrDash(l.Grant(c))))
	}

	if r.Domicile != nil {
		sb.WriteString("\n[4] Registered Domicile (DF1/EF02)\n")
		sb.WriteString(fmt.Sprintf("    + Domicile:     %s\n", *r.Domicile))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ptrOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}

func dateOrDash(d *jis.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// padLabel pads a kanji label to a fixed display width; each rune
// occupies two terminal columns.
func padLabel(s string) string {
	const width = 12
	cols := 0
	for _, r := range s {
		if r < 0x80 {
			cols++
		} else {
			cols += 2
		}
	}
	if cols >= width {
		return s + ":"
	}
	return s + ":" + strings.Repeat(" ", width-cols)
}
