// Package format maps raw spreadsheet records into the CRM payload shape.
package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vpearl/leadsync/internal/model"
	"github.com/vpearl/leadsync/pkg/zoho"
)

const (
	dateTimeLayout     = "2006-01-02 15:04:05"
	dateLayout         = "2006-01-02"
	zohoDateTimeLayout = "2006-01-02T15:04:05-07:00"
	nameStampLayout    = "20060102150405"
)

// Zoho expects datetimes with the fixed IST offset; wall-clock values from
// the sheet are taken as already being in that zone.
var istZone = time.FixedZone("IST", 5*3600+30*60)

var firstIntRe = regexp.MustCompile(`\d+`)

// Lead builds the CRM payload for one record. It is pure and total: every
// input produces a payload, coercion failures degrade to safe defaults, and
// every target field is populated (empty string when the source is absent).
// The resolved owner lands in Lead_Source; now feeds the synthesized name
// fallback.
func Lead(rec model.RawRecord, owner string, now time.Time) zoho.Lead {
	l := zoho.Lead{
		Email:                cleanEmail(rec.EmailID),
		MobileNumber:         cleanPhone(rec.MobileNo),
		DateOfPermit:         formatDate(rec.DateOfPermit),
		CreationTime:         formatDate(rec.CreationTime),
		DwellingUnitInfo:     coerceNumeric(rec.DwellingUnitInfo),
		HowMuchSquareFeet:    coerceNumeric(rec.HowMuchSquareFeet),
		NoOfBathrooms:        bathrooms(rec.DwellingUnitInfo),
		LeadSource:           strings.TrimSpace(owner),
		ApplicantName:        strings.TrimSpace(rec.ApplicantName),
		NatureOfDevelopments: strings.TrimSpace(rec.NatureOfDevelopment),
		LeadName:             strings.TrimSpace(rec.LeadName),
		Reference:            strings.TrimSpace(rec.Reference),
		CompanyName:          strings.TrimSpace(rec.CompanyName),
		Architect:            strings.TrimSpace(rec.ArchitectName),
		PlanPermission:       strings.TrimSpace(rec.PlanningPermissionNo),
		ApplicantAddress:     strings.TrimSpace(rec.ApplicantAddress),
		FutureProject:        strings.TrimSpace(rec.FutureProjects),
		WhichBrandLookingFor: strings.TrimSpace(rec.WhichBrandLookingFor),
		AreaName:             strings.TrimSpace(rec.AreaName),
		SiteAddress:          strings.TrimSpace(rec.SiteAddress),
	}
	l.Name = leadName(rec, now)
	return l
}

// leadName resolves the mandatory Name field: applicant name, then lead
// name, then company, then a synthesized Record_<timestamp>.
func leadName(rec model.RawRecord, now time.Time) string {
	for _, candidate := range []string{rec.ApplicantName, rec.LeadName, rec.CompanyName} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return "Record_" + now.Format(nameStampLayout)
}

// bathrooms derives the bathroom count as twice the first integer found in
// the dwelling-units value ("12 units" counts as 12). Missing or
// non-numeric values yield "0", never an empty field.
func bathrooms(dwellingUnits string) string {
	m := firstIntRe.FindString(dwellingUnits)
	if m == "" {
		return "0"
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return "0"
	}
	return strconv.Itoa(n * 2)
}

// coerceNumeric renders a numeric cell as an integer string. Absent stays
// empty; noisy values keep their first integer ("3 units" counts as 3);
// values with no integer at all degrade to "0".
func coerceNumeric(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return strconv.Itoa(int(f))
	}
	if m := firstIntRe.FindString(v); m != "" {
		return m
	}
	return "0"
}

// formatDate accepts "YYYY-MM-DD HH:MM:SS" (rendered with the fixed +05:30
// offset Zoho expects) or bare "YYYY-MM-DD". Anything else passes through
// in its original string form.
func formatDate(v string) string {
	t := strings.TrimSpace(v)
	if t == "" {
		return ""
	}
	if dt, err := time.ParseInLocation(dateTimeLayout, t, istZone); err == nil {
		return dt.Format(zohoDateTimeLayout)
	}
	if _, err := time.Parse(dateLayout, t); err == nil {
		return t
	}
	return v
}

// cleanEmail keeps the address only when it looks deliverable.
func cleanEmail(v string) string {
	t := strings.TrimSpace(v)
	if strings.Contains(t, "@") && strings.Contains(t, ".") {
		return t
	}
	return ""
}

// cleanPhone strips everything except digits and a leading plus.
func cleanPhone(v string) string {
	t := strings.TrimSpace(v)
	var b strings.Builder
	if strings.HasPrefix(t, "+") {
		b.WriteByte('+')
	}
	for _, r := range t {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
