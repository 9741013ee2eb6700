package registrations

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Builder turns a raw export into canonical registrations.
type Builder struct {
	// Now supplies the fallback timestamp for rows without a usable one.
	Now func() time.Time
	// NewID supplies the random part of fallback IDs.
	NewID func() string
}

// NewBuilder returns a Builder using the wall clock and random UUIDs.
func NewBuilder() *Builder {
	return &Builder{
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

// Build parses data with a default Builder.
func Build(data string) Result {
	return NewBuilder().Build(data)
}

// Build reads the header from the first non-blank line and converts every following line.
// Blank and malformed rows are counted and skipped; they never abort the import.
func (b *Builder) Build(data string) Result {
	var res Result
	lines := SplitLines(data)

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) {
		return res
	}

	header, err := ParseLine(lines[start])
	if err != nil {
		// A header with an unbalanced quote still names its columns well enough to map.
		header = stripQuotes(header)
	}
	cols := MapHeaders(header)

	res.Registrations = make([]GuestRegistration, 0, len(lines)-start-1)
	for i, line := range lines[start+1:] {
		res.TotalRows++
		reg, skip := b.buildRow(line, cols, i+1)
		switch skip {
		case SkipBlank:
			res.Skipped.Blank++
		case SkipMalformed:
			res.Skipped.Malformed++
		default:
			res.Registrations = append(res.Registrations, reg)
		}
	}
	return res
}

func stripQuotes(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(strings.ReplaceAll(f, `"`, ""))
	}
	return out
}

// buildRow is the fallible per-row step: it returns a registration or the reason the row
// was skipped.
func (b *Builder) buildRow(line string, cols Columns, rowNum int) (GuestRegistration, SkipReason) {
	if strings.TrimSpace(strings.ReplaceAll(line, ",", "")) == "" {
		return GuestRegistration{}, SkipBlank
	}
	if !utf8.ValidString(line) || strings.ContainsRune(line, 0) {
		return GuestRegistration{}, SkipMalformed
	}

	row, err := ParseLine(line)
	if err != nil {
		return GuestRegistration{}, SkipMalformed
	}
	if isBlankRow(row) {
		return GuestRegistration{}, SkipBlank
	}

	return b.newRegistration(row, cols, rowNum), SkipNone
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (b *Builder) newRegistration(row []string, cols Columns, rowNum int) GuestRegistration {
	get := func(f Field) string { return cols.Value(row, f) }

	id := get(FieldID)
	if id == "" {
		id = fmt.Sprintf("row-%d-%s", rowNum, b.newID())
	}

	ts, ok := ParseTimestamp(get(FieldTimestamp))
	if !ok {
		ts = b.now()
	}

	first, last := normalizeName(get(FieldFirstName)), normalizeName(get(FieldLastName))
	if first == "" && last == "" {
		first, last = splitFullName(get(FieldName))
	}

	location := get(FieldLocation)
	city := get(FieldCity)
	if city == "" {
		city = cityFromLocation(location)
	}

	profession := get(FieldProfession)
	interests := get(FieldInterests)
	if interests == "" {
		interests = profession
	}

	return GuestRegistration{
		ID:               id,
		Timestamp:        ts.UTC().Format(time.RFC3339),
		Email:            normalizeEmail(get(FieldEmail)),
		FirstName:        first,
		LastName:         last,
		Country:          ResolveCountry(location),
		City:             NormalizeCity(city),
		Profession:       ClassifyProfession(profession),
		Experience:       ClassifyExperience(get(FieldExperience)),
		Interests:        interests,
		Source:           ClassifySource(get(FieldSource)),
		Status:           MapApprovalStatus(get(FieldApprovalStatus)),
		Gender:           ClassifyGender(get(FieldGender)),
		Dietary:          ClassifyDietary(get(FieldDietary)),
		Transportation:   ClassifyTransportation(get(FieldTransportation)),
		PhotoConsent:     ClassifyConsent(get(FieldPhotoConsent)),
		MarketingConsent: ClassifyConsent(get(FieldMarketingConsent)),
	}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

func splitFullName(full string) (string, string) {
	full = normalizeName(full)
	first, last, _ := strings.Cut(full, " ")
	return first, last
}

// cityFromLocation takes the part before the first comma of a "City, Country" answer.
// Single-word answers are not assumed to be cities.
func cityFromLocation(location string) string {
	city, _, found := strings.Cut(location, ",")
	if !found {
		return ""
	}
	city = strings.TrimSpace(city)
	if cleaned := cleanLocation(city); nigeriaPattern.MatchString(cleaned) || countryNames[cleaned] != "" {
		return ""
	}
	return city
}
