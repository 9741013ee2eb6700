package registrations

import (
	"sort"
	"strings"
)

// Field is a logical column of a registration export.
type Field string

const (
	FieldID               Field = "id"
	FieldTimestamp        Field = "timestamp"
	FieldEmail            Field = "email"
	FieldName             Field = "name"
	FieldFirstName        Field = "first_name"
	FieldLastName         Field = "last_name"
	FieldLocation         Field = "location"
	FieldCity             Field = "city"
	FieldProfession       Field = "profession"
	FieldInterests        Field = "interests"
	FieldExperience       Field = "experience"
	FieldSource           Field = "source"
	FieldApprovalStatus   Field = "approval_status"
	FieldGender           Field = "gender"
	FieldDietary          Field = "dietary"
	FieldTransportation   Field = "transportation"
	FieldPhotoConsent     Field = "photo_consent"
	FieldMarketingConsent Field = "marketing_consent"
)

// NotFound is returned by FindColumn when no header matches.
const NotFound = -1

type fieldAliases struct {
	field      Field
	candidates []string
	// exactOnly disables the substring pass for short, collision-prone names.
	exactOnly bool
}

// headerAliases lists acceptable header names per field, highest priority first.
// Exports come from the ticketing platform with custom questions as free-text headers.
// On equal footing earlier fields claim a column first; see MapHeaders.
var headerAliases = []fieldAliases{
	{field: FieldID, candidates: []string{"api_id", "guest_id", "registration_id", "id"}, exactOnly: true},
	{field: FieldTimestamp, candidates: []string{"created_at", "registered_at", "registration_date", "timestamp", "date"}},
	{field: FieldEmail, candidates: []string{"email", "email address", "e-mail"}},
	{field: FieldFirstName, candidates: []string{"first_name", "first name", "firstname"}},
	{field: FieldLastName, candidates: []string{"last_name", "last name", "lastname", "surname"}},
	{field: FieldName, candidates: []string{"name", "full name", "full_name"}},
	{field: FieldLocation, candidates: []string{"country", "location", "where are you based", "based in", "where are you coming from"}},
	{field: FieldCity, candidates: []string{"city", "town"}},
	{field: FieldProfession, candidates: []string{"profession", "occupation", "what best describes you", "role", "job title"}},
	{field: FieldInterests, candidates: []string{"interests", "what are you interested in", "interested in"}},
	{field: FieldExperience, candidates: []string{"experience", "web3 level", "familiarity"}},
	{field: FieldSource, candidates: []string{"how did you hear", "heard about", "source", "referral"}},
	{field: FieldApprovalStatus, candidates: []string{"approval_status", "approval status", "status"}},
	{field: FieldGender, candidates: []string{"gender", "sex"}},
	{field: FieldDietary, candidates: []string{"dietary", "diet", "food"}},
	{field: FieldTransportation, candidates: []string{"transportation", "transport", "travel"}},
	{field: FieldPhotoConsent, candidates: []string{"photo", "media consent", "photography"}},
	{field: FieldMarketingConsent, candidates: []string{"marketing", "newsletter", "receive updates"}},
}

// FindColumn returns the index of the header that best matches one of the candidate
// names, or NotFound. An exact case-insensitive match is tried first, in candidate order;
// then the first header containing a candidate wins, again in candidate order.
func FindColumn(headers []string, candidates ...string) int {
	if idx := findExact(headers, candidates); idx != NotFound {
		return idx
	}
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		for i, h := range headers {
			if strings.Contains(normalizeHeader(h), c) {
				return i
			}
		}
	}
	return NotFound
}

func findExact(headers []string, candidates []string) int {
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		for i, h := range headers {
			if normalizeHeader(h) == c {
				return i
			}
		}
	}
	return NotFound
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Trim(h, "\"'")
}

// Columns maps each logical field to its header index (NotFound when absent).
type Columns map[Field]int

// Index returns the column index for f, or NotFound.
func (c Columns) Index(f Field) int {
	if idx, ok := c[f]; ok {
		return idx
	}
	return NotFound
}

// Value returns row's value for f, or "" when the column is absent or the row is short.
func (c Columns) Value(row []string, f Field) string {
	idx := c.Index(f)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MapHeaders resolves every known field against a header row in two passes. Exact alias
// matches are assigned first for all fields, in field order. The remaining fields then take
// unclaimed columns by substring, longest alias first, so a specific alias such as
// "receive updates" wins over a short one such as "date" that happens to sit inside it.
// A column claimed by one field is not handed to another, so "Where are you based? (City,
// Country)" feeds the location field and the city is derived from it instead of reading the
// same text twice.
func MapHeaders(headers []string) Columns {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}

	cols := make(Columns, len(headerAliases))
	claimed := make(map[int]bool, len(headerAliases))
	for _, fa := range headerAliases {
		cols[fa.field] = NotFound
	}
	assign := func(f Field, idx int) {
		cols[f] = idx
		claimed[idx] = true
	}

	for _, fa := range headerAliases {
	exact:
		for _, c := range fa.candidates {
			c = strings.ToLower(strings.TrimSpace(c))
			for i, h := range norm {
				if !claimed[i] && h == c {
					assign(fa.field, i)
					break exact
				}
			}
		}
	}

	type partial struct {
		field Field
		col   int
		alias int
	}
	var matches []partial
	for _, fa := range headerAliases {
		if fa.exactOnly || cols[fa.field] != NotFound {
			continue
		}
		for _, c := range fa.candidates {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			for i, h := range norm {
				if !claimed[i] && strings.Contains(h, c) {
					matches = append(matches, partial{field: fa.field, col: i, alias: len(c)})
				}
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].alias > matches[j].alias })
	for _, m := range matches {
		if cols[m.field] == NotFound && !claimed[m.col] {
			assign(m.field, m.col)
		}
	}
	return cols
}
