package registrations

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keywordRule maps any of its keywords to a label. Tables of these are checked in order.
type keywordRule struct {
	keywords []string
	label    string
}

func matchRules(text string, rules []keywordRule) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(text))
	if v == "" {
		return "", false
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if hasKeyword(v, kw) {
				return r.label, true
			}
		}
	}
	return "", false
}

// hasKeyword is a substring test, except keywords of one or two letters ("x", "bd", "m")
// which must stand as their own word.
func hasKeyword(v, kw string) bool {
	if len(kw) <= 2 {
		return containsWord(v, kw)
	}
	return strings.Contains(v, kw)
}

// ClassifyExperience maps a free-text experience answer to a level. Rules are checked in
// order; the first hit wins.
func ClassifyExperience(raw string) string {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "newcomer") || strings.Contains(v, "just learning"):
		return ExperienceNewcomer
	case strings.Contains(v, "intermediate") || strings.Contains(v, "familiar"):
		return ExperienceIntermediate
	case strings.Contains(v, "advanced") || strings.Contains(v, "actively building"):
		return ExperienceAdvanced
	case strings.Contains(v, "web2") && strings.Contains(v, "transitioning"):
		return ExperienceWeb2
	default:
		return ExperienceUnknown
	}
}

var professionRules = []keywordRule{
	{keywords: []string{"developer"}, label: ProfessionDeveloper},
	{keywords: []string{"student"}, label: ProfessionStudent},
	{keywords: []string{"creator"}, label: ProfessionCreator},
	{keywords: []string{"researcher"}, label: ProfessionResearcher},
	{keywords: []string{"founder", "entrepreneur"}, label: ProfessionFounder},
	{keywords: []string{"designer"}, label: ProfessionDesigner},
	{keywords: []string{"bd", "sales", "business"}, label: ProfessionBizDev},
	{keywords: []string{"marketing"}, label: ProfessionMarketing},
}

// ClassifyProfession buckets a "what best describes you" answer.
func ClassifyProfession(raw string) string {
	if label, ok := matchRules(raw, professionRules); ok {
		return label
	}
	return ProfessionOther
}

var sourceRules = []keywordRule{
	{keywords: []string{"friend", "referral"}, label: SourceReferral},
	{keywords: []string{"x", "twitter"}, label: SourceX},
	{keywords: []string{"linkedin"}, label: SourceLinkedIn},
	{keywords: []string{"instagram"}, label: SourceInstagram},
	{keywords: []string{"telegram"}, label: SourceTelegram},
	{keywords: []string{"other"}, label: SourceOther},
}

// ClassifySource normalizes the acquisition channel. Unmatched non-empty answers are
// kept verbatim so new channels still show up on the dashboard.
func ClassifySource(raw string) string {
	if label, ok := matchRules(raw, sourceRules); ok {
		return label
	}
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return SourceUnknown
}

// MapApprovalStatus converts the ticketing platform's approval state. Unknown values are
// treated as pending so no row is dropped.
func MapApprovalStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return StatusConfirmed
	case "pending_approval":
		return StatusPending
	case "declined":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Gender labels.
const (
	GenderMale        = "Male"
	GenderFemale      = "Female"
	GenderNonBinary   = "Non-binary"
	GenderUndisclosed = "Prefer not to say"
	GenderUnknown     = "Unknown"
)

var genderRules = []keywordRule{
	{keywords: []string{"non-binary", "nonbinary", "non binary"}, label: GenderNonBinary},
	{keywords: []string{"prefer not", "rather not"}, label: GenderUndisclosed},
	{keywords: []string{"female", "woman", "f"}, label: GenderFemale},
	{keywords: []string{"male", "man", "m"}, label: GenderMale},
}

// ClassifyGender buckets a gender answer.
func ClassifyGender(raw string) string {
	if label, ok := matchRules(raw, genderRules); ok {
		return label
	}
	return GenderUnknown
}

// Dietary labels.
const (
	DietaryNone       = "None"
	DietaryVegetarian = "Vegetarian"
	DietaryVegan      = "Vegan"
	DietaryHalal      = "Halal"
	DietaryKosher     = "Kosher"
	DietaryGlutenFree = "Gluten-free"
	DietaryAllergies  = "Allergies"
	DietaryOther      = "Other"
	DietaryUnknown    = "Unknown"
)

var dietaryRules = []keywordRule{
	{keywords: []string{"vegan"}, label: DietaryVegan},
	{keywords: []string{"vegetarian"}, label: DietaryVegetarian},
	{keywords: []string{"halal"}, label: DietaryHalal},
	{keywords: []string{"kosher"}, label: DietaryKosher},
	{keywords: []string{"gluten", "celiac", "coeliac"}, label: DietaryGlutenFree},
	{keywords: []string{"allerg", "lactose", "nut", "shellfish"}, label: DietaryAllergies},
}

// ClassifyDietary buckets a dietary-requirements answer.
func ClassifyDietary(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return DietaryUnknown
	}
	if nullLike[strings.Trim(v, wrapCutset)] {
		return DietaryNone
	}
	if label, ok := matchRules(v, dietaryRules); ok {
		return label
	}
	return DietaryOther
}

// Transportation labels.
const (
	TransportSupport = "Needs support"
	TransportOwn     = "Own transport"
	TransportPublic  = "Public transport"
	TransportRide    = "Ride-hailing"
	TransportUnknown = "Unknown"
)

var transportRules = []keywordRule{
	{keywords: []string{"uber", "bolt", "taxi", "ride"}, label: TransportRide},
	{keywords: []string{"public", "bus", "brt", "danfo", "train"}, label: TransportPublic},
	{keywords: []string{"need", "support", "assist", "yes"}, label: TransportSupport},
	{keywords: []string{"own", "drive", "car", "personal", "self", "no"}, label: TransportOwn},
}

// ClassifyTransportation buckets how a guest plans to reach the venue.
func ClassifyTransportation(raw string) string {
	if label, ok := matchRules(raw, transportRules); ok {
		return label
	}
	return TransportUnknown
}

var consentRules = []keywordRule{
	{keywords: []string{"no", "not", "don't", "dont", "disagree", "decline", "false"}, label: ConsentNo},
	{keywords: []string{"yes", "y", "true", "agree", "accept", "consent", "ok"}, label: ConsentYes},
}

// ClassifyConsent reads a yes/no consent answer. Negations are checked first.
func ClassifyConsent(raw string) string {
	if label, ok := matchRules(raw, consentRules); ok {
		return label
	}
	return ConsentUnknown
}

// NormalizeCity title-cases a city name and collapses whitespace.
func NormalizeCity(raw string) string {
	s := strings.Join(strings.Fields(strings.Trim(raw, wrapCutset)), " ")
	if s == "" {
		return ""
	}
	// Casers carry state and must not be shared across goroutines.
	return cases.Title(language.English).String(strings.ToLower(s))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp reads the export's timestamp formats. Layouts without a zone are UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeEmail lowercases and strips stray wrapping characters.
func normalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	return strings.Trim(email, "\"'<>")
}

func normalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
