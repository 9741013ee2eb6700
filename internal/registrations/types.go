package registrations

// Status is the approval state of a guest.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusConfirmed, StatusPending, StatusCancelled}

// Experience levels.
const (
	ExperienceNewcomer     = "Newcomer"
	ExperienceIntermediate = "Intermediate"
	ExperienceAdvanced     = "Advanced"
	ExperienceWeb2         = "Web2 Transitioning"
	ExperienceUnknown      = "Unknown"
)

// Profession categories.
const (
	ProfessionDeveloper  = "Developer"
	ProfessionStudent    = "Student"
	ProfessionCreator    = "Creator"
	ProfessionResearcher = "Researcher"
	ProfessionFounder    = "Founder"
	ProfessionDesigner   = "Designer"
	ProfessionBizDev     = "Business Development"
	ProfessionMarketing  = "Marketing"
	ProfessionOther      = "Other"
)

// Acquisition channels.
const (
	SourceReferral  = "Friend/Referral"
	SourceX         = "X (Twitter)"
	SourceLinkedIn  = "LinkedIn"
	SourceInstagram = "Instagram"
	SourceTelegram  = "Telegram"
	SourceOther     = "Other"
	SourceUnknown   = "Unknown"
)

// Consent answers.
const (
	ConsentYes     = "yes"
	ConsentNo      = "no"
	ConsentUnknown = "unknown"
)

// DefaultCountry is where unrecognized locations are attributed. The event is held in
// Nigeria, so ambiguous free text is counted as local rather than dropped.
const DefaultCountry = "Nigeria"

// GuestRegistration is the canonical, normalized form of one CSV row.
type GuestRegistration struct {
	ID               string `json:"id"`
	Timestamp        string `json:"timestamp"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Country          string `json:"country"`
	City             string `json:"city"`
	Profession       string `json:"profession"`
	Experience       string `json:"experience"`
	Interests        string `json:"interests"`
	Source           string `json:"source"`
	Status           Status `json:"status"`
	Gender           string `json:"gender"`
	Dietary          string `json:"dietary"`
	Transportation   string `json:"transportation"`
	PhotoConsent     string `json:"photoConsent"`
	MarketingConsent string `json:"marketingConsent"`
}

// FullName joins first and last name.
func (g GuestRegistration) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	default:
		return g.FirstName + " " + g.LastName
	}
}

// SkipReason says why a row produced no registration.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipBlank     SkipReason = "blank"
	SkipMalformed SkipReason = "malformed"
)

// SkipCounts tallies rows that were dropped during a build.
type SkipCounts struct {
	Blank     int `json:"blank"`
	Malformed int `json:"malformed"`
}

// Total returns the number of skipped rows.
func (s SkipCounts) Total() int { return s.Blank + s.Malformed }

// Result is the outcome of building registrations from one CSV export.
type Result struct {
	Registrations []GuestRegistration
	TotalRows     int
	Skipped       SkipCounts
}
