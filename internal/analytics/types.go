package analytics

// BreakdownItem is one category of a breakdown.
type BreakdownItem struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is the number of registrations in the week starting on WeekStart (a Sunday).
type TrendPoint struct {
	WeekStart string `json:"weekStart"`
	Count     int    `json:"count"`
}

// ConsentStats summarizes the consent questions.
type ConsentStats struct {
	PhotoConsentCount     int     `json:"photoConsentCount"`
	PhotoConsentRate      float64 `json:"photoConsentRate"`
	MarketingConsentCount int     `json:"marketingConsentCount"`
	MarketingConsentRate  float64 `json:"marketingConsentRate"`
}

// RecentRegistration is the trimmed view of a confirmed guest shown in the activity feed.
type RecentRegistration struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Profession string `json:"profession"`
	Timestamp  string `json:"timestamp"`
}

// DashboardStats is everything the dashboard renders. Slices are never nil so the JSON
// always carries arrays.
type DashboardStats struct {
	TotalGuests      int     `json:"totalGuests"`
	ConfirmedGuests  int     `json:"confirmedGuests"`
	PendingGuests    int     `json:"pendingGuests"`
	CancelledGuests  int     `json:"cancelledGuests"`
	ApprovalRate     float64 `json:"approvalRate"`
	CancellationRate float64 `json:"cancellationRate"`

	StatusBreakdown         []BreakdownItem `json:"statusBreakdown"`
	CountryBreakdown        []BreakdownItem `json:"countryBreakdown"`
	CityBreakdown           []BreakdownItem `json:"cityBreakdown"`
	ExperienceBreakdown     []BreakdownItem `json:"experienceBreakdown"`
	ProfessionBreakdown     []BreakdownItem `json:"professionBreakdown"`
	SourceBreakdown         []BreakdownItem `json:"sourceBreakdown"`
	GenderBreakdown         []BreakdownItem `json:"genderBreakdown"`
	DietaryBreakdown        []BreakdownItem `json:"dietaryBreakdown"`
	TransportationBreakdown []BreakdownItem `json:"transportationBreakdown"`
	TopInterests            []BreakdownItem `json:"topInterests"`

	Consent ConsentStats `json:"consent"`

	WeeklyTrend         []TrendPoint         `json:"weeklyTrend"`
	AverageExperience   float64              `json:"averageExperience"`
	UniqueCountries     int                  `json:"uniqueCountries"`
	UniqueCities        int                  `json:"uniqueCities"`
	InternationalGuests int                  `json:"internationalGuests"`
	RecentRegistrations []RecentRegistration `json:"recentRegistrations"`

	SkippedRows int    `json:"skippedRows"`
	LastUpdated string `json:"lastUpdated"`
}
