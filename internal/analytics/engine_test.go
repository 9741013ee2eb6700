package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/ignite/summit-insights/internal/registrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 14, 9, 0, 0, 0, time.UTC) // a Wednesday

func testOptions() Options {
	return Options{Location: time.UTC, Now: func() time.Time { return fixedNow }}
}

func guest(id string, status registrations.Status, country, experience, ts string) registrations.GuestRegistration {
	return registrations.GuestRegistration{
		ID:               id,
		Timestamp:        ts,
		Email:            id + "@example.com",
		FirstName:        "Guest",
		LastName:         id,
		Country:          country,
		City:             "Lagos",
		Profession:       registrations.ProfessionDeveloper,
		Experience:       experience,
		Interests:        "DeFi",
		Source:           registrations.SourceX,
		Status:           status,
		Gender:           registrations.GenderUnknown,
		Dietary:          registrations.DietaryUnknown,
		Transportation:   registrations.TransportUnknown,
		PhotoConsent:     registrations.ConsentYes,
		MarketingConsent: registrations.ConsentNo,
	}
}

func sampleGuests() []registrations.GuestRegistration {
	return []registrations.GuestRegistration{
		guest("a", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceNewcomer, "2025-05-01T10:00:00Z"),
		guest("b", registrations.StatusConfirmed, "Ghana", registrations.ExperienceAdvanced, "2025-05-03T10:00:00Z"),
		guest("c", registrations.StatusPending, "Nigeria", registrations.ExperienceUnknown, "2025-05-04T10:00:00Z"),
		guest("d", registrations.StatusCancelled, "Kenya", registrations.ExperienceIntermediate, "bad-date"),
	}
}

func TestComputeTotals(t *testing.T) {
	stats := Compute(sampleGuests(), testOptions())

	assert.Equal(t, 4, stats.TotalGuests)
	assert.Equal(t, 2, stats.ConfirmedGuests)
	assert.Equal(t, 1, stats.PendingGuests)
	assert.Equal(t, 1, stats.CancelledGuests)
	assert.Equal(t, 50.0, stats.ApprovalRate)
	assert.Equal(t, 25.0, stats.CancellationRate)
	assert.Equal(t, 3, stats.UniqueCountries)
	assert.Equal(t, 3, stats.UniqueCities, "Lagos is keyed per country")
	assert.Equal(t, 2, stats.InternationalGuests)
	assert.Equal(t, 4, stats.Consent.PhotoConsentCount)
	assert.Equal(t, 100.0, stats.Consent.PhotoConsentRate)
	assert.Equal(t, 0.0, stats.Consent.MarketingConsentRate)
	assert.Equal(t, "2025-05-14T09:00:00Z", stats.LastUpdated)
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil, testOptions())

	assert.Zero(t, stats.TotalGuests)
	assert.Zero(t, stats.ApprovalRate)
	assert.Zero(t, stats.AverageExperience)
	require.Len(t, stats.StatusBreakdown, 3)
	for _, item := range stats.StatusBreakdown {
		assert.Zero(t, item.Count)
		assert.Zero(t, item.Percentage)
	}
	assert.NotNil(t, stats.CountryBreakdown)
	assert.NotNil(t, stats.WeeklyTrend)
	assert.NotNil(t, stats.RecentRegistrations)
	assert.NotNil(t, stats.TopInterests)
	assert.Empty(t, stats.CountryBreakdown)
}

func TestComputeIsPureAndDeterministic(t *testing.T) {
	regs := sampleGuests()
	before := append([]registrations.GuestRegistration(nil), regs...)

	first := Compute(regs, testOptions())
	second := Compute(regs, testOptions())

	assert.Equal(t, first, second)
	assert.Equal(t, before, regs)
}

func TestBreakdownPercentagesSumTo100(t *testing.T) {
	regs := make([]registrations.GuestRegistration, 0, 7)
	for i, st := range []registrations.Status{
		registrations.StatusConfirmed, registrations.StatusConfirmed, registrations.StatusConfirmed,
		registrations.StatusPending, registrations.StatusPending, registrations.StatusCancelled,
		registrations.StatusConfirmed,
	} {
		regs = append(regs, guest(fmt.Sprint(i), st, "Nigeria", registrations.ExperienceNewcomer, "2025-05-01T10:00:00Z"))
	}
	stats := Compute(regs, testOptions())

	for name, items := range map[string][]BreakdownItem{
		"status":     stats.StatusBreakdown,
		"experience": stats.ExperienceBreakdown,
		"profession": stats.ProfessionBreakdown,
		"gender":     stats.GenderBreakdown,
	} {
		sum := 0.0
		for _, item := range items {
			sum += item.Percentage
		}
		assert.InDelta(t, 100, sum, 0.2, name)
	}
}

func TestStatusBreakdownKeepsFixedOrder(t *testing.T) {
	stats := Compute([]registrations.GuestRegistration{
		guest("a", registrations.StatusCancelled, "Nigeria", registrations.ExperienceUnknown, "2025-05-01T10:00:00Z"),
	}, testOptions())

	names := []string{}
	for _, item := range stats.StatusBreakdown {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"confirmed", "pending", "cancelled"}, names)
}

func TestTopNStableOnTies(t *testing.T) {
	tl := newTally()
	for _, k := range []string{"b", "a", "c", "a", "d", "c"} {
		tl.add(k)
	}
	got := tl.top(6, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
	assert.Equal(t, "b", got[2].Name, "b was seen before d")
}

func TestCountryBreakdownLimitedToTen(t *testing.T) {
	var regs []registrations.GuestRegistration
	for i := 0; i < 15; i++ {
		regs = append(regs, guest(fmt.Sprint(i), registrations.StatusConfirmed, fmt.Sprintf("Country %02d", i), registrations.ExperienceUnknown, "2025-05-01T10:00:00Z"))
	}
	stats := Compute(regs, testOptions())
	assert.Len(t, stats.CountryBreakdown, 10)
	assert.Equal(t, "Country 00", stats.CountryBreakdown[0].Name)
}

func TestWeekStart(t *testing.T) {
	sat := time.Date(2025, 5, 10, 23, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 5, 11, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-05-04", WeekStart(sat, time.UTC).Format("2006-01-02"))
	assert.Equal(t, "2025-05-11", WeekStart(sun, time.UTC).Format("2006-01-02"))
}

func TestWeeklyTrendSaturdayAndSundayInDifferentWeeks(t *testing.T) {
	regs := []registrations.GuestRegistration{
		guest("sat", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-05-10T12:00:00Z"),
		guest("sun", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-05-11T12:00:00Z"),
	}
	trend := WeeklyTrend(regs, time.UTC, fixedNow)

	require.Len(t, trend, 2)
	assert.Equal(t, TrendPoint{WeekStart: "2025-05-04", Count: 1}, trend[0])
	assert.Equal(t, TrendPoint{WeekStart: "2025-05-11", Count: 1}, trend[1])
}

func TestWeeklyTrendUsesLocalSunday(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	// 23:30 UTC on Saturday is 00:30 Sunday in Lagos.
	regs := []registrations.GuestRegistration{
		guest("late", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-05-10T23:30:00Z"),
	}
	trend := WeeklyTrend(regs, lagos, fixedNow)
	require.Len(t, trend, 1)
	assert.Equal(t, "2025-05-11", trend[0].WeekStart)
}

func TestWeeklyTrendInvalidTimestampCountsThisWeek(t *testing.T) {
	regs := []registrations.GuestRegistration{
		guest("x", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "not a date"),
	}
	trend := WeeklyTrend(regs, time.UTC, fixedNow)
	require.Len(t, trend, 1)
	assert.Equal(t, "2025-05-11", trend[0].WeekStart)
}

func TestWeeklyTrendKeepsLastEightWeeks(t *testing.T) {
	var regs []registrations.GuestRegistration
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		ts := start.AddDate(0, 0, 7*i).Format(time.RFC3339)
		regs = append(regs, guest(fmt.Sprint(i), registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, ts))
	}
	trend := WeeklyTrend(regs, time.UTC, fixedNow)

	require.Len(t, trend, 8)
	for i := 1; i < len(trend); i++ {
		assert.Less(t, trend[i-1].WeekStart, trend[i].WeekStart)
	}
	assert.Equal(t, WeekStart(start.AddDate(0, 0, 7*11), time.UTC).Format("2006-01-02"), trend[7].WeekStart)
}

func TestAverageExperience(t *testing.T) {
	regs := []registrations.GuestRegistration{
		{Experience: registrations.ExperienceNewcomer},
		{Experience: registrations.ExperienceAdvanced},
		{Experience: registrations.ExperienceUnknown},
	}
	assert.Equal(t, 2.0, AverageExperience(regs))

	assert.Equal(t, 2.5, AverageExperience([]registrations.GuestRegistration{{Experience: registrations.ExperienceWeb2}}))
	assert.Equal(t, 0.0, AverageExperience([]registrations.GuestRegistration{{Experience: registrations.ExperienceUnknown}}))
	assert.Equal(t, 0.0, AverageExperience(nil))

	// (1 + 2 + 2) / 3 = 1.666... -> 1.7
	assert.Equal(t, 1.7, AverageExperience([]registrations.GuestRegistration{
		{Experience: registrations.ExperienceNewcomer},
		{Experience: registrations.ExperienceIntermediate},
		{Experience: registrations.ExperienceIntermediate},
	}))
}

func TestRecentConfirmed(t *testing.T) {
	regs := []registrations.GuestRegistration{
		guest("old", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-01-01T00:00:00Z"),
		guest("pending", registrations.StatusPending, "Nigeria", registrations.ExperienceUnknown, "2025-06-01T00:00:00Z"),
		guest("new", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-05-01T00:00:00Z"),
		guest("mid", registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "2025-03-01T00:00:00Z"),
	}
	got := RecentConfirmed(regs, 10)

	ids := []string{}
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
	assert.Equal(t, "Guest new", got[0].Name)
}

func TestRecentConfirmedLimitAndInvalidDates(t *testing.T) {
	var regs []registrations.GuestRegistration
	for i := 0; i < 12; i++ {
		regs = append(regs, guest(fmt.Sprint(i), registrations.StatusConfirmed, "Nigeria", registrations.ExperienceUnknown, "garbage"))
	}
	got := RecentConfirmed(regs, 10)

	require.Len(t, got, 10)
	assert.Equal(t, "0", got[0].ID, "unreadable timestamps keep input order")
}

func TestRecentConfirmedMixedValidAndInvalidDates(t *testing.T) {
	c := registrations.StatusConfirmed
	u := registrations.ExperienceUnknown
	regs := []registrations.GuestRegistration{
		guest("old", c, "Nigeria", u, "2025-01-01T00:00:00Z"),
		guest("bad1", c, "Nigeria", u, "garbage"),
		guest("new", c, "Nigeria", u, "2025-05-01T00:00:00Z"),
		guest("bad2", c, "Nigeria", u, ""),
		guest("mid", c, "Nigeria", u, "2025-03-01T00:00:00Z"),
	}

	var ids []string
	for _, r := range RecentConfirmed(regs, 10) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "bad1", "bad2"}, ids)
}

func TestTopInterestsGroupCaseInsensitively(t *testing.T) {
	regs := sampleGuests()
	regs[1].Interests = "defi"
	regs[2].Interests = "  NFTs "
	regs[3].Interests = ""

	stats := Compute(regs, testOptions())
	require.Len(t, stats.TopInterests, 2)
	assert.Equal(t, BreakdownItem{Name: "DeFi", Count: 2, Percentage: 50}, stats.TopInterests[0])
	assert.Equal(t, "NFTs", stats.TopInterests[1].Name)
}

func TestPercentageGuardsZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, percentage(5, 0))
	assert.Equal(t, 33.3, percentage(1, 3))
}
