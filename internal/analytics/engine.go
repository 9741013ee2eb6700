package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/ignite/summit-insights/internal/registrations"
)

// Top-N sizes per breakdown.
const (
	topCountries      = 10
	topCities         = 10
	topSources        = 8
	topDietary        = 5
	topTransportation = 5
	topInterests      = 5
	recentLimit       = 10
	trendWeeks        = 8
)

const unknownLabel = "Unknown"

// experienceScores weights each level for the average; Unknown is left out entirely.
var experienceScores = map[string]float64{
	registrations.ExperienceNewcomer:     1,
	registrations.ExperienceIntermediate: 2,
	registrations.ExperienceWeb2:         2.5,
	registrations.ExperienceAdvanced:     3,
}

// Options control the parts of the computation that depend on the environment.
type Options struct {
	// Location decides which local Sunday starts a week. Defaults to time.Local.
	Location *time.Location
	// Now is used for lastUpdated and as the fallback for unreadable timestamps.
	Now func() time.Time
	// SkippedRows is reported as-is so the dashboard can show import health.
	SkippedRows int
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

// Compute aggregates regs into dashboard statistics. It does not modify regs and returns
// the same output for the same input and options.
func Compute(regs []registrations.GuestRegistration, opts Options) DashboardStats {
	now := opts.now()
	total := len(regs)

	status := newTally(statusNames()...)
	countries := newTally()
	cities := newTally()
	experience := newTally()
	professions := newTally()
	sources := newTally()
	genders := newTally()
	dietary := newTally()
	transport := newTally()
	interests := newInterestTally()

	var consent ConsentStats
	international := 0
	uniqueCountries := make(map[string]struct{})
	uniqueCities := make(map[string]struct{})

	for _, g := range regs {
		status.add(string(g.Status))
		countries.add(g.Country)
		experience.add(g.Experience)
		professions.add(g.Profession)
		sources.add(g.Source)
		genders.add(g.Gender)
		dietary.add(g.Dietary)
		transport.add(g.Transportation)
		interests.add(g.Interests)

		if g.Country != "" && g.Country != unknownLabel {
			uniqueCountries[g.Country] = struct{}{}
			if g.Country != registrations.DefaultCountry {
				international++
			}
		}
		if g.City != "" && g.City != unknownLabel {
			key := g.City + ", " + g.Country
			uniqueCities[key] = struct{}{}
			cities.add(key)
		}
		if g.PhotoConsent == registrations.ConsentYes {
			consent.PhotoConsentCount++
		}
		if g.MarketingConsent == registrations.ConsentYes {
			consent.MarketingConsentCount++
		}
	}
	consent.PhotoConsentRate = percentage(consent.PhotoConsentCount, total)
	consent.MarketingConsentRate = percentage(consent.MarketingConsentCount, total)

	confirmed := status.counts[string(registrations.StatusConfirmed)]
	cancelled := status.counts[string(registrations.StatusCancelled)]

	return DashboardStats{
		TotalGuests:      total,
		ConfirmedGuests:  confirmed,
		PendingGuests:    status.counts[string(registrations.StatusPending)],
		CancelledGuests:  cancelled,
		ApprovalRate:     percentage(confirmed, total),
		CancellationRate: percentage(cancelled, total),

		StatusBreakdown:         status.items(total),
		CountryBreakdown:        countries.top(total, topCountries),
		CityBreakdown:           cities.top(total, topCities),
		ExperienceBreakdown:     experience.sorted(total),
		ProfessionBreakdown:     professions.sorted(total),
		SourceBreakdown:         sources.top(total, topSources),
		GenderBreakdown:         genders.sorted(total),
		DietaryBreakdown:        dietary.top(total, topDietary),
		TransportationBreakdown: transport.top(total, topTransportation),
		TopInterests:            interests.top(total, topInterests),

		Consent: consent,

		WeeklyTrend:         WeeklyTrend(regs, opts.location(), now),
		AverageExperience:   AverageExperience(regs),
		UniqueCountries:     len(uniqueCountries),
		UniqueCities:        len(uniqueCities),
		InternationalGuests: international,
		RecentRegistrations: RecentConfirmed(regs, recentLimit),

		SkippedRows: opts.SkippedRows,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

func statusNames() []string {
	names := make([]string, len(registrations.Statuses))
	for i, s := range registrations.Statuses {
		names[i] = string(s)
	}
	return names
}

// WeekStart returns midnight of the Sunday on or before t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, loc)
}

// WeeklyTrend buckets registrations by week and returns the latest trendWeeks buckets
// oldest first. Unreadable timestamps count towards the current week.
func WeeklyTrend(regs []registrations.GuestRegistration, loc *time.Location, now time.Time) []TrendPoint {
	counts := make(map[string]int)
	for _, g := range regs {
		ts, ok := registrations.ParseTimestamp(g.Timestamp)
		if !ok {
			ts = now
		}
		counts[WeekStart(ts, loc).Format("2006-01-02")]++
	}

	weeks := make([]string, 0, len(counts))
	for w := range counts {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)
	if len(weeks) > trendWeeks {
		weeks = weeks[len(weeks)-trendWeeks:]
	}

	out := make([]TrendPoint, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, TrendPoint{WeekStart: w, Count: counts[w]})
	}
	return out
}

// AverageExperience averages the scored levels, rounded to one decimal. Guests with an
// Unknown level do not count towards the denominator.
func AverageExperience(regs []registrations.GuestRegistration) float64 {
	var sum float64
	n := 0
	for _, g := range regs {
		if score, ok := experienceScores[g.Experience]; ok {
			sum += score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// RecentConfirmed returns up to limit confirmed registrations, newest first. Entries whose
// timestamps cannot be read keep their relative order.
func RecentConfirmed(regs []registrations.GuestRegistration, limit int) []RecentRegistration {
	type entry struct {
		reg registrations.GuestRegistration
		ts  time.Time
		ok  bool
	}

	confirmed := make([]entry, 0)
	for _, g := range regs {
		if g.Status != registrations.StatusConfirmed {
			continue
		}
		ts, ok := registrations.ParseTimestamp(g.Timestamp)
		confirmed = append(confirmed, entry{reg: g, ts: ts, ok: ok})
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		a, b := confirmed[i], confirmed[j]
		// Unparseable timestamps sort after every valid one and keep their input order.
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.ts.After(b.ts)
	})

	if len(confirmed) > limit {
		confirmed = confirmed[:limit]
	}
	out := make([]RecentRegistration, 0, len(confirmed))
	for _, e := range confirmed {
		out = append(out, RecentRegistration{
			ID:         e.reg.ID,
			Name:       e.reg.FullName(),
			Email:      e.reg.Email,
			Country:    e.reg.Country,
			City:       e.reg.City,
			Profession: e.reg.Profession,
			Timestamp:  e.reg.Timestamp,
		})
	}
	return out
}

// interestTally groups free-text interests case-insensitively and labels each group
// with the first spelling seen.
type interestTally struct {
	*tally
	labels map[string]string
}

func newInterestTally() *interestTally {
	return &interestTally{tally: newTally(), labels: make(map[string]string)}
}

func (it *interestTally) add(raw string) {
	label := strings.Join(strings.Fields(raw), " ")
	if label == "" {
		return
	}
	key := strings.ToLower(label)
	if _, ok := it.labels[key]; !ok {
		it.labels[key] = label
	}
	it.tally.add(key)
}

func (it *interestTally) top(total, n int) []BreakdownItem {
	out := it.tally.top(total, n)
	for i := range out {
		out[i].Name = it.labels[out[i].Name]
	}
	return out
}
