package registrations

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lumaHeader = `api_id,name,first_name,last_name,email,created_at,approval_status,"Where are you based? (City, Country)",What best describes you?,How would you describe your web3 experience?,How did you hear about us?`

func fixedBuilder() *Builder {
	return &Builder{
		Now:   func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) },
		NewID: func() string { return "fixed" },
	}
}

func TestBuild(t *testing.T) {
	data := lumaHeader + "\n" +
		`gst-1,Ada Obi,Ada,Obi,ADA@Example.com,2025-04-01T10:00:00Z,approved,"Ikeja, Lagos",Software Developer,Intermediate,Twitter` + "\n" +
		`gst-2,Kwame Mensah,,,kwame@example.com,not-a-date,declined,"Accra, Ghana",Student,Newcomer,A friend` + "\n"

	res := fixedBuilder().Build(data)

	require.Len(t, res.Registrations, 2)
	assert.Equal(t, 2, res.TotalRows)
	assert.Zero(t, res.Skipped.Total())

	ada := res.Registrations[0]
	assert.Equal(t, "gst-1", ada.ID)
	assert.Equal(t, "2025-04-01T10:00:00Z", ada.Timestamp)
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Obi", ada.LastName)
	assert.Equal(t, "Nigeria", ada.Country)
	assert.Equal(t, "Ikeja", ada.City)
	assert.Equal(t, ProfessionDeveloper, ada.Profession)
	assert.Equal(t, "Software Developer", ada.Interests)
	assert.Equal(t, ExperienceIntermediate, ada.Experience)
	assert.Equal(t, SourceX, ada.Source)
	assert.Equal(t, StatusConfirmed, ada.Status)

	kwame := res.Registrations[1]
	assert.Equal(t, "Kwame", kwame.FirstName, "split from the name column")
	assert.Equal(t, "Mensah", kwame.LastName)
	assert.Equal(t, "2025-05-10T12:00:00Z", kwame.Timestamp, "unparseable timestamp falls back to now")
	assert.Equal(t, "Ghana", kwame.Country)
	assert.Equal(t, "Accra", kwame.City)
	assert.Equal(t, StatusCancelled, kwame.Status)
	assert.Equal(t, SourceReferral, kwame.Source)
}

func TestBuildEmptyInput(t *testing.T) {
	for _, data := range []string{"", "\n\n", lumaHeader, lumaHeader + "\n"} {
		res := Build(data)
		assert.Empty(t, res.Registrations)
		assert.Zero(t, res.Skipped.Total())
	}
}

func TestBuildSkipsCorruptAndBlankRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("email,approval_status,country\n")
	for i := 0; i < 100; i++ {
		if i == 50 {
			b.WriteString(`broken@example.com,"approved,Lagos` + "\n")
			b.WriteString(" , , \n")
		}
		fmt.Fprintf(&b, "guest%d@example.com,approved,Lagos\n", i)
	}

	res := fixedBuilder().Build(b.String())

	assert.Len(t, res.Registrations, 100)
	assert.Equal(t, 1, res.Skipped.Malformed)
	assert.Equal(t, 1, res.Skipped.Blank)
	assert.Equal(t, 102, res.TotalRows)
}

func TestBuildFallbackID(t *testing.T) {
	res := fixedBuilder().Build("email\nsomeone@example.com\n")
	require.Len(t, res.Registrations, 1)
	assert.Equal(t, "row-1-fixed", res.Registrations[0].ID)
}

func TestBuildMissingColumnsUseDefaults(t *testing.T) {
	res := fixedBuilder().Build("email\nsomeone@example.com\n")
	require.Len(t, res.Registrations, 1)

	g := res.Registrations[0]
	assert.Equal(t, "Nigeria", g.Country)
	assert.Equal(t, "", g.City)
	assert.Equal(t, ProfessionOther, g.Profession)
	assert.Equal(t, ExperienceUnknown, g.Experience)
	assert.Equal(t, SourceUnknown, g.Source)
	assert.Equal(t, StatusPending, g.Status)
	assert.Equal(t, GenderUnknown, g.Gender)
	assert.Equal(t, ConsentUnknown, g.PhotoConsent)
}

func TestBuildStatusAlwaysEnumerated(t *testing.T) {
	data := "email,approval_status\n" +
		"a@x.io,approved\nb@x.io,pending_approval\nc@x.io,declined\nd@x.io,\ne@x.io,invited\n"
	res := Build(data)
	require.Len(t, res.Registrations, 5)
	for _, g := range res.Registrations {
		assert.Contains(t, Statuses, g.Status)
	}
}

func TestBuildHeaderOrderDoesNotMatter(t *testing.T) {
	a := Build("email,approval_status\na@x.io,approved\nb@x.io,declined\n")
	b := Build("approval_status,email\napproved,a@x.io\ndeclined,b@x.io\n")

	require.Len(t, a.Registrations, 2)
	require.Len(t, b.Registrations, 2)
	for i := range a.Registrations {
		assert.Equal(t, a.Registrations[i].Email, b.Registrations[i].Email)
		assert.Equal(t, a.Registrations[i].Status, b.Registrations[i].Status)
	}
}

func TestCityFromLocation(t *testing.T) {
	assert.Equal(t, "Yaba", cityFromLocation("Yaba, Lagos"))
	assert.Equal(t, "", cityFromLocation("Lagos"))
	assert.Equal(t, "", cityFromLocation("Nigeria, Lagos"))
}
