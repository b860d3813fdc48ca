package extractor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return parseHTML(t, string(b))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractCometEventPage(t *testing.T) {
	doc := loadFixture(t, "comet_event.html")
	profile := DefaultRegistry().Detect(doc)
	require.Equal(t, "comet", profile.Name)

	ev, ctx := New(discardLogger(), profile).Extract(doc, "https://www.facebook.com/events/111/")

	assert.Equal(t, "Halloween Bash with The Midnight Owls", ev.Title)
	assert.Equal(t, "Friday, October 31, 2025", ev.Date)
	assert.Equal(t, "8 PM", ev.Time)
	assert.Equal(t, "The Blue Room", ev.Venue)
	assert.Equal(t, "Join us for a spooky night of live music.\nCostume contest at 10 PM!", ev.Description)
	assert.Equal(t, "https://scontent.xx.fbcdn.net/v/t39/cover.jpg?oh=123", ev.Image)
	assert.Equal(t, "https://www.eventbrite.com/e/halloween-bash-123", ev.TicketURL)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, ev.Promoters)

	require.NotEmpty(t, ctx.Images)
	assert.Equal(t, ev.Image, ctx.Images[0].URL)
	assert.Equal(t, "https://www.facebook.com/events/111/", ctx.PageURL)
}

func TestExtractClassicEventPage(t *testing.T) {
	doc := loadFixture(t, "classic_event.html")
	profile := DefaultRegistry().Detect(doc)
	require.Equal(t, "classic", profile.Name)

	ev, _ := New(discardLogger(), profile).Extract(doc, "https://www.facebook.com/events/222/")

	assert.Equal(t, "Jazz Night at Smalls", ev.Title)
	assert.Equal(t, "Saturday, November 8, 2025", ev.Date)
	assert.Equal(t, "9:30 PM", ev.Time)
	assert.Equal(t, "Smalls Jazz Club", ev.Venue)
	assert.Equal(t, "Three sets of straight-ahead jazz.", ev.Description)
	assert.Equal(t, "https://scontent.fxyz1-1.fna.fbcdn.net/v/cover.jpg", ev.Image)
	assert.Equal(t, "https://www.ticketmaster.com/event/0B00", ev.TicketURL)
	assert.Equal(t, []string{"Smalls Jazz Club", "Spike Wilner"}, ev.Promoters)
}

func TestExtractWithoutKnownSelectorsReturnsDefaults(t *testing.T) {
	doc := parseHTML(t, `<html><body><div><p>Hello world</p><span>nothing here</span></div></body></html>`)

	for _, profile := range []SiteProfile{CometProfile(), ClassicProfile()} {
		t.Run(profile.Name, func(t *testing.T) {
			var ev = New(discardLogger(), profile)
			got, _ := ev.Extract(doc, "https://www.facebook.com/events/333/")

			assert.Empty(t, got.Title)
			assert.Empty(t, got.Date)
			assert.Empty(t, got.Time)
			assert.Empty(t, got.Venue)
			assert.Empty(t, got.Description)
			assert.Empty(t, got.Image)
			assert.Empty(t, got.TicketURL)
			assert.NotNil(t, got.Promoters)
			assert.Empty(t, got.Promoters)
		})
	}
}

func TestExtractLargestCDNImageFallback(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<img src="https://static.xx.fbcdn.net/rsrc.php/v3/logo.png" width="2000" height="2000">
		<img src="https://scontent.xx.fbcdn.net/v/avatar.jpg" width="40" height="40">
		<img src="https://scontent.xx.fbcdn.net/v/small.jpg" width="320" height="180">
		<img src="https://scontent.xx.fbcdn.net/v/large.jpg" width="1280" height="720">
		<img src="https://example.com/other.jpg" width="4000" height="4000">
	</body></html>`)

	ev, ctx := New(discardLogger(), CometProfile()).Extract(doc, "https://www.facebook.com/events/444/")

	assert.Equal(t, "https://scontent.xx.fbcdn.net/v/large.jpg", ev.Image)
	assert.Len(t, ctx.Images, 2)
}

func TestExtractDateFromScanFallback(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<div><span>Some heading</span></div>
		<div><span>Thursday, December 4, 2025 at 7:30 PM – 10 PM</span></div>
	</body></html>`)

	ev, _ := New(discardLogger(), ClassicProfile()).Extract(doc, "https://www.facebook.com/events/555/")

	assert.Equal(t, "Thursday, December 4, 2025", ev.Date)
	assert.Equal(t, "7:30 PM", ev.Time)
}

func TestExtractVenueFilters(t *testing.T) {
	doc := parseHTML(t, `<html><body><div role="main">
		<h1><span dir="auto">Late Show</span></h1>
		<a role="link" href="https://www.facebook.com/x"><span dir="auto">Late Show</span></a>
		<a role="link" href="https://www.facebook.com/y"><span dir="auto">Going</span></a>
		<a role="link" href="https://www.facebook.com/z"><span dir="auto">Friday, October 31, 2025 at 8 PM</span></a>
		<a role="link" href="https://www.facebook.com/w"><span dir="auto">Downtown Collective</span></a>
		<a role="link" href="https://www.facebook.com/v"><span dir="auto">Empty Bottle Lounge</span></a>
	</div></body></html>`)

	ev, _ := New(discardLogger(), CometProfile()).Extract(doc, "https://www.facebook.com/events/666/")

	assert.Equal(t, "Late Show", ev.Title)
	assert.Equal(t, "Empty Bottle Lounge", ev.Venue)
}

func TestExtractTicketURLMatchesVendorHost(t *testing.T) {
	tests := []struct {
		name  string
		links string
		want  string
	}{
		{
			name: "host containing a vendor domain is skipped",
			links: `<a href="https://www.opera.com/">Opera</a>
				<a href="https://www.sierra.com/deals">Sierra</a>
				<a href="https://www.eventbrite.com/e/real-123">Get tickets</a>`,
			want: "https://www.eventbrite.com/e/real-123",
		},
		{
			name:  "vendor subdomain",
			links: `<a href="https://de.ra.co/events/42">RA</a>`,
			want:  "https://de.ra.co/events/42",
		},
		{
			name:  "ticket phrase in link text",
			links: `<a href="https://venue.example.com/shows/9">Buy tickets</a>`,
			want:  "https://venue.example.com/shows/9",
		},
		{
			name:  "no vendor and no phrase",
			links: `<a href="https://www.riviera.com/">Riviera</a><a href="https://petix.net/">Petix</a>`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, `<html><body><div role="main">`+tt.links+`</div></body></html>`)
			ev, _ := New(discardLogger(), CometProfile()).Extract(doc, "https://www.facebook.com/events/777/")
			assert.Equal(t, tt.want, ev.TicketURL)
		})
	}
}

func TestRegistryAddAndLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - name: mobile
    markers: ["#m_story_permalink_view"]
    title:
      - selector: "header h3"
    image:
      - selector: "i.img"
        attr: "data-src"
`), 0o644))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	r := DefaultRegistry()
	for _, p := range profiles {
		r.Add(p)
	}

	doc := parseHTML(t, `<html><body><div id="m_story_permalink_view"><header><h3>Mobile Gig</h3></header></div></body></html>`)
	p := r.Detect(doc)
	assert.Equal(t, "mobile", p.Name)
	assert.Equal(t, 300, p.ScanLimit)
	assert.NotEmpty(t, p.Denylist)

	ev, _ := New(discardLogger(), p).Extract(doc, "https://m.facebook.com/events/777")
	assert.Equal(t, "Mobile Gig", ev.Title)
}

func TestLoadProfilesRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - markers: [\"body\"]\n"), 0o644))

	_, err := LoadProfiles(path)
	assert.Error(t, err)
}
