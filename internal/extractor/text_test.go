package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantDate string
		wantTime string
		wantOK   bool
	}{
		{
			name:     "weekday with hour",
			text:     "Friday, October 31, 2025 at 8 PM",
			wantDate: "Friday, October 31, 2025",
			wantTime: "8 PM",
			wantOK:   true,
		},
		{
			name:     "minutes and surrounding text",
			text:     "When: Saturday, November 8, 2025 at 9:30 PM – 11:30 PM CST",
			wantDate: "Saturday, November 8, 2025",
			wantTime: "9:30 PM",
			wantOK:   true,
		},
		{
			name:     "narrow no-break space before meridiem",
			text:     "Friday, October 31, 2025 at 8\u202fPM",
			wantDate: "Friday, October 31, 2025",
			wantTime: "8 PM",
			wantOK:   true,
		},
		{
			name:     "without weekday",
			text:     "October 31, 2025 at 7:00 pm",
			wantDate: "October 31, 2025",
			wantTime: "7:00 pm",
			wantOK:   true,
		},
		{
			name:     "date only",
			text:     "Friday, October 31, 2025",
			wantDate: "Friday, October 31, 2025",
			wantTime: "",
			wantOK:   true,
		},
		{
			name:   "no date",
			text:   "Tomorrow night at the club",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, tm, ok := SplitDateTime(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDate, d)
			assert.Equal(t, tt.wantTime, tm)
		})
	}
}

func TestCleanTicketURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			name: "facebook redirect unwrapped and query stripped",
			href: "https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Ftix%3Ffbclid%3Dabc",
			want: "https://example.com/tix",
		},
		{
			name: "mobile redirect host",
			href: "https://lm.facebook.com/l.php?u=https%3A%2F%2Fwww.eventbrite.com%2Fe%2F123%3Faff%3Dfb&h=AT1",
			want: "https://www.eventbrite.com/e/123",
		},
		{
			name: "direct link with tracking and fragment",
			href: "https://dice.fm/event/abc?utm_source=facebook#buy",
			want: "https://dice.fm/event/abc",
		},
		{
			name: "redirect without target",
			href: "https://l.facebook.com/l.php?h=AT1",
			want: "",
		},
		{
			name: "relative link",
			href: "/events/123/",
			want: "",
		},
		{
			name: "mailto",
			href: "mailto:box@office.com",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTicketURL(tt.href))
		})
	}
}

func TestParsePromoters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "visibility phrase excluded",
			text: "Event by Alice, Bob and Carol Public · Anyone on or off Facebook",
			want: []string{"Alice", "Bob", "Carol"},
		},
		{
			name: "single promoter until line end",
			text: "Event by The Blue Room\nPublic · Anyone on or off Facebook",
			want: []string{"The Blue Room"},
		},
		{
			name: "ampersand and others",
			text: "Event by Foo Presents & Bar Collective and 3 others",
			want: []string{"Foo Presents", "Bar Collective"},
		},
		{
			name: "names on the next line",
			text: "Event by\nPublic Records\nPrivate · Only guests",
			want: []string{"Public Records"},
		},
		{
			name: "duplicates removed",
			text: "Event by Alice and alice",
			want: []string{"Alice"},
		},
		{
			name: "no fragment",
			text: "Hosted somewhere",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePromoters(tt.text))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "see more stripped",
			text: "  Three sets of jazz. See more ",
			want: "Three sets of jazz.",
		},
		{
			name: "ellipsis see more",
			text: "Doors at 7…See more",
			want: "Doors at 7",
		},
		{
			name: "blank lines collapsed",
			text: "Line one\n\n\n\n  Line   two\nSee less",
			want: "Line one\n\nLine two",
		},
		{
			name: "see more inside text kept",
			text: "Come see more bands than ever before",
			want: "Come see more bands than ever before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.text))
		})
	}
}

func TestIsEventPage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.facebook.com/events/1234567890/", true},
		{"https://m.facebook.com/events/1234567890?ref=share", true},
		{"https://www.facebook.com/events/discover", false},
		{"https://www.facebook.com/events/", false},
		{"https://www.eventbrite.com/events/123", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEventPage(tt.url))
		})
	}
}
