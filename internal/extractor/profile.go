package extractor

import (
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Probe — один CSS-селектор из таблицы. Если Attr пустой, берётся текст элемента.
type Probe struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
}

// SiteProfile — таблицы селекторов для одной версии разметки сайта.
// Порядок проб в каждом списке задаёт приоритет.
type SiteProfile struct {
	Name           string   `yaml:"name"`
	Markers        []string `yaml:"markers"`
	Title          []Probe  `yaml:"title"`
	Date           []Probe  `yaml:"date"`
	Venue          []Probe  `yaml:"venue"`
	Description    []Probe  `yaml:"description"`
	Image          []Probe  `yaml:"image"`
	TicketLinks    string   `yaml:"ticketLinks"`
	ScanSelector   string   `yaml:"scanSelector"`
	ScanLimit      int      `yaml:"scanLimit"`
	Denylist       []string `yaml:"denylist"`
	VenueKeywords  []string `yaml:"venueKeywords"`
	TicketKeywords []string `yaml:"ticketKeywords"`
	TicketHosts    []string `yaml:"ticketHosts"`
}

var defaultDenylist = []string{
	"facebook", "events", "home", "menu", "notifications", "messenger", "log in",
	"create new account", "forgot account?", "see more", "see less", "discover",
	"your events", "birthdays", "calendar", "create event", "going", "interested",
	"invite", "share", "details", "discussion", "about", "public", "private",
	"tickets", "more", "watch", "marketplace", "groups", "chats", "search facebook",
}

var defaultVenueKeywords = []string{
	"hall", "club", "bar", "pub", "theatre", "theater", "lounge", "brewery", "arena",
	"center", "centre", "tavern", "room", "cafe", "café", "stage", "venue", "ballroom",
	"saloon", "garage", "house", "park", "amphitheater", "music",
}

// defaultTicketKeywords ищутся в тексте ссылки и в пути URL.
var defaultTicketKeywords = []string{"ticket", "buy tickets", "get tickets"}

// defaultTicketHosts сравниваются только с хостом: запись с точкой — домен
// (сам домен или его поддомен), без точки — отдельная метка хоста.
var defaultTicketHosts = []string{
	"eventbrite", "ticketmaster", "dice.fm", "seetickets", "axs.com", "etix.com",
	"ticketweb", "tixr.com", "showclix.com", "universe.com", "ticketleap.com",
	"brownpapertickets.com", "ra.co", "songkick.com",
}

// withDefaults заполняет пустые списки общими значениями.
func (p SiteProfile) withDefaults() SiteProfile {
	if len(p.Denylist) == 0 {
		p.Denylist = defaultDenylist
	}
	if len(p.VenueKeywords) == 0 {
		p.VenueKeywords = defaultVenueKeywords
	}
	if len(p.TicketKeywords) == 0 {
		p.TicketKeywords = defaultTicketKeywords
	}
	if len(p.TicketHosts) == 0 {
		p.TicketHosts = defaultTicketHosts
	}
	if p.TicketLinks == "" {
		p.TicketLinks = "a[href]"
	}
	if p.ScanSelector == "" {
		p.ScanSelector = "h1, h2, span, div"
	}
	if p.ScanLimit <= 0 {
		p.ScanLimit = 300
	}
	return p
}

// CometProfile — текущая разметка Facebook (div[role=main], атрибуты dir=auto).
func CometProfile() SiteProfile {
	return SiteProfile{
		Name:    "comet",
		Markers: []string{`div[role="main"]`, `[data-pagelet]`},
		Title: []Probe{
			{Selector: `div[role="main"] h1 span[dir="auto"]`},
			{Selector: `div[role="main"] h1`},
			{Selector: `h1 span`},
			{Selector: `h1`},
			{Selector: `meta[property="og:title"]`, Attr: "content"},
		},
		Date: []Probe{
			{Selector: `div[role="main"] h2 span`},
			{Selector: `div[role="main"] span[dir="auto"]`},
			{Selector: `meta[property="og:description"]`, Attr: "content"},
		},
		Venue: []Probe{
			{Selector: `div[role="main"] a[href*="/places/"] span`},
			{Selector: `div[role="main"] a[href*="/pages/"] span`},
			{Selector: `div[role="main"] a[role="link"] span[dir="auto"]`},
			{Selector: `div[role="main"] span[dir="auto"] a`},
		},
		Description: []Probe{
			{Selector: `div[role="main"] div[data-ad-preview="message"]`},
			{Selector: `meta[property="og:description"]`, Attr: "content"},
			{Selector: `meta[name="description"]`, Attr: "content"},
		},
		Image: []Probe{
			{Selector: `img[data-imgperflogname="profileCoverPhoto"]`, Attr: "src"},
			{Selector: `div[role="main"] img[data-imgperflogname]`, Attr: "src"},
			{Selector: `meta[property="og:image"]`, Attr: "content"},
		},
	}.withDefaults()
}

// ClassicProfile — старая разметка с data-testid="event-permalink-*".
func ClassicProfile() SiteProfile {
	return SiteProfile{
		Name:    "classic",
		Markers: []string{`[data-testid^="event-permalink"]`, `#event_summary`},
		Title: []Probe{
			{Selector: `[data-testid="event-permalink-event-name"]`},
			{Selector: `#seo_h1_tag`},
			{Selector: `h1`},
			{Selector: `meta[property="og:title"]`, Attr: "content"},
		},
		Date: []Probe{
			{Selector: `[data-testid="event-permalink-details"] span`},
			{Selector: `#event_time_info`},
			{Selector: `#event_summary li`},
		},
		Venue: []Probe{
			{Selector: `[data-testid="event-permalink-location"] a`},
			{Selector: `#event_summary a[href*="/pages/"]`},
			{Selector: `#event_summary li a`},
		},
		Description: []Probe{
			{Selector: `[data-testid="event-permalink-details"] [data-testid="event-permalink-description"]`},
			{Selector: `#reaction_units span`},
			{Selector: `meta[property="og:description"]`, Attr: "content"},
		},
		Image: []Probe{
			{Selector: `[data-testid="event-permalink-cover-photo"] img`, Attr: "src"},
			{Selector: `img.scaledImageFitWidth`, Attr: "src"},
			{Selector: `meta[property="og:image"]`, Attr: "content"},
		},
	}.withDefaults()
}

// Registry хранит профили и выбирает подходящий по маркерам в документе.
type Registry struct {
	profiles       []SiteProfile
	defaultProfile string
}

// NewRegistry создаёт реестр. Профили проверяются в переданном порядке.
func NewRegistry(defaultProfile string, profiles ...SiteProfile) *Registry {
	r := &Registry{defaultProfile: defaultProfile}
	for _, p := range profiles {
		r.profiles = append(r.profiles, p.withDefaults())
	}
	return r
}

// DefaultRegistry — встроенные профили: сначала более специфичный classic.
func DefaultRegistry() *Registry {
	return NewRegistry("comet", ClassicProfile(), CometProfile())
}

// Add регистрирует профиль. Профиль с тем же именем заменяется.
func (r *Registry) Add(p SiteProfile) {
	p = p.withDefaults()
	for i := range r.profiles {
		if r.profiles[i].Name == p.Name {
			r.profiles[i] = p
			return
		}
	}
	r.profiles = append(r.profiles, p)
}

// Get возвращает профиль по имени.
func (r *Registry) Get(name string) (SiteProfile, bool) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return SiteProfile{}, false
}

// Detect выбирает первый профиль, чей маркер найден в документе.
func (r *Registry) Detect(doc *goquery.Document) SiteProfile {
	for _, p := range r.profiles {
		for _, m := range p.Markers {
			if doc.Find(m).Length() > 0 {
				return p
			}
		}
	}
	if p, ok := r.Get(r.defaultProfile); ok {
		return p
	}
	if len(r.profiles) > 0 {
		return r.profiles[0]
	}
	return CometProfile()
}

type profilesFile struct {
	Profiles []SiteProfile `yaml:"profiles"`
}

// LoadProfiles читает дополнительные профили из YAML-файла.
func LoadProfiles(path string) ([]SiteProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	var f profilesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse profiles file: %w", err)
	}

	for i, p := range f.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile #%d has no name", i)
		}
	}

	return f.Profiles, nil
}
