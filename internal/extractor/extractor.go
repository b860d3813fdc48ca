package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"eventsImporter/internal/models/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTitleLen       = 3
	maxTitleLen       = 300
	minVenueLen       = 2
	maxVenueLen       = 100
	minDescriptionLen = 10
	maxScanTextLen    = 200
	maxVenueCandidate = 20
	minImageSide      = 100
)

// descriptionStops — строки, с которых на странице начинаются блоки после описания.
var descriptionStops = []string{
	"see more", "see less", "guests", "meet your hosts", "meet your host", "hosts",
	"suggested events", "discussion", "related events", "location", "about",
}

// ImageCandidate — найденная картинка с источником и площадью.
type ImageCandidate struct {
	URL    string
	Source string
	Area   int
}

// Context — состояние одного вызова Extract. Заменяет глобальные переменные
// страницы: хранит принятые значения и кандидатов-картинки.
type Context struct {
	PageURL  string
	Images   []ImageCandidate
	accepted map[string]bool
}

func newContext(pageURL string) *Context {
	return &Context{PageURL: pageURL, accepted: make(map[string]bool)}
}

func (c *Context) seen(text string) bool {
	return c.accepted[strings.ToLower(text)]
}

func (c *Context) accept(text string) {
	if text != "" {
		c.accepted[strings.ToLower(text)] = true
	}
}

// Extractor — эвристический разборщик страницы события по таблице селекторов.
type Extractor struct {
	log     *slog.Logger
	profile SiteProfile
}

// New создаёт экстрактор для профиля.
func New(log *slog.Logger, profile SiteProfile) *Extractor {
	return &Extractor{
		log:     log,
		profile: profile.withDefaults(),
	}
}

// Profile возвращает профиль экстрактора.
func (e *Extractor) Profile() SiteProfile {
	return e.profile
}

// Extract заполняет ExtractedEvent по документу. Ошибки отдельных полей
// логируются, поле остаётся пустым.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (domain.ExtractedEvent, *Context) {
	op := "Extractor.Extract()"
	log := e.log.With(
		slog.String("op", op),
		slog.String("profile", e.profile.Name),
	)

	ev := domain.NewExtractedEvent()
	ctx := newContext(pageURL)

	steps := []struct {
		name string
		fn   func(*goquery.Document, *Context, *domain.ExtractedEvent)
	}{
		{"title", e.extractTitle},
		{"dateTime", e.extractDateTime},
		{"venue", e.extractVenue},
		{"description", e.extractDescription},
		{"image", e.extractImage},
		{"ticketUrl", e.extractTicketURL},
		{"promoters", e.extractPromoters},
	}

	for _, s := range steps {
		if err := runStep(doc, ctx, &ev, s.fn); err != nil {
			log.Warn("field extraction failed", slog.String("field", s.name), slog.String("error", err.Error()))
		}
	}

	if ev.Promoters == nil {
		ev.Promoters = []string{}
	}

	log.Debug("extraction finished",
		slog.String("title", ev.Title),
		slog.String("date", ev.Date),
		slog.Bool("hasImage", ev.Image != ""),
	)

	return ev, ctx
}

func runStep(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent, fn func(*goquery.Document, *Context, *domain.ExtractedEvent)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn(doc, c, ev)
	return nil
}

// acceptable применяет фильтры исключения: длина, служебный текст, повтор поля.
func (e *Extractor) acceptable(c *Context, text string, minLen, maxLen int) bool {
	n := len([]rune(text))
	if n < minLen || n > maxLen {
		return false
	}
	if e.isChrome(text) {
		return false
	}
	return !c.seen(text)
}

// isChrome проверяет, что текст — элемент интерфейса, а не данные события.
func (e *Extractor) isChrome(text string) bool {
	l := strings.ToLower(strings.TrimSpace(text))
	for _, d := range e.profile.Denylist {
		if l == d {
			return true
		}
	}
	return anchorRe.MatchString(l) || strings.HasPrefix(l, "event by") || countRe.MatchString(l)
}

func (e *Extractor) extractTitle(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	for _, p := range e.profile.Title {
		for _, v := range probeValues(doc, p) {
			if e.acceptable(c, v, minTitleLen, maxTitleLen) {
				ev.Title = v
				c.accept(v)
				return
			}
		}
	}

	// <title> вида "Event name | Facebook"
	t := collapse(doc.Find("title").First().Text())
	t = strings.TrimSpace(strings.TrimSuffix(t, "| Facebook"))
	if e.acceptable(c, t, minTitleLen, maxTitleLen) {
		ev.Title = t
		c.accept(t)
	}
}

func (e *Extractor) extractDateTime(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	for _, p := range e.profile.Date {
		for _, v := range probeValues(doc, p) {
			if d, t, ok := SplitDateTime(v); ok {
				ev.Date, ev.Time = d, t
				return
			}
		}
	}

	// ограниченный проход по первым элементам страницы
	doc.Find(e.profile.ScanSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= e.profile.ScanLimit {
			return false
		}
		text := s.Text()
		if len(text) > maxScanTextLen {
			return true
		}
		if d, t, ok := SplitDateTime(text); ok {
			ev.Date, ev.Time = d, t
			return false
		}
		return true
	})
}

func (e *Extractor) extractVenue(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	var candidates []string

	for _, p := range e.profile.Venue {
		for _, v := range probeValues(doc, p) {
			if !e.acceptable(c, v, minVenueLen, maxVenueLen) {
				continue
			}
			if _, _, isDate := SplitDateTime(v); isDate {
				continue
			}
			if strings.HasPrefix(v, "http") {
				continue
			}
			candidates = append(candidates, v)
			if len(candidates) >= maxVenueCandidate {
				break
			}
		}
	}

	if len(candidates) == 0 {
		return
	}

	venue := candidates[0]
	for _, cand := range candidates {
		if e.hasVenueKeyword(cand) {
			venue = cand
			break
		}
	}

	ev.Venue = venue
	c.accept(venue)
}

func (e *Extractor) hasVenueKeyword(text string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:;'\"()")
		for _, k := range e.profile.VenueKeywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func (e *Extractor) extractDescription(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	root := doc.Find(`div[role="main"]`).First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	if after, ok := descriptionAfterAnchor(blockText(root)); ok {
		desc := CleanDescription(cutAtStopLine(after, descriptionStops))
		if len([]rune(desc)) >= minDescriptionLen {
			ev.Description = desc
			return
		}
	}

	for _, p := range e.profile.Description {
		var values []string
		if p.Attr == "" {
			doc.Find(p.Selector).Each(func(_ int, s *goquery.Selection) {
				if v := blockText(s); v != "" {
					values = append(values, v)
				}
			})
		} else {
			values = probeValues(doc, p)
		}

		for _, v := range values {
			desc := CleanDescription(v)
			if len([]rune(desc)) < minDescriptionLen || e.isChrome(desc) || c.seen(desc) {
				continue
			}
			ev.Description = desc
			return
		}
	}
}

func (e *Extractor) extractImage(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	for _, p := range e.profile.Image {
		for _, v := range probeValues(doc, p) {
			if isImageURL(v) {
				c.Images = append(c.Images, ImageCandidate{URL: v, Source: p.Selector})
			}
		}
	}

	if len(c.Images) > 0 {
		ev.Image = c.Images[0].URL
		return
	}

	// самая большая картинка с CDN Facebook
	best := -1
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !isFacebookCDN(src) {
			return
		}
		w := intAttr(s, "width")
		h := intAttr(s, "height")
		if (w > 0 && w < minImageSide) || (h > 0 && h < minImageSide) {
			return
		}
		c.Images = append(c.Images, ImageCandidate{URL: src, Source: "cdn", Area: w * h})
		if best < 0 || w*h > c.Images[best].Area {
			best = len(c.Images) - 1
		}
	})

	if best >= 0 {
		ev.Image = c.Images[best].URL
	}
}

func (e *Extractor) extractTicketURL(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	doc.Find(e.profile.TicketLinks).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		cleaned := CleanTicketURL(href)
		if cleaned == "" {
			return true
		}
		u, err := url.Parse(cleaned)
		if err != nil || isFacebookHost(u.Hostname()) {
			return true
		}

		if e.isTicketHost(u.Hostname()) || e.hasTicketKeyword(u.Path+" "+collapse(s.Text())) {
			ev.TicketURL = cleaned
			return false
		}
		return true
	})
}

// isTicketHost сверяет хост со списком билетных сервисов по меткам домена.
func (e *Extractor) isTicketHost(host string) bool {
	host = strings.ToLower(host)
	labels := strings.Split(host, ".")
	for _, k := range e.profile.TicketHosts {
		k = strings.ToLower(k)
		if strings.Contains(k, ".") {
			if host == k || strings.HasSuffix(host, "."+k) {
				return true
			}
			continue
		}
		if slices.Contains(labels, k) {
			return true
		}
	}
	return false
}

func (e *Extractor) hasTicketKeyword(text string) bool {
	text = strings.ToLower(text)
	for _, k := range e.profile.TicketKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func (e *Extractor) extractPromoters(doc *goquery.Document, c *Context, ev *domain.ExtractedEvent) {
	text := blockText(doc.Find("body"))
	if m := eventByRe.FindStringIndex(text); m != nil {
		ev.Promoters = ParsePromoters(text[m[0]:])
	}
}

func isImageURL(v string) bool {
	return strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")
}

func isFacebookCDN(src string) bool {
	if !isImageURL(src) {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if strings.HasPrefix(host, "static.") || strings.Contains(u.Path, "/rsrc.php") || strings.Contains(u.Path, "emoji") {
		return false
	}
	return strings.Contains(host, "scontent") || strings.Contains(host, "fbcdn")
}

func intAttr(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}
