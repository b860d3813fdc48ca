package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// "Friday, October 31, 2025 at 8 PM", "October 31, 2025 at 8:30 PM", "Friday, October 31, 2025"
	dateTimeRe = regexp.MustCompile(`(?i)((?:(?:mon|tues|wednes|thurs|fri|satur|sun)day,\s+)?(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},\s+\d{4})(?:\s+at\s+(\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?))?`)

	eventPathRe = regexp.MustCompile(`^/events/(\d+)/?`)

	eventByRe = regexp.MustCompile(`(?is)\bevent by\s*(.*)`)

	// конец списка организаторов: видимость события, точка-разделитель или перевод строки
	promoterStopRe = regexp.MustCompile(`(?i)\s*(?:(?:public|private|only me|friends)\s*·|·|anyone on or off facebook|\n)`)

	promoterSplitRe = regexp.MustCompile(`(?i)\s*(?:,|\band\b|&)\s*`)
	othersRe        = regexp.MustCompile(`(?i)^\d+\s+others?$`)

	countRe = regexp.MustCompile(`(?i)^\d[\d,.]*\s*(?:k\s+)?(?:people|going|interested|responded|guests?)\b`)

	seeMoreRe   = regexp.MustCompile(`(?i)[\s…]*(?:\.{3})?\s*\bsee (?:more|less)\s*$`)
	spacesRe    = regexp.MustCompile(`[ \t]+`)
	newlinesRe  = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe = regexp.MustCompile(`\s+`)

	// фраза видимости, после которой на странице начинается описание
	anchorRe = regexp.MustCompile(`(?i)anyone on or off facebook`)
)

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u202f", " ",
	"\u2009", " ",
	"\u200b", "",
	"\r\n", "\n",
	"\r", "\n",
)

// normalizeSpaces заменяет неразрывные и узкие пробелы обычными.
func normalizeSpaces(s string) string {
	return spaceReplacer.Replace(s)
}

// collapse сводит любые пробельные последовательности к одному пробелу.
func collapse(s string) string {
	return strings.TrimSpace(spaceRunsRe.ReplaceAllString(normalizeSpaces(s), " "))
}

// SplitDateTime находит в тексте шаблон "Weekday, Month Day, Year at H:MM AM/PM"
// и возвращает дату и время как сырые подстроки.
func SplitDateTime(text string) (date string, clock string, ok bool) {
	m := dateTimeRe.FindStringSubmatch(collapse(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// IsEventPage проверяет, что URL указывает на страницу конкретного события.
func IsEventPage(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if u.Host != "" && !isFacebookHost(u.Hostname()) {
		return false
	}
	return eventPathRe.MatchString(u.Path)
}

// CanonicalEventURL убирает query и фрагмент у ссылки на событие.
func CanonicalEventURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func isFacebookHost(host string) bool {
	host = strings.ToLower(host)
	return host == "facebook.com" || strings.HasSuffix(host, ".facebook.com") ||
		host == "fb.com" || strings.HasSuffix(host, ".fb.com") ||
		host == "fb.me" || strings.HasSuffix(host, ".messenger.com")
}

// CleanTicketURL разворачивает редирект l.facebook.com/l.php?u=... и убирает
// query-параметры и фрагмент. Для относительных и невалидных ссылок возвращает "".
func CleanTicketURL(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return ""
	}

	if isFacebookHost(u.Hostname()) && strings.HasPrefix(u.Path, "/l.php") {
		target := u.Query().Get("u")
		if target == "" {
			return ""
		}
		u, err = url.Parse(target)
		if err != nil || u.Host == "" {
			return ""
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	return u.String()
}

// ParsePromoters разбирает фрагмент "Event by A, B and C" в список имён.
func ParsePromoters(text string) []string {
	result := []string{}

	m := eventByRe.FindStringSubmatch(normalizeSpaces(text))
	if m == nil {
		return result
	}

	rest := strings.TrimLeft(m[1], " \t")
	if loc := promoterStopRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}

	seen := make(map[string]bool)
	for _, name := range promoterSplitRe.Split(rest, -1) {
		name = strings.Trim(collapse(name), ".")
		if name == "" || othersRe.MatchString(name) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, name)
	}

	return result
}

// CleanDescription убирает хвост "See more", лишние пробелы и пустые строки.
func CleanDescription(text string) string {
	text = normalizeSpaces(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
	}
	text = strings.TrimSpace(strings.Join(lines, "\n"))

	for {
		cleaned := strings.TrimSpace(seeMoreRe.ReplaceAllString(text, ""))
		if cleaned == text {
			break
		}
		text = cleaned
	}

	return newlinesRe.ReplaceAllString(text, "\n\n")
}

// descriptionAfterAnchor возвращает текст после фразы видимости события.
func descriptionAfterAnchor(text string) (string, bool) {
	loc := anchorRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[1]:], true
}

// cutAtStopLine обрезает текст на первой строке, совпадающей с маркером конца блока.
func cutAtStopLine(text string, stops []string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		l := strings.ToLower(strings.TrimSpace(line))
		for _, s := range stops {
			if l == s {
				return strings.Join(lines[:i], "\n")
			}
		}
	}
	return text
}
