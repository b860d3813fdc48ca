package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLen — максимальная длина слага.
	MaxLen = 80
	// Fallback используется, если из заголовка не осталось ни одного символа.
	Fallback = "event"
)

// ErrExhausted возвращается, когда все варианты с суффиксами заняты.
var ErrExhausted = errors.New("slug: no free variant")

// Make строит слаг: диакритика снимается, всё кроме букв и цифр становится дефисом.
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, title)
	if err != nil {
		s = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	res := strings.Trim(b.String(), "-")
	if len(res) > MaxLen {
		res = res[:MaxLen]
		if i := strings.LastIndexByte(res, '-'); i > 0 {
			res = res[:i]
		}
		res = strings.Trim(res, "-")
	}

	if res == "" {
		return Fallback
	}
	return res
}

// Unique перебирает base, base-1, base-2... пока exists не вернёт false.
func Unique(ctx context.Context, base string, exists func(ctx context.Context, slug string) (bool, error), maxAttempts int) (string, error) {
	op := "slug.Unique()"

	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		candidate := base
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s: %q: %w", op, base, ErrExhausted)
}
