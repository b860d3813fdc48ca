package slug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "diacritics and punctuation", title: "Café Tacvba — Live!", want: "cafe-tacvba-live"},
		{name: "plain", title: "Halloween Bash 2025", want: "halloween-bash-2025"},
		{name: "leading and trailing junk", title: "  --Jazz & Blues--  ", want: "jazz-blues"},
		{name: "only symbols", title: "!!! ???", want: Fallback},
		{name: "empty", title: "", want: Fallback},
		{name: "non latin", title: "Концерт", want: Fallback},
		{name: "german umlauts", title: "Über Köln", want: "uber-koln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}

func TestMake_Length(t *testing.T) {
	title := strings.Repeat("word ", 40)

	got := Make(title)

	assert.LessOrEqual(t, len(got), MaxLen)
	assert.False(t, strings.HasSuffix(got, "-"))
	assert.True(t, strings.HasPrefix(got, "word-word"))
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"jazz-night": true, "jazz-night-1": true}
	exists := func(_ context.Context, s string) (bool, error) {
		return taken[s], nil
	}

	got, err := Unique(context.Background(), "jazz-night", exists, 5)
	require.NoError(t, err)
	assert.Equal(t, "jazz-night-2", got)

	got, err = Unique(context.Background(), "free", exists, 5)
	require.NoError(t, err)
	assert.Equal(t, "free", got)
}

func TestUnique_Exhausted(t *testing.T) {
	exists := func(context.Context, string) (bool, error) { return true, nil }

	_, err := Unique(context.Background(), "busy", exists, 3)

	assert.ErrorIs(t, err, ErrExhausted)
}

func TestUnique_LookupError(t *testing.T) {
	boom := errors.New("db down")
	exists := func(context.Context, string) (bool, error) { return false, boom }

	_, err := Unique(context.Background(), "x", exists, 3)

	assert.ErrorIs(t, err, boom)
}
