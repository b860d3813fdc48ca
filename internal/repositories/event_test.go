package repositories

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapToRepo_NullableFields(t *testing.T) {
	ev := domain.Event{ID: uuid.New(), Title: "Jazz Night", Status: domain.EventStatusNew}

	row := mapToRepo(ev)

	assert.False(t, row.StartsAt.Valid)
	assert.NotNil(t, row.Promoters)
	assert.Len(t, row.Promoters, 0)
	assert.Equal(t, "NEW", row.Status)
}

func TestMapToDomain_StartsAt(t *testing.T) {
	startsAt := time.Date(2025, time.October, 31, 20, 0, 0, 0, time.UTC)
	ev := domain.Event{
		ID:        uuid.New(),
		Slug:      "halloween-bash",
		StartsAt:  &startsAt,
		Promoters: []string{"Alice", "Bob"},
		Status:    domain.EventStatusEnriched,
	}

	got := mapToDomain(mapToRepo(ev))

	if assert.NotNil(t, got.StartsAt) {
		assert.True(t, startsAt.Equal(*got.StartsAt))
	}
	assert.Equal(t, []string{"Alice", "Bob"}, got.Promoters)
	assert.Equal(t, domain.EventStatusEnriched, got.Status)
	assert.Equal(t, "halloween-bash", got.Slug)
}

func TestMapToDomain_EmptyPromoters(t *testing.T) {
	got := mapToDomain(repositories.Event{})

	assert.NotNil(t, got.Promoters)
	assert.Nil(t, got.StartsAt)
}

func TestIsFacebookURLConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "facebook url index", err: &pq.Error{Code: "23505", Constraint: facebookURLIndex}, want: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: facebookURLIndex}), want: true},
		{name: "slug conflict", err: &pq.Error{Code: "23505", Constraint: "events_slug_key"}},
		{name: "other pq error", err: &pq.Error{Code: "23502", Constraint: facebookURLIndex}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isFacebookURLConflict(tt.err))
		})
	}
}

func TestSchemaEnforcesUniqueFacebookURL(t *testing.T) {
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS "+facebookURLIndex+" ON events (facebook_url) WHERE facebook_url <> ''")
}
