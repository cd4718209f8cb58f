package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortPublishedDesc, false},
		{"publishedAt", SortPublishedDesc, false},
		{"publishedAt_asc", SortPublishedAsc, false},
		{"relevancy", SortRelevancy, false},
		{"popularity", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeToDate_ExtendsBareDate(t *testing.T) {
	got, err := NormalizeToDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T23:59:59Z", got)

	// lexical comparison against stored timestamps
	assert.True(t, "2024-01-01T23:59:59Z" <= got)
	assert.False(t, "2024-01-02T00:00:00Z" <= got)
}

func TestNormalizeDates_RFC3339(t *testing.T) {
	got, err := NormalizeFromDate("2024-03-05T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T08:00:00Z", got)

	got, err = NormalizeToDate("2024-03-05T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T10:00:00Z", got)
}

func TestNormalizeDates_Invalid(t *testing.T) {
	_, err := NormalizeFromDate("yesterday")
	assert.Error(t, err)

	_, err = NormalizeToDate("01/02/2024")
	assert.Error(t, err)

	got, err := NormalizeFromDate("")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 23, 59, 59, 999, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-01-01T22:59:59Z", FormatTimestamp(ts))
}

func TestIsClassifierCategory(t *testing.T) {
	assert.True(t, IsClassifierCategory("sports"))
	assert.True(t, IsClassifierCategory(" Politics "))
	assert.True(t, IsClassifierCategory(DefaultCategory))
	assert.False(t, IsClassifierCategory(TopStories))
	assert.False(t, IsClassifierCategory(""))
}

func TestCategorySet(t *testing.T) {
	got := CategorySet([]string{"world", "Sports"}, []string{"sports", TopStories, ""})
	assert.Equal(t, []string{"sports", TopStories, "world"}, got)
}

func TestUniqueByURL(t *testing.T) {
	articles := []Article{
		{URL: "https://example.com/a", Category: "world"},
		{URL: "https://example.com/b", Category: "business"},
		{URL: "https://example.com/a", Category: TopStories},
	}

	got := UniqueByURL(articles)

	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.Equal(t, TopStories, got[0].Category, "last occurrence wins")
	assert.Equal(t, "https://example.com/b", got[1].URL)
}

func TestArticleQuery_CacheKey(t *testing.T) {
	a := &ArticleQuery{Category: "world", Sort: SortRelevancy, Limit: 10}
	b := &ArticleQuery{Category: "world", Sort: SortRelevancy, Limit: 20}
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, a.CacheKey(), (&ArticleQuery{Category: "world", Sort: SortRelevancy, Limit: 10}).CacheKey())
}
