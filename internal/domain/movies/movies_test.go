package movies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
		wantOK  bool
	}{
		{name: "empty", ratings: nil, wantOK: false},
		{name: "single", ratings: []int{4}, want: 4.0, wantOK: true},
		{name: "rounds to one decimal", ratings: []int{5, 4, 4}, want: 4.3, wantOK: true},
		{name: "rounds down", ratings: []int{1, 2, 2}, want: 1.7, wantOK: true},
		{name: "exact half", ratings: []int{3, 4}, want: 3.5, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]Review, 0, len(tt.ratings))
			for _, r := range tt.ratings {
				reviews = append(reviews, Review{Rating: r})
			}
			got, ok := AverageRating(reviews)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.0", FormatRating(4))
	assert.Equal(t, "3.5", FormatRating(3.5))
}

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/abc123", EmbedURL("https://youtu.be/abc123"))
	assert.Equal(t, "https://www.youtube.com/embed/abc123", EmbedURL("https://www.youtube.com/watch?v=abc123&t=5s"))
	assert.Equal(t, "https://www.youtube.com/embed/abc123", EmbedURL("https://youtube.com/watch?v=abc123"))
	assert.Equal(t, "https://vimeo.com/12345", EmbedURL("https://vimeo.com/12345"))
	assert.Equal(t, "", EmbedURL(""))
}

func TestReviewDisplayName(t *testing.T) {
	assert.Equal(t, "Ann", Review{Username: "Ann", UserID: 3}.DisplayName())
	assert.Equal(t, "User 3", Review{UserID: 3}.DisplayName())
}

func TestReviewStars(t *testing.T) {
	assert.Equal(t, "★★★☆☆", Review{Rating: 3}.Stars())
	assert.Equal(t, "★★★★★", Review{Rating: 9}.Stars())
}
