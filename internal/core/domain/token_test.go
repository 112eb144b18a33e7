package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveTokenState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	buffer := 5 * time.Minute

	tests := []struct {
		name   string
		record *TokenRecord
		want   TokenState
	}{
		{
			name:   "nil record",
			record: nil,
			want:   TokenNotConnected,
		},
		{
			name:   "empty access token",
			record: &TokenRecord{UserID: "u1"},
			want:   TokenNotConnected,
		},
		{
			name:   "zero expiry is valid",
			record: &TokenRecord{AccessToken: "tok"},
			want:   TokenValid,
		},
		{
			name:   "well before buffer",
			record: &TokenRecord{AccessToken: "tok", Expiry: now.Add(time.Hour)},
			want:   TokenValid,
		},
		{
			name:   "inside buffer",
			record: &TokenRecord{AccessToken: "tok", Expiry: now.Add(2 * time.Minute)},
			want:   TokenExpiringSoon,
		},
		{
			name:   "exactly at buffer boundary",
			record: &TokenRecord{AccessToken: "tok", Expiry: now.Add(buffer)},
			want:   TokenExpiringSoon,
		},
		{
			name:   "expired",
			record: &TokenRecord{AccessToken: "tok", Expiry: now.Add(-time.Minute)},
			want:   TokenStale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTokenState(tt.record, now, buffer))
		})
	}
}

func TestTokenRecord_HasRefreshToken(t *testing.T) {
	rec := &TokenRecord{AccessToken: "tok"}
	assert.False(t, rec.HasRefreshToken())

	rec.RefreshToken = "refresh"
	assert.True(t, rec.HasRefreshToken())
}

func TestCategory_IsJobRelated(t *testing.T) {
	assert.True(t, CategoryApplied.IsJobRelated())
	assert.True(t, CategoryInterview.IsJobRelated())
	assert.True(t, CategoryRejection.IsJobRelated())
	assert.False(t, CategoryNotJob.IsJobRelated())
	assert.False(t, Category("unknown").IsJobRelated())
}
