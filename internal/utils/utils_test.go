package utils

import (
	"context"
	"testing"
	"time"

	"agora/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**bold** <script>alert(1)</script>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Empty(t, RenderMarkdown(""))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "hello world", Excerpt("  <b>hello</b>\n\n world ", 50))
	assert.Equal(t, "你好…", Excerpt("你好世界", 2))
}

func TestHotRankDecaysAndIgnoresNegativeWeight(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fresh := HotRank(DefaultRank, 10, 0, now, now)
	old := HotRank(DefaultRank, 10, 0, now.Add(-48*time.Hour), now)
	assert.Greater(t, fresh, old)
	assert.Greater(t, HotRank(DefaultRank, 20, 0, now, now), fresh)
	assert.Zero(t, HotRank(DefaultRank, 1, 5, now, now))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-1", "abc", "99999999999"} {
		_, err := ParseID(bad)
		assert.True(t, apperr.IsCode(err, apperr.CodeValidation), bad)
	}
}

func TestJWTVerifier(t *testing.T) {
	ctx := context.Background()
	v := NewJWTVerifier("s3cret", "agora")

	tok, err := SignToken("s3cret", "agora", 7, time.Minute)
	require.NoError(t, err)
	id, err := v.Verify(ctx, tok)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	wrongSecret, err := SignToken("other", "agora", 7, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, wrongSecret)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))

	wrongIssuer, err := SignToken("s3cret", "elsewhere", 7, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, wrongIssuer)
	assert.Error(t, err)

	expired, err := SignToken("s3cret", "agora", 7, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	assert.Error(t, err)

	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 9, "iss": "agora",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	id, err = v.Verify(ctx, numeric)
	require.NoError(t, err)
	assert.EqualValues(t, 9, id)
}

func TestKarmaLevel(t *testing.T) {
	assert.Equal(t, "newcomer", KarmaLevel(0))
	assert.Equal(t, "member", KarmaLevel(10))
	assert.Equal(t, "veteran", KarmaLevel(5000))
	assert.Equal(t, "muted", KarmaLevel(-3))
}
