package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestReader(t *testing.T) {
	t.Run("identical content produces identical digests", func(t *testing.T) {
		d1, n1, err := DigestReader(strings.NewReader("hello world"))
		require.NoError(t, err)
		d2, n2, err := DigestReader(strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
		assert.Equal(t, int64(11), n1)
		assert.Equal(t, n1, n2)
		assert.Len(t, d1, 64)
	})

	t.Run("different content produces different digests", func(t *testing.T) {
		d1, _, err := DigestReader(strings.NewReader("a"))
		require.NoError(t, err)
		d2, _, err := DigestReader(strings.NewReader("b"))
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("short digest", func(t *testing.T) {
		assert.Equal(t, "abc", ShortDigest("abc"))
		assert.Equal(t, "0123456789ab", ShortDigest("0123456789abcdef"))
	})
}

func TestUploadPolicyAllows(t *testing.T) {
	p := UploadPolicy{AllowedMIMETypes: []string{"application/pdf", "text/plain"}}
	assert.True(t, p.Allows("application/pdf"))
	assert.False(t, p.Allows("application/zip"))
	assert.False(t, p.Allows(""))
}

func TestQuestionBodyPrefersMarkdown(t *testing.T) {
	q := Question{Content: "plain", Markdown: "**md**"}
	assert.Equal(t, "**md**", q.Body())
	q.Markdown = ""
	assert.Equal(t, "plain", q.Body())
}
