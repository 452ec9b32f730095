package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "Tom &amp; Jerry", SanitizeTitle("<script>x</script>Tom & <i>Jerry</i>"))
	assert.Equal(t, "a &lt; b", SanitizeTitle("a &lt; b"))
	assert.Equal(t, "plain", SanitizeTitle("plain"))
}

func TestSanitizeContent(t *testing.T) {
	assert.Equal(t, "<p>hi</p>", SanitizeContent(`<p onclick="x()">hi</p><script>bad()</script>`))
	assert.Contains(t, SanitizeContent(`<b>bold</b>`), "<b>bold</b>")
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UniqueStrings([]string{"a", "b", "a"}))
}
