package qr

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^KH-[A-Z0-9]{8}$`)

func TestNewCode_Format(t *testing.T) {
	g := NewGenerator("KH-", "example.shop", 128)

	for i := 0; i < 100; i++ {
		code, err := g.NewCode(nil)
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		assert.True(t, g.ValidCode(code))
	}
}

func TestNewCode_RetriesOnCollision(t *testing.T) {
	g := NewGenerator("", "example.shop", 0)
	calls := 0

	code, err := g.NewCode(func(string) bool {
		calls++
		return calls < 3
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Regexp(t, codePattern, code)
}

func TestNewCode_GivesUp(t *testing.T) {
	g := NewGenerator("KH-", "example.shop", 0)

	_, err := g.NewCode(func(string) bool { return true })

	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestPickupURLAndPNG(t *testing.T) {
	g := NewGenerator("KH-", "example.shop/", 128)

	assert.Equal(t, "https://example.shop/pickup/KH-ABCD1234", g.PickupURL("KH-ABCD1234"))

	png, err := g.PNG("KH-ABCD1234")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "expected PNG signature")

	_, err = g.PNG("")
	assert.Error(t, err)
}

func TestExtractCode(t *testing.T) {
	cases := map[string]string{
		"KH-ABCD1234":                               "KH-ABCD1234",
		"  kh-abcd1234 ":                            "KH-ABCD1234",
		"https://example.shop/pickup/KH-ABCD1234":   "KH-ABCD1234",
		"https://example.shop/pickup/KH-ABCD1234/":  "KH-ABCD1234",
		"https://example.shop/pickup/KH-ABCD1234?x": "KH-ABCD1234",
		"/pickup/KH-ZZZZ9999":                       "KH-ZZZZ9999",
		"":                                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractCode(in), "payload %q", in)
	}
}

func TestValidCode_Rejects(t *testing.T) {
	g := NewGenerator("KH-", "example.shop", 0)

	assert.False(t, g.ValidCode("KH-ABC"))
	assert.False(t, g.ValidCode("XX-ABCD1234"))
	assert.False(t, g.ValidCode("KH-abcd1234"))
	assert.False(t, g.ValidCode("KH-ABCD12345"))
}
