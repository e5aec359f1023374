package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"app.js", "js"},
		{"lib/app.MJS", "js"},
		{"site.css", "css"},
		{"logo.png", ""},
		{"README", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.name))
		})
	}
}

func TestMinify_Script(t *testing.T) {
	src := []byte("function greet(name) {\n  var message = 'hello ' + name;\n  return message;\n}\n")

	out, err := Minify("app.js", src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.NotContains(t, string(out), "\n  ")
}

func TestMinify_Style(t *testing.T) {
	src := []byte("body {\n  color: #ff0000;\n  margin: 0px;\n}\n")

	out, err := Minify("site.css", src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.Contains(t, string(out), "body{")
}

func TestMinify_SyntaxError(t *testing.T) {
	_, err := Minify("broken.js", []byte("function ("))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.js")
}

func TestMinify_Unsupported(t *testing.T) {
	_, err := Minify("logo.png", []byte{0x89})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/javascript; charset=utf-8", ContentType("js"))
	assert.Equal(t, "text/css; charset=utf-8", ContentType("css"))
	assert.Equal(t, "application/octet-stream", ContentType(""))
}
