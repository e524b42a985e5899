package icon

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	data := encodePNG(t, Size, Size)

	ic, err := Parse(data)
	require.NoError(t, err)

	uri := ic.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	w, h := ic.Dimensions()
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)
}

func TestParse_NotPNG(t *testing.T) {
	_, err := Parse([]byte("GIF89a"))
	assert.True(t, errors.Is(err, ErrNotPNG))
}

func TestLoad_Missing(t *testing.T) {
	assert.Nil(t, Load(filepath.Join(t.TempDir(), "server-icon.png")))
	assert.Nil(t, Load(""))
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-icon.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	assert.Nil(t, Load(path))
}

func TestLoad_WrongSizeStillUsed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-icon.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 128, 128), 0o600))

	ic := Load(path)
	require.NotNil(t, ic)
	w, _ := ic.Dimensions()
	assert.Equal(t, 128, w)
}

func TestServerIcon_Nil(t *testing.T) {
	var ic *ServerIcon
	assert.Empty(t, ic.DataURI())
	w, h := ic.Dimensions()
	assert.Zero(t, w)
	assert.Zero(t, h)
}
