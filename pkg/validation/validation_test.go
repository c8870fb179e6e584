package validation

import (
	"strings"
	"testing"

	pkgerrors "filegraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	valid := []string{"Person", "File", "_internal", "Label_2", "a"}
	for _, name := range valid {
		assert.NoError(t, Label(name), name)
	}

	invalid := []string{
		"",
		"2Person",
		"Person Label",
		"Person-Label",
		"Person;DROP",
		"Person`",
		strings.Repeat("a", MaxIdentifierLength+1),
	}
	for _, name := range invalid {
		err := Label(name)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsValidation(err), name)
	}
}

func TestRelationType(t *testing.T) {
	assert.NoError(t, RelationType("UPLOADED_WITH"))
	assert.NoError(t, RelationType("DOWNLOADED"))
	assert.Error(t, RelationType("UPLOADED WITH"))
	assert.Error(t, RelationType("r:MATCH"))
}

func TestPropertyKey(t *testing.T) {
	assert.NoError(t, PropertyKey("owner_key"))
	assert.NoError(t, PropertyKey("_ts"))
	assert.Error(t, PropertyKey("owner.key"))
	assert.Error(t, PropertyKey("9lives"))
}

func TestPropertyValue(t *testing.T) {
	valid := []interface{}{nil, true, false, 42, int32(7), int64(1 << 40), 3.14, float32(1.5), "hello"}
	for _, v := range valid {
		assert.NoError(t, PropertyValue(v))
	}

	assert.Error(t, PropertyValue([]string{"a"}))
	assert.Error(t, PropertyValue(map[string]string{"a": "b"}))
	assert.Error(t, PropertyValue(struct{}{}))
	assert.Error(t, PropertyValue(strings.Repeat("x", MaxStringValueLength+1)))
	assert.Error(t, PropertyValue(string([]byte{0xff, 0xfe})))
}

func TestProperties(t *testing.T) {
	assert.NoError(t, Properties(map[string]interface{}{
		"name":  "alice",
		"size":  1024,
		"ratio": 0.5,
	}))

	assert.Error(t, Properties(map[string]interface{}{"bad key": "v"}))
	assert.Error(t, Properties(map[string]interface{}{"key": []int{1}}))
	assert.NoError(t, Properties(nil))
}

func TestFilename(t *testing.T) {
	valid := []string{"notes.txt", "report-2024.pdf", "a.tar.gz", "UPPER.PNG", "no extension"}
	for _, name := range valid {
		assert.NoError(t, Filename(name), name)
	}

	invalid := []string{
		"",
		"   ",
		"../etc/passwd",
		"..",
		"dir/file.txt",
		"dir\\file.txt",
		"/etc/passwd",
		".hidden",
		"nul\x00byte.txt",
		"weird..name.txt",
		strings.Repeat("a", MaxFilenameLength+1),
	}
	for _, name := range invalid {
		err := Filename(name)
		require.Error(t, err, "%q", name)
		assert.True(t, pkgerrors.IsValidation(err), "%q", name)
	}
}

func TestContentType(t *testing.T) {
	got, err := ContentType("")
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, got)

	got, err = ContentType("text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got)

	got, err = ContentType("IMAGE/PNG")
	require.NoError(t, err)
	assert.Equal(t, "image/png", got)

	_, err = ContentType("application/x-msdownload")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}
