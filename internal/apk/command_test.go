//go:build !windows

package apk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandDeserializerParse(t *testing.T) {
	script := `cat "$1" >/dev/null; printf '[{"type":"MonoBehaviour","name":"production_android","fields":{"clientAppHash":"abc"}}]'`
	d, err := NewCommandDeserializer([]string{"sh", "-c", script, "sh"})
	require.NoError(t, err)

	objects, err := d.Parse(context.Background(), strings.NewReader("asset bytes"))
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, TypeMonoBehaviour, objects[0].Type)
	assert.Equal(t, "production_android", objects[0].Name)
	assert.Equal(t, "abc", objects[0].Fields["clientAppHash"])
}

func TestCommandDeserializerFailure(t *testing.T) {
	d, err := NewCommandDeserializer([]string{"sh", "-c", `echo "bad asset" >&2; exit 3`, "sh"})
	require.NoError(t, err)

	_, err = d.Parse(context.Background(), strings.NewReader("asset bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad asset")
}

func TestCommandDeserializerBadOutput(t *testing.T) {
	d, err := NewCommandDeserializer([]string{"sh", "-c", `printf 'not json'`, "sh"})
	require.NoError(t, err)

	_, err = d.Parse(context.Background(), strings.NewReader("asset bytes"))
	assert.Error(t, err)
}

func TestCommandDeserializerEmptyCommand(t *testing.T) {
	_, err := NewCommandDeserializer(nil)
	assert.Error(t, err)
}
