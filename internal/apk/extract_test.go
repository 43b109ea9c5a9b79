package apk

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekaihub/apphashd/internal/appver"
)

// fakeDeserializer returns canned objects keyed by stream content
type fakeDeserializer struct {
	objects map[string][]Object
	err     error
	parsed  []string
}

func (f *fakeDeserializer) Parse(_ context.Context, r io.Reader) ([]Object, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.parsed = append(f.parsed, string(bs))
	if f.err != nil {
		return nil, f.err
	}
	return f.objects[string(bs)], nil
}

func configObject(name, hash string, major, minor, build int) Object {
	return Object{
		Type: TypeMonoBehaviour,
		Name: name,
		Fields: map[string]interface{}{
			"clientMajorVersion":     float64(major),
			"clientMinorVersion":     float64(minor),
			"clientBuildVersion":     float64(build),
			"clientDataMajorVersion": float64(major),
			"clientDataMinorVersion": float64(minor),
			"clientDataBuildVersion": float64(0),
			"clientDataRevision":     float64(12),
			"clientAppHash":          hash,
		},
	}
}

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeInstaller(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "installer.apk")
	require.NoError(t, os.WriteFile(path, buildZip(t, entries), 0640))
	return path
}

func TestExtractFromOuterPackage(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/bin/Data/6350e2ec327334c8a9b7f494f344a761": []byte("android-settings"),
		"classes.dex": []byte("irrelevant"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"android-settings": {configObject(configRecordName, "abc123", 3, 1, 0)},
	}}

	result, err := NewExtractor(fake).Extract(context.Background(), path, "3.1.0")
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", result.Version)
	assert.Equal(t, "abc123", result.AppHash)
	assert.Equal(t, "3.1.0", result.DataVersion)
}

func TestExtractFromNestedPackage(t *testing.T) {
	nested := buildZip(t, map[string][]byte{
		"assets/data.unity3d": []byte("bytedance-settings"),
	})
	path := writeInstaller(t, map[string][]byte{
		"com.hermes.mk.apk": nested,
		"manifest.json":     []byte("{}"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"bytedance-settings": {configObject(configRecordName, "cn-hash", 3, 6, 5)},
	}}

	result, err := NewExtractor(fake).Extract(context.Background(), path, "3.6.5")
	require.NoError(t, err)
	assert.Equal(t, "cn-hash", result.AppHash)
}

// entries outside the fixed allow-list must never reach the deserializer
func TestExtractSkipsNonCandidateEntries(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/other.unity3d": []byte("not a candidate"),
		"assets/data.unity3d":  []byte("settings"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"settings": {configObject(configRecordName, "hash", 1, 0, 0)},
	}}

	_, err := NewExtractor(fake).Extract(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"settings"}, fake.parsed)
}

func TestExtractNoConfigRecord(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/data.unity3d": []byte("settings"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"settings": {
			{Type: TypeMonoBehaviour, Name: "production_ios", Fields: map[string]interface{}{}},
			{Type: "TextAsset", Name: configRecordName, Fields: map[string]interface{}{}},
		},
	}}

	_, err := NewExtractor(fake).Extract(context.Background(), path, "")
	assert.ErrorIs(t, err, ErrNoConfigRecord)
}

func TestExtractVersionMismatch(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/data.unity3d": []byte("settings"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"settings": {configObject(configRecordName, "stale-hash", 4, 9, 9)},
	}}

	_, err := NewExtractor(fake).Extract(context.Background(), path, "5.0.0")
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

// an exact-or-newer extracted version passes the sanity check
func TestExtractNewerThanExpected(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/data.unity3d": []byte("settings"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"settings": {configObject(configRecordName, "hash", 5, 0, 1)},
	}}

	result, err := NewExtractor(fake).Extract(context.Background(), path, "5.0.0")
	require.NoError(t, err)
	assert.Equal(t, "5.0.1", result.Version)
}

func TestExtractMalformedExpectedVersion(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/data.unity3d": []byte("settings"),
	})

	fake := &fakeDeserializer{objects: map[string][]Object{
		"settings": {configObject(configRecordName, "hash", 5, 0, 0)},
	}}

	_, err := NewExtractor(fake).Extract(context.Background(), path, "latest")
	assert.ErrorIs(t, err, appver.ErrMalformed)
}

func TestExtractUnreadableContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installer.apk")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0640))

	fake := &fakeDeserializer{}
	_, err := NewExtractor(fake).Extract(context.Background(), path, "")
	assert.Error(t, err)
}

func TestExtractDeserializerFailure(t *testing.T) {
	path := writeInstaller(t, map[string][]byte{
		"assets/data.unity3d": []byte("settings"),
	})

	fake := &fakeDeserializer{err: errors.New("corrupt stream")}
	_, err := NewExtractor(fake).Extract(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt stream")
}

func TestConfigFromFieldsMissingHash(t *testing.T) {
	obj := configObject(configRecordName, "hash", 1, 0, 0)
	delete(obj.Fields, "clientAppHash")

	_, err := configFromFields(obj.Fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clientAppHash")
}

func TestConfigFromFieldsNoDataRevision(t *testing.T) {
	obj := configObject(configRecordName, "hash", 1, 2, 3)
	delete(obj.Fields, "clientDataRevision")

	config, err := configFromFields(obj.Fields)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", config.AppVersion())
	assert.Empty(t, config.AssetBundleVersion())
}
