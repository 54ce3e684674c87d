package s3

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impact-engine/impact-engine/pkg/errors"
)

func stagingBackend(t *testing.T, bucket, prefix string) *Backend {
	t.Helper()
	backend, err := New(bucket, prefix, Config{StagingDir: t.TempDir()}, nil)
	require.NoError(t, err)
	return backend
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New("", "", Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidArgument))
}

func TestStoreAndLoadStaging(t *testing.T) {
	backend := stagingBackend(t, "test-bucket", "impact-engine")

	document := map[string]interface{}{"s3_test": true, "value": 42.0}
	location, err := backend.Store("test.json", document, "")
	require.NoError(t, err)

	// Locations use the s3:// form regardless of staging.
	assert.True(t, strings.HasPrefix(location, "s3://test-bucket/"), "location %q", location)
	assert.Contains(t, location, "impact-engine")
	assert.Contains(t, location, "test.json")

	loaded, err := backend.Load("test.json", "")
	require.NoError(t, err)
	assert.Equal(t, document, loaded)
}

func TestTenantIsolation(t *testing.T) {
	backend := stagingBackend(t, "test-bucket", "prefix")

	data1 := map[string]interface{}{"tenant": "company_1"}
	data2 := map[string]interface{}{"tenant": "company_2"}

	url1, err := backend.Store("config.json", data1, "company_1")
	require.NoError(t, err)
	url2, err := backend.Store("config.json", data2, "company_2")
	require.NoError(t, err)

	assert.NotEqual(t, url1, url2)
	assert.Contains(t, url1, "company_1")
	assert.Contains(t, url2, "company_2")

	loaded1, err := backend.Load("config.json", "company_1")
	require.NoError(t, err)
	loaded2, err := backend.Load("config.json", "company_2")
	require.NoError(t, err)

	assert.Equal(t, data1, loaded1)
	assert.Equal(t, data2, loaded2)
}

func TestStagingDirectoryLayout(t *testing.T) {
	staging := t.TempDir()
	backend, err := New("my-bucket", "data", Config{StagingDir: staging}, nil)
	require.NoError(t, err)

	_, err = backend.Store("test.json", map[string]interface{}{"test": true}, "tenant_abc")
	require.NoError(t, err)

	staged := filepath.Join(staging, "my-bucket", "data", "tenants", "tenant_abc", "test.json")
	content, err := os.ReadFile(staged)
	require.NoError(t, err, "staged object should exist at %s", staged)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, map[string]interface{}{"test": true}, decoded)
}

func TestLoadNotFound(t *testing.T) {
	backend := stagingBackend(t, "test-bucket", "")

	_, err := backend.Load("missing.json", "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDocumentNotFound))
}

func TestLoadInvalidJSON(t *testing.T) {
	staging := t.TempDir()
	backend, err := New("bad-bucket", "", Config{StagingDir: staging}, nil)
	require.NoError(t, err)

	invalid := filepath.Join(staging, "bad-bucket", "tenants", "default", "broken.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(invalid), 0750))
	require.NoError(t, os.WriteFile(invalid, []byte("{not json"), 0600))

	_, err = backend.Load("broken.json", "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDocumentDecode))
}

func TestDefaultConfigStaging(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.remote())
	assert.Equal(t, ".mock_s3", cfg.stagingDir())

	remote := Config{Region: "us-west-2"}
	assert.True(t, remote.remote())
}
