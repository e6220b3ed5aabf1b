package ingest_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/ingest"
	"github.com/normano/c5store/secret"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPlaintextMergeAndOverride(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "service:\n  port: 8080\n  name: x\n")
	b := writeFile(t, dir, "b.yaml", "service:\n  port: 9090\n")

	ks := secret.New()
	store := datastore.New(ks, nil, "")

	_, err := ingest.Run(ingest.Options{Paths: []string{a, b}}, ks, store)
	require.NoError(t, err)

	v, ok := store.Get("service.port")
	require.True(t, ok)
	port, err := v.AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(9090), port)

	v, ok = store.Get("service.name")
	require.True(t, ok)
	name, _ := v.AsString()
	assert.Equal(t, "x", name)

	_, src, ok := store.GetRef("service.port")
	require.True(t, ok)
	assert.Contains(t, src.String(), b)
}

func TestEnvOverrideWithParsing(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "service:\n  port: 8080\n")
	t.Setenv("C5_SERVICE__PORT", "12345")

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: []string{a}}, ks, store)
	require.NoError(t, err)

	v, ok := store.Get("service.port")
	require.True(t, ok)
	port, err := v.AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), port)

	_, src, _ := store.GetRef("service.port")
	assert.Contains(t, src.String(), "C5_SERVICE__PORT")
}

func TestBase64SecretRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cipher := base64.StdEncoding.EncodeToString([]byte("abcd"))
	doc := "a_secret:\n  .c5encval: [\"base64\", \"_\", \"" + cipher + "\"]\n"
	a := writeFile(t, dir, "a.yaml", doc)

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: []string{a}}, ks, store)
	require.NoError(t, err)

	assert.False(t, store.Exists("a_secret.c5encval"))
	v, ok := store.Get("a_secret")
	require.True(t, ok)
	s, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "abcd", s)
}

func TestArrayInferenceFromEnv(t *testing.T) {
	t.Setenv("C5_ITEMS__0", "x")
	t.Setenv("C5_ITEMS__1", "y")

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: nil}, ks, store)
	require.NoError(t, err)

	v, ok := store.Get("items")
	require.True(t, ok)
	arr, err := v.AsArray()
	require.NoError(t, err)
	require.Len(t, arr, 2)
	s0, _ := arr[0].AsString()
	s1, _ := arr[1].AsString()
	assert.Equal(t, "x", s0)
	assert.Equal(t, "y", s1)
}

func TestForcedMapSuffix(t *testing.T) {
	t.Setenv("C5_HANDLERS#MAP__0", "on_start")
	t.Setenv("C5_HANDLERS#MAP__1", "on_stop")

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: nil}, ks, store)
	require.NoError(t, err)

	assert.False(t, store.Exists("handlers"))
	v, ok := store.Get("handlers.0")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "on_start", s)
	v, ok = store.Get("handlers.1")
	require.True(t, ok)
	s, _ = v.AsString()
	assert.Equal(t, "on_stop", s)
}

func TestProviderDescriptorExtraction(t *testing.T) {
	dir := t.TempDir()
	doc := "mysql:\n  db1:\n    .provider: mysql\n    host: localhost\n    port: 3306\n"
	a := writeFile(t, dir, "a.yaml", doc)

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	result, err := ingest.Run(ingest.Options{Paths: []string{a}}, ks, store)
	require.NoError(t, err)

	require.Len(t, result.Providers["mysql"], 1)
	desc := result.Providers["mysql"][0]
	assert.Equal(t, "mysql.db1", desc.KeyPath)
	assert.Equal(t, "db1", desc.KeyName)
	assert.Equal(t, "localhost", desc.Fields["host"])

	assert.False(t, store.Exists("mysql.db1.host"))
	assert.False(t, store.PathExists("mysql.db1"))
}

func TestEmptyFileIsEmptyMap(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "empty.yaml", "")
	b := writeFile(t, dir, "b.yaml", "k: v\n")

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: []string{a, b}}, ks, store)
	require.NoError(t, err)

	v, ok := store.Get("k")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "v", s)
}

func TestDirectoryExpansionIsLexicographic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1-base.yaml", "k: 1\n")
	writeFile(t, dir, "2-override.yaml", "k: 2\n")

	ks := secret.New()
	store := datastore.New(ks, nil, "")
	_, err := ingest.Run(ingest.Options{Paths: []string{dir}}, ks, store)
	require.NoError(t, err)

	v, ok := store.Get("k")
	require.True(t, ok)
	n, err := v.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
