package c5store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c5store "github.com/normano/c5store"
	"github.com/normano/c5store/ingest"
)

type dbConfig struct {
	Host string
	Port uint16
}

func TestGetIntoStructFromNestedMap(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "db:\n  host: localhost\n  port: 5432\n")

	store, manager, err := c5store.Open(ingest.Options{Paths: []string{a}})
	require.NoError(t, err)
	defer manager.Stop()

	cfg, err := c5store.GetIntoStruct[dbConfig](store, "db")
	require.NoError(t, err)
	assert.Equal(t, dbConfig{Host: "localhost", Port: 5432}, cfg)
}

func TestGetIntoStructFromFlattenedEnv(t *testing.T) {
	t.Setenv("C5_DB__HOST", "localhost")
	t.Setenv("C5_DB__PORT", "5432")

	store, manager, err := c5store.Open(ingest.Options{})
	require.NoError(t, err)
	defer manager.Stop()

	assert.False(t, store.Exists("db"))

	cfg, err := c5store.GetIntoStruct[dbConfig](store, "db")
	require.NoError(t, err)
	assert.Equal(t, dbConfig{Host: "localhost", Port: 5432}, cfg)
}

type withTag struct {
	Name string `c5:"service_name"`
}

func TestGetIntoStructHonorsTag(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "svc:\n  service_name: checkout\n")

	store, manager, err := c5store.Open(ingest.Options{Paths: []string{a}})
	require.NoError(t, err)
	defer manager.Stop()

	cfg, err := c5store.GetIntoStruct[withTag](store, "svc")
	require.NoError(t, err)
	assert.Equal(t, "checkout", cfg.Name)
}

func TestGetIntoStructMissingKeyFails(t *testing.T) {
	store, manager, err := c5store.Open(ingest.Options{})
	require.NoError(t, err)
	defer manager.Stop()

	_, err = c5store.GetIntoStruct[dbConfig](store, "nope")
	require.Error(t, err)
}

func TestGetIntoTypeMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "name: not-a-number\n")

	store, manager, err := c5store.Open(ingest.Options{Paths: []string{a}})
	require.NoError(t, err)
	defer manager.Stop()

	_, err = c5store.GetInto[int64](store, "name")
	require.Error(t, err)
}
