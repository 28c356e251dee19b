package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T, cfgFile string) {
	t.Helper()
	viper.Reset()
	require.NoError(t, Load(cfgFile))
}

func TestLoad_Defaults(t *testing.T) {
	loadClean(t, "")

	srv := Service()
	assert.Equal(t, "hello-web", srv.SrvName)
	assert.Equal(t, "./app", srv.ContextPath)
	assert.Equal(t, 5000, srv.ContainerPort)
	assert.Equal(t, 8080, srv.PublishedPort)
	assert.Contains(t, srv.Message, "Hello")

	opts := DeployOptions()
	assert.Equal(t, []string{"systemctl", "start", "docker"}, opts.StartCommand)
	assert.Equal(t, 15*time.Second, opts.EngineWait.MaxWait)
	assert.Equal(t, time.Second, opts.EngineWait.Interval)
	assert.Equal(t, 10*time.Second, opts.VerifyWait.MaxWait)
	assert.Equal(t, 500*time.Millisecond, opts.VerifyWait.Interval)
	assert.Empty(t, EngineHost())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	os.Setenv("STEVEDORE_SERVICE_PUBLISHED_PORT", "9090")
	os.Setenv("STEVEDORE_SERVICE_MESSAGE", "custom greeting")
	defer os.Unsetenv("STEVEDORE_SERVICE_PUBLISHED_PORT")
	defer os.Unsetenv("STEVEDORE_SERVICE_MESSAGE")

	loadClean(t, "")

	srv := Service()
	assert.Equal(t, 9090, srv.PublishedPort)
	assert.Equal(t, "custom greeting", srv.Message)
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stevedore.yaml")
	content := `stevedore:
  service:
    name: orders-api
    context: ./orders
    container_port: 9000
    published_port: 9001
    message: orders up
  verify:
    timeout: 3s
    interval: 100ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loadClean(t, path)

	srv := Service()
	assert.Equal(t, "orders-api", srv.SrvName)
	assert.Equal(t, "./orders", srv.ContextPath)
	assert.Equal(t, 9000, srv.ContainerPort)
	assert.Equal(t, 9001, srv.PublishedPort)
	assert.Equal(t, "orders up", srv.Message)

	opts := DeployOptions()
	assert.Equal(t, 3*time.Second, opts.VerifyWait.MaxWait)
	assert.Equal(t, 100*time.Millisecond, opts.VerifyWait.Interval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stevedore.yaml")
	content := `stevedore:
  service:
    published_port: 9001
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	os.Setenv("STEVEDORE_SERVICE_PUBLISHED_PORT", "9595")
	defer os.Unsetenv("STEVEDORE_SERVICE_PUBLISHED_PORT")

	loadClean(t, path)

	assert.Equal(t, 9595, Service().PublishedPort)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	viper.Reset()
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	loadClean(t, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "stevedore.yaml")
	require.NoError(t, WriteDefault(path))

	loadClean(t, path)
	srv := Service()
	assert.Equal(t, "hello-web", srv.SrvName)
	assert.Equal(t, 8080, srv.PublishedPort)

	opts := DeployOptions()
	assert.Equal(t, 15*time.Second, opts.EngineWait.MaxWait)
}

func TestWriteDefault_RefusesExisting(t *testing.T) {
	loadClean(t, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "stevedore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0644))

	err := WriteDefault(path)
	require.Error(t, err)

	kept, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "keep me", string(kept))
}
