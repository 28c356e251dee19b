package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stevedore/pkg/service"
)

func testSpec(dir string) service.Spec {
	return service.Spec{
		SrvName:       "hello-web",
		ContextPath:   dir,
		ContainerPort: 5000,
		PublishedPort: 8080,
		Message:       "Hello, this is my simple web app deployed with Stevedore and Docker!",
	}
}

func TestRender_WritesCompleteContext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	srv := testSpec(dir)

	require.NoError(t, Render(srv))

	mainGo, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Contains(t, string(mainGo), srv.Message)
	assert.Contains(t, string(mainGo), `":5000"`)

	goMod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(goMod), "module hello-web")

	dockerfile, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(dockerfile), "EXPOSE 5000")
}

func TestRender_ContextPassesSpecValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	srv := testSpec(dir)

	require.NoError(t, Render(srv))
	assert.NoError(t, srv.Validate(), "a rendered context must be deployable as-is")
}

func TestRender_QuotesAwkwardMessages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	srv := testSpec(dir)
	srv.Message = `she said "hi" and left a	tab`

	require.NoError(t, Render(srv))

	mainGo, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Contains(t, string(mainGo), `\"hi\"`)
	assert.Contains(t, string(mainGo), `\t`)
}

func TestRender_RefusesExistingDockerfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0644))

	err := Render(testSpec(dir))
	require.Error(t, err)

	kept, readErr := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, readErr)
	assert.Equal(t, "FROM scratch\n", string(kept))
}

func TestRender_NoContextPath(t *testing.T) {
	srv := testSpec("")
	assert.Error(t, Render(srv))
}
