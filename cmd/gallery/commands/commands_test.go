package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
)

func TestHashPasswordCommand(t *testing.T) {
	cmd := NewHashPasswordCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cost", "4", "s3cret"})

	require.NoError(t, cmd.Execute())
	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Bekker Fine Art gallery dev")
}

func TestResetCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENVIRONMENT", "development")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	store := repository.NewStore(repository.Options{Dir: dir})
	require.NoError(t, store.Sales.Delete(ctx, "sale001"))

	cmd := NewResetCommand()
	cmd.SetArgs([]string{"sales"})
	require.NoError(t, cmd.Execute())

	sales, err := store.Sales.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SeedSales(), sales)

	_, err = os.Stat(filepath.Join(dir, "sales.json"))
	assert.NoError(t, err)
}

func TestResetCommand_RejectsUnknownTarget(t *testing.T) {
	cmd := NewResetCommand()
	cmd.SetArgs([]string{"users"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	assert.Error(t, cmd.Execute())
}
