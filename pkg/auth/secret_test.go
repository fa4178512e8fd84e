package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSecretStore_Keyring(t *testing.T) {
	keyring.MockInit()
	s := NewSecretStore(t.TempDir())

	require.NoError(t, s.Save("client", "secret"))
	got, err := s.Get("client")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, s.Delete("client"))
	_, err = s.Get("client")
	assert.Error(t, err)
}

func TestSecretStore_MigratesFile(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, secretFileName), []byte("from-file\n"), 0600))

	s := NewSecretStore(dir)
	got, err := s.Get("client")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	_, err = os.Stat(filepath.Join(dir, secretFileName))
	assert.True(t, os.IsNotExist(err), "file removed after migration")

	got, err = keyring.Get(keyringService, "client")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestSecretStore_Required(t *testing.T) {
	keyring.MockInit()
	s := NewSecretStore("")
	assert.Error(t, s.Save("", "x"))
	assert.Error(t, s.Save("id", ""))
	_, err := s.Get("")
	assert.Error(t, err)
	_, err = s.Get("unknown")
	assert.Error(t, err)
}
