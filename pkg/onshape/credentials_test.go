package onshape

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCredentials = `{
  "zeta": {
    "url": "https://zeta.dev.onshape.com/",
    "accessKey": "zetaAccess",
    "secretKey": "zetaSecret"
  },
  "cad": {
    "url": "",
    "accessKey": "cadAccess",
    "secretKey": "cadSecret",
    "companyId": "company1"
  },
  "broken": {
    "url": "ftp://example.com",
    "accessKey": "",
    "secretKey": "x"
  }
}`

func writeCredentials(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, DefaultCredentialsFile, []byte(content), 0o600))
	return fs
}

func TestLoadCredentials_FileOrder(t *testing.T) {
	store, err := LoadCredentials(writeCredentials(t, testCredentials), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "cad", "broken"}, store.Names())

	stack, err := store.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "zeta", stack.Name)
	assert.Equal(t, "zetaAccess", stack.AccessKey)
}

func TestCredentialStore_Resolve(t *testing.T) {
	store, err := LoadCredentials(writeCredentials(t, testCredentials), DefaultCredentialsFile)
	require.NoError(t, err)

	t.Run("named stack with default url", func(t *testing.T) {
		stack, err := store.Resolve("cad")
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, stack.URL)
		assert.Equal(t, "company1", stack.CompanyID)
	})

	t.Run("unknown stack", func(t *testing.T) {
		_, err := store.Resolve("missing")
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, err.Error(), `no credentials for "missing"`)
	})

	t.Run("invalid stack reports every field", func(t *testing.T) {
		_, err := store.Resolve("broken")
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, err.Error(), "url")
		assert.Contains(t, err.Error(), "accessKey")
	})
}

func TestLoadCredentials_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fs      afero.Fs
		wantMsg string
	}{
		{
			name:    "missing file",
			fs:      afero.NewMemMapFs(),
			wantMsg: "credentials file not found",
		},
		{
			name:    "malformed json",
			fs:      writeCredentials(t, `{"cad": {`),
			wantMsg: "error parsing credentials",
		},
		{
			name:    "not an object",
			fs:      writeCredentials(t, `["cad"]`),
			wantMsg: "JSON object keyed by stack name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(tt.fs, DefaultCredentialsFile)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCredentialStore_ResolveEmpty(t *testing.T) {
	store, err := LoadCredentials(writeCredentials(t, `{}`), DefaultCredentialsFile)
	require.NoError(t, err)

	_, err = store.Resolve("")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "no stacks defined")
}
