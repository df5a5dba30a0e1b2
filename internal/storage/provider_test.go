package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileProvider_RoundTrip(t *testing.T) {
	provider := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	exists, err := provider.Exists(ctx, "sessions/a.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, provider.Write(ctx, "sessions/a.json", []byte(`{"ok":true}`)))

	exists, err = provider.Exists(ctx, "sessions/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := provider.Read(ctx, "sessions/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	require.NoError(t, provider.Delete(ctx, "sessions/a.json"))
	exists, err = provider.Exists(ctx, "sessions/a.json")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error.
	require.NoError(t, provider.Delete(ctx, "sessions/a.json"))
}

func TestLocalFileProvider_List(t *testing.T) {
	provider := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	require.NoError(t, provider.Write(ctx, "sessions/a.json", []byte("a")))
	require.NoError(t, provider.Write(ctx, "sessions/b.json", []byte("b")))
	require.NoError(t, provider.Write(ctx, "reports/c.json", []byte("c")))

	files, err := provider.List(ctx, "sessions")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sessions/a.json", "sessions/b.json"}, files)

	empty, err := provider.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPrefixedFileProvider_IsolatesNamespaces(t *testing.T) {
	base := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	memory := NewPrefixedFileProvider(base, "memory")
	reports := NewPrefixedFileProvider(base, "reports")

	require.NoError(t, memory.Write(ctx, "s1.json", []byte("m")))
	require.NoError(t, reports.Write(ctx, "s1.json", []byte("r")))

	fromMemory, err := memory.Read(ctx, "s1.json")
	require.NoError(t, err)
	assert.Equal(t, "m", string(fromMemory))

	fromReports, err := reports.Read(ctx, "s1.json")
	require.NoError(t, err)
	assert.Equal(t, "r", string(fromReports))

	exists, err := memory.Exists(ctx, "other.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name: "valid local backend",
			config: Config{
				Backend: BackendLocal,
				Local:   &LocalConfig{BaseDir: t.TempDir()},
			},
			expectError: false,
		},
		{
			name:        "local backend without base dir",
			config:      Config{Backend: BackendLocal, Local: &LocalConfig{}},
			expectError: true,
		},
		{
			name:        "s3 backend without bucket",
			config:      Config{Backend: BackendS3, S3: &S3Config{}},
			expectError: true,
		},
		{
			name:        "unknown backend",
			config:      Config{Backend: "ftp"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, manager)
			assert.Equal(t, tt.config.Backend, manager.Backend())
		})
	}
}

func TestManager_NamespaceScopesProviders(t *testing.T) {
	manager := NewManagerWithProvider(NewLocalFileProvider(t.TempDir()))
	ctx := context.Background()

	scoped := manager.Namespace("memory")
	require.NoError(t, scoped.Write(ctx, "x.json", []byte("1")))

	root := manager.Namespace("")
	data, err := root.Read(ctx, "memory/x.json")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}
