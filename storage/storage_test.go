package storage_test

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-draw/storage"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	for name, tc := range map[string]struct {
		base, key, want string
	}{
		"host only":        {"https://cdn.example.com", "draws/a.csv", "https://cdn.example.com/draws/a.csv"},
		"path with slash":  {"https://cdn.example.com/files/", "draws/a.csv", "https://cdn.example.com/files/draws/a.csv"},
		"path no slash":    {"https://cdn.example.com/files", "/draws/a.csv", "https://cdn.example.com/files/draws/a.csv"},
		"no base":          {"", "draws/a.csv", ""},
		"no key":           {"https://cdn.example.com", "", ""},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, storage.PublicURL(tc.base, tc.key))
		})
	}
}

func TestExportKey(t *testing.T) {
	require.Equal(t, "draws/1234.csv", storage.ExportKey("1234"))
}

func TestNewCloudflareR2Uploader_RequiresCredentials(t *testing.T) {
	_, err := storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{AccountID: "acc"})
	require.Error(t, err)
}
