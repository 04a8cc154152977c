package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/docket/pkg/storage"
)

var testEnv = &storage.Env{
	ContainerName:    "TEST_STORAGE_CONTAINER",
	ConnectionString: "TEST_STORAGE_CONN",
	AccountURL:       "TEST_STORAGE_ACCOUNT",
	MaxListSize:      "TEST_STORAGE_LIST",
	MaxRetries:       "TEST_STORAGE_RETRIES",
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		env     map[string]string
		want    storage.Config
		wantErr string
	}{
		{
			name: "defaults",
			cfg:  storage.Config{ConnectionString: "conn"},
			want: storage.Config{ContainerName: "documents", ConnectionString: "conn", MaxListSize: 50, MaxRetries: 3},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"TEST_STORAGE_CONTAINER": "foia",
				"TEST_STORAGE_ACCOUNT":   "https://acct.blob.core.windows.net/",
				"TEST_STORAGE_LIST":      "200",
				"TEST_STORAGE_RETRIES":   "-1",
			},
			want: storage.Config{
				ContainerName: "foia",
				AccountURL:    "https://acct.blob.core.windows.net/",
				MaxListSize:   200,
				MaxRetries:    -1,
			},
		},
		{
			name: "list size capped",
			cfg:  storage.Config{ConnectionString: "conn"},
			env:  map[string]string{"TEST_STORAGE_LIST": "9000"},
			want: storage.Config{ContainerName: "documents", ConnectionString: "conn", MaxListSize: storage.MaxListCap, MaxRetries: 3},
		},
		{
			name:    "malformed env",
			cfg:     storage.Config{ConnectionString: "conn"},
			env:     map[string]string{"TEST_STORAGE_RETRIES": "many"},
			wantErr: "TEST_STORAGE_RETRIES",
		},
		{
			name:    "no connection target",
			wantErr: "connection_string or account_url required",
		},
		{
			name:    "negative list size",
			cfg:     storage.Config{ConnectionString: "conn", MaxListSize: -5},
			wantErr: "max_list_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			err := cfg.Finalize(testEnv)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Finalize() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if cfg != tt.want {
				t.Errorf("Finalize() = %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{ContainerName: "documents", ConnectionString: "base", MaxListSize: 50, MaxRetries: 3}
	base.Merge(&storage.Config{AccountURL: "https://acct.blob.core.windows.net/", MaxRetries: 5})

	want := storage.Config{
		ContainerName:    "documents",
		ConnectionString: "base",
		AccountURL:       "https://acct.blob.core.windows.net/",
		MaxListSize:      50,
		MaxRetries:       5,
	}
	if base != want {
		t.Errorf("Merge() = %+v, want %+v", base, want)
	}
}

func TestConfigured(t *testing.T) {
	if (&storage.Config{}).Configured() {
		t.Error("empty config reported configured")
	}
	if !(&storage.Config{AccountURL: "https://acct.blob.core.windows.net/"}).Configured() {
		t.Error("account url config reported unconfigured")
	}
}
