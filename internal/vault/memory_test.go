package vault

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemoryVault_PutAndGetArtifact(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	tests := []struct {
		name    string
		key     string
		content string
	}{
		{name: "store and retrieve artifact", key: "builds/1-run-1/My_App", content: "MZ binary"},
		{name: "store empty artifact", key: "empty", content: ""},
		{name: "store large artifact", key: "builds/2-run-2/big", content: strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := vault.PutArtifact(tt.key, strings.NewReader(tt.content), int64(len(tt.content))); err != nil {
				t.Fatalf("PutArtifact() error = %v", err)
			}

			var buf bytes.Buffer
			if err := vault.GetArtifact(tt.key, &buf); err != nil {
				t.Fatalf("GetArtifact() error = %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("GetArtifact() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryVault_PutArtifactErrors(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	t.Run("size mismatch", func(t *testing.T) {
		err := vault.PutArtifact("a", strings.NewReader("hello"), 100)
		if err == nil || !strings.Contains(err.Error(), "size mismatch") {
			t.Errorf("PutArtifact() error = %v, want size mismatch", err)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if err := vault.PutArtifact("../escape", strings.NewReader(""), 0); err == nil {
			t.Error("PutArtifact() expected error for escaping key")
		}
	})

	if keys := vault.Keys(); len(keys) != 0 {
		t.Errorf("Keys() = %v, want none after failed puts", keys)
	}
}

func TestMemoryVault_Replace(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	for _, data := range []string{"version 1", "version 2"} {
		if err := vault.PutArtifact("k", strings.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("PutArtifact() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if err := vault.GetArtifact("k", &buf); err != nil {
		t.Fatalf("GetArtifact() error = %v", err)
	}
	if buf.String() != "version 2" {
		t.Errorf("artifact = %q, want %q", buf.String(), "version 2")
	}
}

func TestMemoryVault_GetArtifactNotFound(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	var buf bytes.Buffer
	err := vault.GetArtifact("missing", &buf)
	if err == nil || !strings.Contains(err.Error(), "artifact not found") {
		t.Errorf("GetArtifact() error = %v, want artifact not found", err)
	}
}

func TestMemoryVault_ValidateSetup(t *testing.T) {
	if err := NewMemoryVault("test-vault").ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}
