package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{
		"DASHSCOPE_API_KEY": "sk-test-123",
		"TAVILY_API_KEY":    "tvly-test-456",
	}

	if err := EncryptSecretsFile(dir, "correct-horse", secrets); err != nil {
		t.Fatalf("EncryptSecretsFile() error: %v", err)
	}

	if !SecretsFileExists(dir) {
		t.Error("Expected secrets file to exist after encryption")
	}

	decrypted, err := DecryptSecretsFile(dir, "correct-horse")
	if err != nil {
		t.Fatalf("DecryptSecretsFile() error: %v", err)
	}
	if decrypted["DASHSCOPE_API_KEY"] != "sk-test-123" {
		t.Errorf("DASHSCOPE_API_KEY = %q", decrypted["DASHSCOPE_API_KEY"])
	}
	if decrypted["TAVILY_API_KEY"] != "tvly-test-456" {
		t.Errorf("TAVILY_API_KEY = %q", decrypted["TAVILY_API_KEY"])
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	dir := t.TempDir()
	if err := EncryptSecretsFile(dir, "right", map[string]string{"K": "v"}); err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptSecretsFile(dir, "wrong"); err == nil {
		t.Error("Expected decryption to fail with wrong password")
	}
}

func TestDecryptCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, secretsFileName), []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptSecretsFile(dir, "any"); err == nil {
		t.Error("Expected error for truncated secrets file")
	}
}

func TestGetSecret_Precedence(t *testing.T) {
	defer SetDecryptedSecrets(nil)
	oldEnv := os.Getenv("AGENTD_TEST_SECRET")
	defer os.Setenv("AGENTD_TEST_SECRET", oldEnv)

	// Secrets file wins over environment
	os.Setenv("AGENTD_TEST_SECRET", "from-env")
	SetDecryptedSecrets(map[string]string{"AGENTD_TEST_SECRET": "from-file"})

	value, err := GetSecret("AGENTD_TEST_SECRET")
	if err != nil {
		t.Fatalf("GetSecret() error: %v", err)
	}
	if value != "from-file" {
		t.Errorf("GetSecret() = %q, want secrets file to take precedence", value)
	}

	// Falls back to environment when not in secrets file
	SetDecryptedSecrets(nil)
	value, err = GetSecret("AGENTD_TEST_SECRET")
	if err != nil {
		t.Fatalf("GetSecret() error: %v", err)
	}
	if value != "from-env" {
		t.Errorf("GetSecret() = %q, want env fallback", value)
	}

	// Not found anywhere
	os.Unsetenv("AGENTD_TEST_SECRET")
	if _, err := GetSecret("AGENTD_TEST_SECRET"); err == nil {
		t.Error("Expected error when secret not found anywhere")
	}
}

func TestSetSecretAndNames(t *testing.T) {
	defer SetDecryptedSecrets(nil)
	SetDecryptedSecrets(nil)

	if err := SetSecret("NEW_KEY", "value"); err != nil {
		t.Fatalf("SetSecret() error: %v", err)
	}

	names := GetDecryptedSecretNames()
	if len(names) != 1 || names[0] != "NEW_KEY" {
		t.Errorf("GetDecryptedSecretNames() = %v, want [NEW_KEY]", names)
	}
}
