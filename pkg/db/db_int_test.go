package db

import (
	"os"
	"path/filepath"
	"testing"

	"liyu1981.xyz/sos-response-service/pkg/common"
)

func TestWithEnvPath(t *testing.T) {
	common.SetTestLoggerNop()

	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	testPath := filepath.Join(wd, "test.db")

	originalDBPath, hadOriginal := os.LookupEnv(common.EnvKeySOSDbPath)

	if err := os.Setenv(common.EnvKeySOSDbPath, testPath); err != nil {
		t.Fatalf("Failed to set %s: %v", common.EnvKeySOSDbPath, err)
	}

	defer func() {
		if hadOriginal {
			_ = os.Setenv(common.EnvKeySOSDbPath, originalDBPath)
		} else {
			_ = os.Unsetenv(common.EnvKeySOSDbPath)
		}
		_ = os.Remove(testPath)
	}()

	instance := GetInstance(UseSqliteDialector())
	if instance == nil || instance.Conn == nil {
		t.Fatal("Expected non-nil DB connection")
	}

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Errorf("Expected database file to be created at %s", testPath)
	}
}
