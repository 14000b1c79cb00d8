package main

import (
	"testing"
	"time"
)

func TestResolveStorageDriverExplicitFlagWins(t *testing.T) {
	driver, explicit, err := resolveStorageDriver("JSON", "postgres", "postgres://example")
	if err != nil {
		t.Fatalf("resolveStorageDriver returned error: %v", err)
	}
	if !explicit {
		t.Fatalf("expected flag-provided driver to be explicit")
	}
	if driver != "json" {
		t.Fatalf("expected json driver, got %q", driver)
	}
}

func TestResolveStorageDriverDSNImpliesPostgres(t *testing.T) {
	driver, explicit, err := resolveStorageDriver("", "", "postgres://example")
	if err != nil {
		t.Fatalf("resolveStorageDriver returned error: %v", err)
	}
	if explicit {
		t.Fatalf("expected postgres default to be implicit, got explicit")
	}
	if driver != "postgres" {
		t.Fatalf("expected postgres driver, got %q", driver)
	}
}

func TestResolveStorageDriverDefaultsToJSON(t *testing.T) {
	driver, explicit, err := resolveStorageDriver("", "", "")
	if err != nil {
		t.Fatalf("resolveStorageDriver returned error: %v", err)
	}
	if explicit {
		t.Fatalf("expected json default to be implicit, got explicit")
	}
	if driver != "json" {
		t.Fatalf("expected json driver, got %q", driver)
	}
}

func TestResolveSessionStoreConfig(t *testing.T) {
	cases := []struct {
		name          string
		flagDriver    string
		envDriver     string
		storageDriver string
		storageDSN    string
		flagDSN       string
		envDSN        string
		redisURL      string
		want          sessionStoreConfig
		wantErr       bool
	}{
		{
			name: "defaults to memory",
			want: sessionStoreConfig{Driver: "memory"},
		},
		{
			name:     "redis url implies redis",
			redisURL: "redis://127.0.0.1:6379",
			want:     sessionStoreConfig{Driver: "redis", RedisURL: "redis://127.0.0.1:6379"},
		},
		{
			name:    "session dsn implies postgres",
			flagDSN: "postgres://sessions",
			want:    sessionStoreConfig{Driver: "postgres", DSN: "postgres://sessions"},
		},
		{
			name:          "postgres storage shares its dsn",
			storageDriver: "postgres",
			storageDSN:    "postgres://primary",
			want:          sessionStoreConfig{Driver: "postgres", DSN: "postgres://primary"},
		},
		{
			name:       "explicit postgres without dsn fails",
			flagDriver: "postgres",
			wantErr:    true,
		},
		{
			name:       "explicit redis without url fails",
			flagDriver: "redis",
			wantErr:    true,
		},
		{
			name:       "unsupported driver fails",
			flagDriver: "etcd",
			wantErr:    true,
		},
		{
			name:       "env driver honoured",
			envDriver:  "memory",
			storageDSN: "postgres://primary",
			want:       sessionStoreConfig{Driver: "memory"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveSessionStoreConfig(tc.flagDriver, tc.envDriver, tc.storageDriver, tc.storageDSN, tc.flagDSN, tc.envDSN, tc.redisURL)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveSessionStoreConfig returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected config: got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestModeValueAndListenDefaults(t *testing.T) {
	if mode := modeValue("", ""); mode != "development" {
		t.Fatalf("expected development default, got %q", mode)
	}
	if mode := modeValue(" Production ", ""); mode != "production" {
		t.Fatalf("expected production, got %q", mode)
	}
	if addr := resolveListenAddr("", "production", ""); addr != ":80" {
		t.Fatalf("expected :80 for production, got %q", addr)
	}
	if addr := resolveListenAddr("", "development", ""); addr != ":8080" {
		t.Fatalf("expected :8080 for development, got %q", addr)
	}
	if addr := resolveListenAddr(":9000", "production", ":7000"); addr != ":9000" {
		t.Fatalf("expected flag to win, got %q", addr)
	}
	if addr := resolveListenAddr("", "production", ":7000"); addr != ":7000" {
		t.Fatalf("expected env to win over mode default, got %q", addr)
	}
}

func TestValidateProductionDatastore(t *testing.T) {
	if err := validateProductionDatastore("json", "", ""); err == nil {
		t.Fatal("expected error for json driver in production")
	}
	if err := validateProductionDatastore("postgres", "", ""); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
	if err := validateProductionDatastore("postgres", "postgres://primary", "postgres://primary"); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
}

func TestResolveDataPath(t *testing.T) {
	if path := resolveDataPath("", ""); path != "data/store.json" {
		t.Fatalf("expected default data path, got %q", path)
	}
	if path := resolveDataPath("custom.json", "env.json"); path != "custom.json" {
		t.Fatalf("expected flag path to win, got %q", path)
	}
	if path := resolveDataPath("", " env.json "); path != "env.json" {
		t.Fatalf("expected env path trimmed, got %q", path)
	}
}

func TestFirstNonEmptyAndSplitAndTrim(t *testing.T) {
	if got := firstNonEmpty("", "  ", " b ", "c"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := splitAndTrim(" a , ,b ,"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected split result: %v", got)
	}
	if got := splitAndTrim("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestResolveDurationFallbacks(t *testing.T) {
	if got := resolveDuration(3*time.Second, "CLIPSTREAM_TEST_DURATION", time.Minute); got != 3*time.Second {
		t.Fatalf("expected flag duration, got %v", got)
	}
	t.Setenv("CLIPSTREAM_TEST_DURATION", "90s")
	if got := resolveDuration(0, "CLIPSTREAM_TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Fatalf("expected env duration, got %v", got)
	}
	t.Setenv("CLIPSTREAM_TEST_DURATION", "not-a-duration")
	if got := resolveDuration(0, "CLIPSTREAM_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback duration, got %v", got)
	}
}

func TestResolveBool(t *testing.T) {
	if !resolveBool(true, "CLIPSTREAM_TEST_BOOL") {
		t.Fatal("expected flag true to win")
	}
	t.Setenv("CLIPSTREAM_TEST_BOOL", "true")
	if !resolveBool(false, "CLIPSTREAM_TEST_BOOL") {
		t.Fatal("expected env true")
	}
	t.Setenv("CLIPSTREAM_TEST_BOOL", "nope")
	if resolveBool(false, "CLIPSTREAM_TEST_BOOL") {
		t.Fatal("expected invalid env value to be ignored")
	}
}
