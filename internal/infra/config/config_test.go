package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseSpecialDays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		value        string
		want         []SpecialDay
		wantWarnings int
	}{
		{
			name:  "defaults",
			value: "",
			want: []SpecialDay{
				{Label: "Wednesday posts", Weekday: time.Wednesday},
				{Label: "Thursday posts", Weekday: time.Thursday},
			},
		},
		{
			name:  "orderKept",
			value: "Frog day:wed, Weekend: Sunday ,Start:1",
			want: []SpecialDay{
				{Label: "Frog day", Weekday: time.Wednesday},
				{Label: "Weekend", Weekday: time.Sunday},
				{Label: "Start", Weekday: time.Monday},
			},
		},
		{
			name:         "invalidEntriesDropped",
			value:        "Frog day:Wednesday,Bad:Someday,NoDay,:Friday,Tail:",
			want:         []SpecialDay{{Label: "Frog day", Weekday: time.Wednesday}},
			wantWarnings: 4,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var warnings []string
			got := parseSpecialDays(tc.value, &warnings)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseSpecialDays(%q) = %#v, want %#v", tc.value, got, tc.want)
			}
			if len(warnings) != tc.wantWarnings {
				t.Fatalf("got %d warnings %v, want %d", len(warnings), warnings, tc.wantWarnings)
			}
		})
	}
}

func TestFromEnvironRequiresCredentials(t *testing.T) {
	cases := []struct {
		name    string
		apiID   string
		apiHash string
	}{
		{name: "missingID", apiID: "", apiHash: "hash"},
		{name: "badID", apiID: "abc", apiHash: "hash"},
		{name: "negativeID", apiID: "-5", apiHash: "hash"},
		{name: "missingHash", apiID: "12345", apiHash: "  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("API_ID", tc.apiID)
			t.Setenv("API_HASH", tc.apiHash)

			if _, err := fromEnviron(); err == nil {
				t.Fatal("fromEnviron() error = nil, want error")
			}
		})
	}
}

func TestFromEnvironDefaultsAndSettings(t *testing.T) {
	t.Setenv("API_ID", "12345")
	t.Setenv("API_HASH", "0123456789abcdef")
	t.Setenv("PHONE_NUMBER", " +77011112233 ")
	t.Setenv("THROTTLE_RPS", "zero")
	t.Setenv("DISPLAY_TIMEZONE", "Mars/Olympus")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SESSION_FILE", "")
	t.Setenv("SPECIAL_DAYS", "Frog day:Wednesday")

	cfg, err := fromEnviron()
	if err != nil {
		t.Fatalf("fromEnviron() error = %v", err)
	}
	env := cfg.Env
	if env.ThrottleRPS != defaultThrottleRPS {
		t.Errorf("ThrottleRPS = %d, want default %d", env.ThrottleRPS, defaultThrottleRPS)
	}
	if env.DisplayTimezone != defaultDisplayTimezone {
		t.Errorf("DisplayTimezone = %q, want default", env.DisplayTimezone)
	}
	if env.SessionFile != defaultSessionFile || env.LogLevel != defaultLogLevel {
		t.Errorf("SessionFile = %q, LogLevel = %q; want defaults", env.SessionFile, env.LogLevel)
	}

	var hasThrottle, hasTimezone bool
	for _, w := range cfg.warnings {
		hasThrottle = hasThrottle || strings.Contains(w, "THROTTLE_RPS")
		hasTimezone = hasTimezone || strings.Contains(w, "Mars/Olympus")
	}
	if !hasThrottle || !hasTimezone {
		t.Errorf("warnings = %v, want THROTTLE_RPS and timezone entries", cfg.warnings)
	}

	want := Settings{
		AppID:        12345,
		AppHash:      "0123456789abcdef",
		AppVersion:   defaultAppVersion,
		DeviceModel:  defaultDeviceModel,
		LanguageCode: defaultLanguageCode,
		PhoneNumber:  "+77011112233",
		SpecialDays:  []SpecialDay{{Label: "Frog day", Weekday: time.Wednesday}},
	}
	got := cfg.Settings()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Settings() = %#v, want %#v", got, want)
	}

	got.SpecialDays[0].Label = "changed"
	if cfg.Env.SpecialDays[0].Label != "Frog day" {
		t.Fatal("Settings() shares SpecialDays with the config")
	}
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	keys := []string{"API_ID", "API_HASH", "DEVICE_MODEL"}
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "API_ID=777\nAPI_HASH=abcdef\nDEVICE_MODEL=Desktop\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Env.APIID != 777 || cfg.Env.APIHash != "abcdef" || cfg.Env.DeviceModel != "Desktop" {
		t.Fatalf("loadConfig() env = %+v", cfg.Env)
	}
}
