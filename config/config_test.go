package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func withEnv(k, v string, fn func()) {
	old, had := os.LookupEnv(k)
	_ = os.Setenv(k, v)
	defer func() {
		if had {
			_ = os.Setenv(k, old)
		} else {
			_ = os.Unsetenv(k)
		}
	}()
	fn()
}

func Test_firstNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"all empty", []string{"", "", ""}, ""},
		{"first non-empty", []string{"a", "b"}, "a"},
		{"later non-empty", []string{"", "b"}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstNonEmpty(tt.in...)
			if got != tt.want {
				t.Errorf("firstNonEmpty() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_getEnv(t *testing.T) {
	tests := []struct {
		name string
		setK string
		setV string
		key  string
		def  string
		want string
	}{
		{"no env uses default non-empty", "", "", "FOO", "bar", "bar"},
		{"env overrides", "FOO", "baz", "FOO", "bar", "baz"},
		{"default empty stays empty", "", "", "FOO", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setK != "" {
				withEnv(tt.setK, tt.setV, func() {
					got := getEnv(tt.key, tt.def)
					if got != tt.want {
						t.Errorf("getEnv() got=%#v want=%#v", got, tt.want)
					}
				})
				return
			}
			got := getEnv(tt.key, tt.def)
			if got != tt.want {
				t.Errorf("getEnv() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_getEnvInt(t *testing.T) {
	tests := []struct {
		name string
		set  string
		def  int
		want int
	}{
		{"no env -> default", "", 7, 7},
		{"valid int", "42", 7, 42},
		{"invalid int -> default", "abc", 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set == "" {
				_ = os.Unsetenv("XINT")
			} else {
				_ = os.Setenv("XINT", tt.set)
				defer os.Unsetenv("XINT")
			}
			got := getEnvInt("XINT", tt.def)
			if got != tt.want {
				t.Errorf("getEnvInt() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_Config_HTTPAddr(t *testing.T) {
	tests := []struct {
		name string
		port int
		want string
	}{
		{"default", 8080, "0.0.0.0:8080"},
		{"custom", 9090, "0.0.0.0:9090"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{MetricsPort: tt.port}
			if got := c.HTTPAddr(); got != tt.want {
				t.Errorf("HTTPAddr() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_getEnvBool(t *testing.T) {
	tests := []struct {
		name string
		set  string
		def  bool
		want bool
	}{
		{"no env -> default", "", true, true},
		{"valid true", "true", false, true},
		{"valid 0", "0", true, false},
		{"invalid -> default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set == "" {
				_ = os.Unsetenv("XBOOL")
			} else {
				_ = os.Setenv("XBOOL", tt.set)
				defer os.Unsetenv("XBOOL")
			}
			got := getEnvBool("XBOOL", tt.def)
			if got != tt.want {
				t.Errorf("getEnvBool() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_Config_PublishEnabled(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		pid   string
		want  bool
	}{
		{"topic and project", "topic", "pid", true},
		{"topic only", "topic", "", false},
		{"project only", "", "pid", false},
		{"neither", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{PubsubTopic: tt.topic, GoogleProjectID: tt.pid}
			if got := c.PublishEnabled(); got != tt.want {
				t.Errorf("PublishEnabled() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_Config_Redacted(t *testing.T) {
	c := &Config{InputFile: "batch.yaml", GoogleProjectID: "pid", PubsubTopic: "topic", MetricsPort: 8081, LogLevel: "debug", CredentialsFile: "creds.json", ExitAfterRun: true}
	got := c.Redacted()
	want := map[string]any{
		"inputFile":           "batch.yaml",
		"projectID":           "pid",
		"resultTopic":         "topic",
		"metricsPort":         8081,
		"logLevel":            "debug",
		"exitAfterRun":        true,
		"credentialsProvided": true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Redacted()\n got=%#v\nwant=%#v", got, want)
	}
}

func Test_projectIDFromCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	content := []byte(`{"project_id":"my-proj"}`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write temp creds: %#v", err)
	}
	pid, err := projectIDFromCredentials(path)
	if err != nil || pid != "my-proj" {
		t.Errorf("projectIDFromCredentials() pid=%#v err=%#v", pid, err)
	}

	// json without project_id returns empty id, no error
	if err := os.WriteFile(path, []byte(`{"nope":1}`), 0o600); err != nil {
		t.Fatalf("write temp creds: %#v", err)
	}
	pid2, err2 := projectIDFromCredentials(path)
	if err2 != nil || pid2 != "" {
		t.Errorf("projectIDFromCredentials(no project) pid=%#v err=%#v", pid2, err2)
	}

	// malformed json is an error
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatalf("write temp creds: %#v", err)
	}
	if _, err3 := projectIDFromCredentials(path); err3 == nil {
		t.Errorf("projectIDFromCredentials(malformed) expected error")
	}
}

func Test_getGoogleProjectID(t *testing.T) {
	unset := func(keys ...string) {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	}
	// ensure clean env
	unset("GOOGLE_APPLICATION_CREDENTIALS", "ALLOCATOR_PUBSUB_PROJECT_ID", "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT")

	dir := t.TempDir()
	credFile := filepath.Join(dir, "creds.json")
	_ = os.WriteFile(credFile, []byte(`{"project_id":"file-proj"}`), 0o600)

	tests := []struct {
		name     string
		setEnv   map[string]string
		creds    string
		explicit string
		want     string
	}{
		{"from GOOGLE_APPLICATION_CREDENTIALS", map[string]string{"GOOGLE_APPLICATION_CREDENTIALS": credFile}, "", "", "file-proj"},
		{"from explicit ALLOCATOR_PUBSUB_PROJECT_ID", map[string]string{}, "", "explicit-proj", "explicit-proj"},
		{"from GOOGLE_PROJECT_ID", map[string]string{"GOOGLE_PROJECT_ID": "env-proj"}, "", "", "env-proj"},
		{"from common env", map[string]string{"GOOGLE_CLOUD_PROJECT": "common-proj"}, "", "", "common-proj"},
		{"from provided credsFile path", map[string]string{}, credFile, "", "file-proj"},
		{"none -> empty", map[string]string{}, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// reset env
			unset("GOOGLE_APPLICATION_CREDENTIALS", "ALLOCATOR_PUBSUB_PROJECT_ID", "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT")
			for k, v := range tt.setEnv {
				_ = os.Setenv(k, v)
			}
			got := getGoogleProjectID(tt.creds, tt.explicit)
			if got != tt.want {
				t.Errorf("getGoogleProjectID() got=%#v want=%#v", got, tt.want)
			}
		})
	}
}

func Test_Load(t *testing.T) {
	// Use only environment inputs to load; avoid panics
	keys := []string{"ALLOCATOR_INPUT_FILE", "ALLOCATION_RESULT_TOPIC", "ALLOCATOR_PUBSUB_TOPIC", "ALLOCATOR_METRICS_PORT", "ALLOCATOR_LOG_LEVEL", "ALLOCATOR_EXIT_AFTER_RUN",
		"GOOGLE_APPLICATION_CREDENTIALS", "ALLOCATOR_GSA_CREDENTIALS", "ALLOCATOR_PUBSUB_PROJECT_ID", "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"}
	unset := func(keys ...string) {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	}
	unset(keys...)
	defer unset(keys...)

	os.Setenv("ALLOCATOR_INPUT_FILE", "batch.yaml")
	os.Setenv("ALLOCATOR_PUBSUB_TOPIC", "topic")
	os.Setenv("ALLOCATOR_PUBSUB_PROJECT_ID", "pid")
	os.Setenv("ALLOCATOR_METRICS_PORT", "7777")
	os.Setenv("ALLOCATOR_LOG_LEVEL", "warn")
	os.Setenv("ALLOCATOR_EXIT_AFTER_RUN", "true")

	cfg := Load()
	if cfg == nil {
		t.Fatalf("Load() returned nil")
	}
	if cfg.InputFile != "batch.yaml" || cfg.PubsubTopic != "topic" || cfg.GoogleProjectID != "pid" || cfg.MetricsPort != 7777 || cfg.LogLevel != "warn" || !cfg.ExitAfterRun {
		b, _ := json.Marshal(cfg)
		t.Errorf("Load() unexpected cfg: %#v", string(b))
	}
	if !cfg.PublishEnabled() {
		t.Errorf("PublishEnabled() = false, want true")
	}
}

func Test_Load_NoTopicSkipsProject(t *testing.T) {
	withEnv("ALLOCATOR_PUBSUB_PROJECT_ID", "pid", func() {
		_ = os.Unsetenv("ALLOCATION_RESULT_TOPIC")
		_ = os.Unsetenv("ALLOCATOR_PUBSUB_TOPIC")
		cfg := Load()
		if cfg.GoogleProjectID != "" || cfg.PublishEnabled() {
			t.Errorf("Load() without topic resolved project %#v", cfg.GoogleProjectID)
		}
	})
}
