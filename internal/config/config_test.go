package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/text/language"

	"github.com/Jayphen/todoboard/internal/projection"
)

// isolate points HOME at an empty directory and resets the singleton.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"TODOBOARD_STORE", "TODOBOARD_API_TOKEN", "TODOBOARD_REDIS_URL", "REDIS_URL",
		"TODOBOARD_LOCALE", "TODOBOARD_CREATED_AT_ORDER", "TODOBOARD_VIEW",
		"TODOBOARD_SORT_BY", "TODOBOARD_SORT_ORDER", "TODOBOARD_SHOW_COMPLETED",
		"TODOBOARD_OS_NOTIFICATIONS", "TODOBOARD_LOG_LEVEL", "TODOBOARD_LOG_FILE",
		"TODOBOARD_LOG_MAX_SIZE",
	} {
		t.Setenv(key, "")
	}
	configOnce = sync.Once{}
	globalConfig = nil
	configErr = nil
	return home
}

func TestDefaultConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store != DefaultStore {
		t.Errorf("Store = %q, want %q", cfg.Store, DefaultStore)
	}
	if cfg.RedisURL != DefaultRedisURL {
		t.Errorf("RedisURL = %q, want %q", cfg.RedisURL, DefaultRedisURL)
	}
	if cfg.Locale != DefaultLocale {
		t.Errorf("Locale = %q, want %q", cfg.Locale, DefaultLocale)
	}
	if cfg.CreatedAtOrder != DefaultCreatedAtOrder {
		t.Errorf("CreatedAtOrder = %q, want %q", cfg.CreatedAtOrder, DefaultCreatedAtOrder)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Notifications.OS {
		t.Error("Notifications.OS should default to false")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("TODOBOARD_STORE", "http:url=https://example.org,practice=p1")
	t.Setenv("TODOBOARD_API_TOKEN", "secret")
	t.Setenv("TODOBOARD_REDIS_URL", "redis://custom:6380")
	t.Setenv("TODOBOARD_LOCALE", "en")
	t.Setenv("TODOBOARD_VIEW", "kanban")
	t.Setenv("TODOBOARD_SHOW_COMPLETED", "yes")
	t.Setenv("TODOBOARD_OS_NOTIFICATIONS", "1")
	t.Setenv("TODOBOARD_LOG_LEVEL", "debug")
	t.Setenv("TODOBOARD_LOG_MAX_SIZE", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store != "http:url=https://example.org,practice=p1" {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.APIToken != "secret" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.RedisURL != "redis://custom:6380" {
		t.Errorf("RedisURL = %q, want %q", cfg.RedisURL, "redis://custom:6380")
	}
	if cfg.Locale != "en" {
		t.Errorf("Locale = %q", cfg.Locale)
	}
	if cfg.Board.View != "kanban" || !cfg.Board.ShowCompleted {
		t.Errorf("Board = %+v", cfg.Board)
	}
	if !cfg.Notifications.OS {
		t.Error("Notifications.OS should be true")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.MaxSize != 50 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestRedisURLFallback(t *testing.T) {
	isolate(t)
	t.Setenv("REDIS_URL", "redis://fallback:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RedisURL != "redis://fallback:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
}

func TestFilePriority(t *testing.T) {
	home := isolate(t)

	legacy := "store: sqlite:path=/tmp/legacy.db\nlocale: fr\n"
	if err := os.WriteFile(filepath.Join(home, ".todoboard.yaml"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	xdgDir := filepath.Join(home, ".config", "todoboard")
	if err := os.MkdirAll(xdgDir, 0755); err != nil {
		t.Fatal(err)
	}
	xdg := "store: sqlite:path=/tmp/xdg.db\nboard:\n  view: matrix\n"
	if err := os.WriteFile(filepath.Join(xdgDir, "config.yaml"), []byte(xdg), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store != "sqlite:path=/tmp/xdg.db" {
		t.Errorf("Store = %q, xdg file should win", cfg.Store)
	}
	if cfg.Locale != "fr" {
		t.Errorf("Locale = %q, legacy value should survive", cfg.Locale)
	}
	if cfg.Board.View != "matrix" {
		t.Errorf("Board.View = %q", cfg.Board.View)
	}
	if cfg.Board.SortBy != DefaultSortBy {
		t.Errorf("Board.SortBy = %q, default should survive a partial file", cfg.Board.SortBy)
	}
}

func TestMalformedFile(t *testing.T) {
	home := isolate(t)
	if err := os.WriteFile(filepath.Join(home, ".todoboard.yaml"), []byte("store: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetCachesAndReload(t *testing.T) {
	isolate(t)
	t.Setenv("TODOBOARD_LOCALE", "en")

	first, err := Get()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("TODOBOARD_LOCALE", "sv")

	again, _ := Get()
	if again != first || again.Locale != "en" {
		t.Errorf("Get() should return the cached config, got locale %q", again.Locale)
	}

	reloaded, err := Reload()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Locale != "sv" {
		t.Errorf("Reload() locale = %q, want sv", reloaded.Locale)
	}
}

func TestProjectionConfig(t *testing.T) {
	tests := []struct {
		name  string
		board BoardConfig
		order string
		want  projection.Config
	}{
		{
			name:  "defaults",
			board: BoardConfig{View: DefaultView, SortBy: DefaultSortBy, SortOrder: DefaultSortOrder},
			order: DefaultCreatedAtOrder,
			want:  projection.DefaultConfig(),
		},
		{
			name:  "kanban by priority",
			board: BoardConfig{View: "kanban", SortBy: "priority", SortOrder: "asc", ShowCompleted: true},
			order: "chronological",
			want: projection.Config{
				Filter: projection.FilterConfig{Status: projection.StatusAll, ShowCompleted: true},
				Sort:   projection.SortConfig{By: projection.SortPriority, Order: projection.Asc, CreatedAt: projection.CreatedAtChronological},
				View:   projection.ViewKanban,
			},
		},
		{
			name:  "garbage falls back",
			board: BoardConfig{View: "grid", SortBy: "colour", SortOrder: "sideways"},
			order: "random",
			want:  projection.DefaultConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Board = tt.board
			cfg.CreatedAtOrder = tt.order

			got := cfg.ProjectionConfig()
			if got.View != tt.want.View || got.Sort != tt.want.Sort ||
				got.Filter.Status != tt.want.Filter.Status ||
				got.Filter.ShowCompleted != tt.want.Filter.ShowCompleted {
				t.Errorf("ProjectionConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTag(t *testing.T) {
	cfg := Defaults()
	if cfg.Tag().String() != language.German.String() {
		t.Errorf("Tag() = %v, want de", cfg.Tag())
	}
	cfg.Locale = "not a tag!"
	if cfg.Tag().String() != language.German.String() {
		t.Errorf("invalid locale should fall back to de, got %v", cfg.Tag())
	}
	cfg.Locale = "en-GB"
	if got := cfg.Tag().String(); got != "en-GB" {
		t.Errorf("Tag() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	if got := ExpandPath("~/board.db"); got != filepath.Join(home, "board.db") {
		t.Errorf("ExpandPath(~/board.db) = %q", got)
	}
	if got := ExpandPath("/abs/board.db"); got != "/abs/board.db" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	content := string(data)
	for _, key := range []string{"store", "api_token", "redis_url", "locale", "created_at_order", "board", "notifications", "logging"} {
		if !strings.Contains(content, key) {
			t.Errorf("Config file missing key: %s", key)
		}
	}

	// The example must itself be loadable.
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(example) failed: %v", err)
	}
	if cfg.Board.SortBy != "createdAt" || cfg.Logging.MaxAge != 7 {
		t.Errorf("example config = %+v", cfg)
	}
}
