package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/tasks"
)

// Spec specifies how to open a task store.
type Spec struct {
	Type   Type
	Config map[string]string
}

// String renders the spec in canonical key order. Tokens are never rendered.
func (s Spec) String() string {
	var parts []string
	for _, k := range []string{"url", "practice", "path", "list", "dir"} {
		if v, ok := s.Config[k]; ok {
			parts = append(parts, k+"="+v)
		}
	}
	return string(s.Type) + ":" + strings.Join(parts, ",")
}

// ParseSpec parses a store specification string.
// Format: "type:param1=value1,param2=value2"
// Examples:
//   - "http:url=https://praxis.example.org,practice=42"
//   - "sqlite:path=~/.local/share/todoboard/board.db"
//   - "googletasks:list=@default,dir=~/.config/todoboard"
func ParseSpec(spec string) (Spec, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return Spec{}, fmt.Errorf("%w: invalid store spec format: %s", tasks.ErrInvalidConfig, spec)
	}

	cfg := make(map[string]string)

	// The url value itself contains ':' and '/', so split on ',' only.
	if parts[1] != "" {
		for _, param := range strings.Split(parts[1], ",") {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) != 2 {
				return Spec{}, fmt.Errorf("%w: invalid parameter format: %s", tasks.ErrInvalidConfig, param)
			}
			cfg[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return Spec{
		Type:   Type(parts[0]),
		Config: cfg,
	}, nil
}

// OpenOptions carries settings that do not belong in a spec string.
type OpenOptions struct {
	// Token is the bearer token for the http store when the spec has none.
	Token string
}

// Open creates a TaskStore from a specification.
func Open(ctx context.Context, spec Spec, opts OpenOptions) (TaskStore, error) {
	switch spec.Type {
	case TypeHTTP:
		token := spec.Config["token"]
		if token == "" {
			token = opts.Token
		}
		return NewHTTPStore(HTTPConfig{
			BaseURL:  spec.Config["url"],
			Practice: spec.Config["practice"],
			Token:    token,
		})

	case TypeSQLite:
		path, ok := spec.Config["path"]
		if !ok {
			return nil, fmt.Errorf("%w: sqlite requires 'path' parameter", tasks.ErrInvalidConfig)
		}
		return NewSQLiteStore(config.ExpandPath(path))

	case TypeGoogleTasks:
		dir := spec.Config["dir"]
		if dir == "" {
			dir = "~/.config/todoboard"
		}
		return NewGoogleTasksStore(ctx, GoogleTasksConfig{
			ListID: spec.Config["list"],
			Dir:    config.ExpandPath(dir),
		})

	default:
		return nil, fmt.Errorf("%w: unsupported store type: %s", tasks.ErrInvalidConfig, spec.Type)
	}
}

// OpenString parses and opens a store specification in one step.
func OpenString(ctx context.Context, spec string, opts OpenOptions) (TaskStore, error) {
	s, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return Open(ctx, s, opts)
}
