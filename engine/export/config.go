// Package export rewrites a merged feed for re-publication on a
// marketplace: text replacements, contact overrides, VIN/id shifting and
// stock duplication, all driven by a per-source JSON config.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alexsab-ru/carfeed/pkg/fetch"
)

// Config is the per-marketplace JSON configuration.
type Config struct {
	// Replacements rewrites description fragments, old text to new.
	Replacements map[string]string `json:"replacements"`
	NewAddress   string            `json:"new_address"`
	NewPhone     string            `json:"new_phone"`
	// MoveVINIDUp shifts every VIN and unique id by this base-36 delta so a
	// re-published feed never collides with the dealer's own listings.
	MoveVINIDUp              int      `json:"move_vin_id_up"`
	RemoveCarsAfterDuplicate []string `json:"remove_cars_after_duplicate"`
	RemoveMarkIDs            []string `json:"remove_mark_ids"`
	RemoveFolderIDs          []string `json:"remove_folder_ids"`
	GenerateFriendlyURL      bool     `json:"generate_friendly_url"`
	Domain                   string   `json:"domain"`
}

// SourceKind selects where the config JSON comes from.
type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceEnv    SourceKind = "env"
	SourceGitHub SourceKind = "github"
)

// Source locates the config JSON.
type Source struct {
	Kind SourceKind

	// file
	Path string

	// env
	EnvVar string

	// github: either a gist id or owner/repo plus in-repo path. Token is
	// sent as the Authorization header when set.
	GistID string
	Repo   string
	Dir    string
	File   string
	Token  string
}

// ParseSourceKind validates a CLI config-source name.
func ParseSourceKind(name string) (SourceKind, error) {
	switch SourceKind(name) {
	case SourceFile, SourceEnv, SourceGitHub:
		return SourceKind(name), nil
	}
	return "", fmt.Errorf("export: unsupported config source %q", name)
}

// Load fetches and decodes the config from its source. A missing file or
// unset env var yields the zero Config, not an error: most dealers run
// without marketplace overrides.
func Load(ctx context.Context, src Source, client *fetch.Client) (Config, error) {
	var cfg Config
	var data []byte

	switch src.Kind {
	case SourceFile:
		b, err := os.ReadFile(src.Path)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		if err != nil {
			return cfg, fmt.Errorf("export: read config %s: %w", src.Path, err)
		}
		data = b
	case SourceEnv:
		v := os.Getenv(src.EnvVar)
		if v == "" {
			return cfg, nil
		}
		data = []byte(v)
	case SourceGitHub:
		url, err := src.githubURL()
		if err != nil {
			return cfg, err
		}
		if src.Token != "" {
			client = client.Clone(fetch.WithHeader("Authorization", "token "+src.Token))
		}
		b, err := client.Get(ctx, url)
		if err != nil {
			return cfg, fmt.Errorf("export: fetch config: %w", err)
		}
		data = b
	default:
		return cfg, fmt.Errorf("export: unsupported config source %q", src.Kind)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("export: parse config: %w", err)
	}
	return cfg, nil
}

func (s Source) githubURL() (string, error) {
	if s.GistID != "" {
		return "https://gist.githubusercontent.com/raw/" + s.GistID, nil
	}
	if s.Repo != "" {
		path := strings.Trim(s.Dir+"/"+s.File, "/")
		return "https://raw.githubusercontent.com/" + s.Repo + "/main/" + path, nil
	}
	return "", fmt.Errorf("export: github source needs a gist id or repo")
}
