package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/eldermoor/eldermoor/internal/storage"
)

// FileConfigWriter rewrites the database section of the server's JSON
// configuration file in place, leaving every other section untouched.
type FileConfigWriter struct {
	Path string
}

func (w *FileConfigWriter) WriteActive(contentOpts, playerOpts storage.Options) error {
	raw, err := os.ReadFile(w.Path)
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	var cfg map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	var db map[string]json.RawMessage
	if section, ok := cfg["database"]; ok {
		if err := json.Unmarshal(section, &db); err != nil {
			return fmt.Errorf("parsing database section: %w", err)
		}
	} else {
		db = map[string]json.RawMessage{}
	}

	if db["content"], err = json.Marshal(contentOpts); err != nil {
		return err
	}
	if db["player"], err = json.Marshal(playerOpts); err != nil {
		return err
	}
	if cfg["database"], err = json.Marshal(db); err != nil {
		return err
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return atomicWrite(w.Path, append(out, '\n'), 0644)
}

// atomicWrite writes data to a temp file then renames it to the
// target path, so an interrupted process never leaves a truncated
// configuration behind.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
