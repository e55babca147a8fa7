package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/eldermoor/eldermoor/internal/storage"
)

// DatabaseConfig selects the backends for the three independently
// configured stores. The logging store is optional; content and
// player are not.
type DatabaseConfig struct {
	Content storage.Options  `json:"content"`
	Player  storage.Options  `json:"player"`
	Logging *storage.Options `json:"logging,omitempty"`

	// ConfigFile is the configuration file the cross-backend migrator
	// rewrites when swapping backends.
	ConfigFile string `json:"config_file,omitempty"`
}

func (c *DatabaseConfig) Validate() error {
	el := errors.NewErrorList()

	if err := c.Content.Validate(); err != nil {
		el.Add(fmt.Errorf("content: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		el.Add(fmt.Errorf("player: %w", err))
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			el.Add(fmt.Errorf("logging: %w", err))
		}
	}

	return el.Err()
}

func (c *DatabaseConfig) configFile() string {
	if c.ConfigFile == "" {
		return "config.json"
	}
	return c.ConfigFile
}

func (c *DatabaseConfig) openContent(ctx context.Context) (storage.Store, error) {
	st, err := storage.Open(ctx, c.Content, storage.PurposeContent)
	if err != nil {
		return nil, fmt.Errorf("opening content store: %w", err)
	}
	return st, nil
}

func (c *DatabaseConfig) openPlayer(ctx context.Context) (storage.Store, error) {
	st, err := storage.Open(ctx, c.Player, storage.PurposePlayer)
	if err != nil {
		return nil, fmt.Errorf("opening player store: %w", err)
	}
	return st, nil
}

func (c *DatabaseConfig) openLogging(ctx context.Context) (storage.Store, error) {
	if c.Logging == nil {
		return nil, nil
	}
	st, err := storage.Open(ctx, *c.Logging, storage.PurposeLogging)
	if err != nil {
		return nil, fmt.Errorf("opening logging store: %w", err)
	}
	return st, nil
}
