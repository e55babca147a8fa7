package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string         `json:"tick_interval"`
	Database     DatabaseConfig `json:"database"`
	Nats         NatsConfig     `json:"nats"`
	Pool         PoolConfig     `json:"pool"`
	Console      ConsoleConfig  `json:"console"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 100*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
		}
	}

	el.Add(c.Database.Validate())
	el.Add(c.Nats.validate())
	el.Add(c.Pool.validate())
	el.Add(c.Console.validate())

	return el.Err()
}

// ConsoleConfig holds the operator gate tokens: the word the operator
// must type to apply non-baseline schema migrations, and the word
// that aborts startup instead.
type ConsoleConfig struct {
	ReadyToken string `json:"ready_token"`
	ExitToken  string `json:"exit_token"`
}

func (c *ConsoleConfig) validate() error {
	el := errors.NewErrorList()

	if c.ReadyToken != "" && c.ReadyToken == c.ExitToken {
		el.Add(fmt.Errorf("ready_token and exit_token must differ"))
	}

	return el.Err()
}

func (c *ConsoleConfig) readyToken() string {
	if c.ReadyToken == "" {
		return "ready"
	}
	return c.ReadyToken
}

func (c *ConsoleConfig) exitToken() string {
	if c.ExitToken == "" {
		return "exit"
	}
	return c.ExitToken
}
