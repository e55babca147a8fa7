package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/eldermoor/eldermoor/internal/worker"
)

// PoolConfig sizes the persistence worker pool that takes save I/O
// off the tick loop.
type PoolConfig struct {
	Size        int    `json:"size"`
	IdleTimeout string `json:"idle_timeout"`
}

func (c *PoolConfig) validate() error {
	el := errors.NewErrorList()

	if c.Size < 0 {
		el.Add(fmt.Errorf("size must not be negative"))
	}
	if c.IdleTimeout != "" {
		if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
			el.Add(fmt.Errorf("parsing idle_timeout: %w", err))
		}
	}

	return el.Err()
}

func (c *PoolConfig) buildPool() (*worker.Pool, error) {
	var opts []worker.PoolOpt
	if c.Size > 0 {
		opts = append(opts, worker.WithSize(c.Size))
	}
	if c.IdleTimeout != "" {
		d, err := time.ParseDuration(c.IdleTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing idle_timeout: %w", err)
		}
		opts = append(opts, worker.WithIdleTimeout(d))
	}

	return worker.NewPool(opts...), nil
}
