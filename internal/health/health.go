package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ProbeRunner runs readiness checks with a shared per-call timeout.
type ProbeRunner struct {
	checks  []Check
	timeout time.Duration
}

func NewProbeRunner(timeout time.Duration, checks ...Check) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{checks: checks, timeout: timeout}
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []Result) {
	ready := true
	results := make([]Result, 0, len(p.checks))
	for _, check := range p.checks {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := check.Probe(cctx)
		cancel()
		res := Result{Name: check.Name, Status: "up"}
		if err != nil {
			ready = false
			res.Status = "down"
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return ready, results
}

func DatabaseCheck(db *gorm.DB) Check {
	return Check{
		Name: "postgres",
		Probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

func RedisCheck(client redis.UniversalClient) Check {
	return Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
