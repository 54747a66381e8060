package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/internal/domain/types"
	"github.com/okian/heatcheck/pkg/logger"
)

// Run computes one assessment and renders it to out. With cfg.URL set the
// server does the work; otherwise the engine runs in-process.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	in, err := cfg.Input()
	if err != nil {
		return err
	}
	log := logger.Get().Named("assess")

	var res Result
	if cfg.URL != "" {
		log.Debug(ctx, "posting assessment", logger.String("url", cfg.URL))
		res, err = newHTTPClient(cfg.URL, cfg.Timeout).Assess(ctx, in, cfg.SubmissionID)
	} else {
		res, err = assessLocal(cfg, in)
	}
	if err != nil {
		return err
	}
	log.Debug(ctx, "assessment complete", logger.Int("rows", len(res.Results)))

	return Render(out, cfg.Format, res)
}

func assessLocal(cfg Config, in model.EnvironmentInput) (Result, error) {
	loc, err := clock.LoadZone(cfg.Timezone)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	opts := []heat.Option{heat.WithLocation(loc)}
	if cfg.Clock != nil {
		opts = append(opts, heat.WithClock(cfg.Clock))
	}

	rows := types.FromResults(heat.New(archetype.Default(), opts...).Assess(in))
	warnings := types.Warnings(rows)
	if warnings == nil {
		warnings = []string{}
	}
	return Result{Results: rows, Warnings: warnings}, nil
}
