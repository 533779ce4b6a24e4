package emissions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/factors"
	"github.com/lastlap/shipment-carbon/model/insight"
)

type PipelineOption func(p *Pipeline)

// WithSweepLimit bounds the number of preset runs queued during CompareAll.
// Runs share the registry and execute one at a time; only summarizing a
// finished run overlaps with the next one.
func WithSweepLimit(limit int) PipelineOption {
	return func(p *Pipeline) {
		p.sweepLimit = limit
	}
}

// Pipeline computes whole shipment tables against a factor registry.
type Pipeline struct {
	registry   *factors.Registry
	sweepLimit int
}

func NewPipeline(registry *factors.Registry, opts ...PipelineOption) *Pipeline {
	pipeline := &Pipeline{
		registry:   registry,
		sweepLimit: 4,
	}

	for _, option := range opts {
		option(pipeline)
	}

	return pipeline
}

// ListPresets returns the names of the presets Run accepts.
func (p *Pipeline) ListPresets() []string {
	return p.registry.Presets()
}

// Run computes every record of table. When preset is not empty, the preset
// material factors are used for the duration of the run only: the registry
// is restored before Run returns, on success as on failure.
func (p *Pipeline) Run(table []shipmentcarbon.ShipmentRecord, preset string) (*shipmentcarbon.Results, error) {
	start := time.Now()
	results := &shipmentcarbon.Results{
		Preset:  preset,
		Records: make([]shipmentcarbon.ComputedRecord, 0, len(table)),
	}

	err := p.registry.WithPreset(preset, func(f factors.Factors) error {
		for _, record := range table {
			results.Records = append(results.Records, Allocate(record, f))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("shipment table computed",
		"preset", preset,
		"records", len(results.Records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// CompareAll runs table once per known preset and returns the scope totals
// of each run, in preset order.
func (p *Pipeline) CompareAll(ctx context.Context, table []shipmentcarbon.ShipmentRecord) ([]shipmentcarbon.Sensitivity, error) {
	presets := p.ListPresets()
	sweep := make([]shipmentcarbon.Sensitivity, len(presets))

	errg, errgctx := errgroup.WithContext(ctx)
	if p.sweepLimit > 0 {
		errg.SetLimit(p.sweepLimit)
	}

	for i, preset := range presets {
		errg.Go(func() error {
			if err := errgctx.Err(); err != nil {
				return err
			}

			results, err := p.Run(table, preset)
			if err != nil {
				return fmt.Errorf("failed to run preset %s: %w", preset, err)
			}

			totals, err := insight.ByScope(results)
			if err != nil {
				return fmt.Errorf("failed to summarize preset %s: %w", preset, err)
			}

			sweep[i] = shipmentcarbon.Sensitivity{Preset: preset, ScopeTotals: totals}
			return nil
		})
	}

	if err := errg.Wait(); err != nil {
		return nil, err
	}

	return sweep, nil
}
