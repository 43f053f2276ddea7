// Package build implements C9: compose the slicer (C3), the temporary
// artifact handle (C1), and a device driver's Build into the single
// design -> print-started pipeline, with guaranteed artifact cleanup.
package build

import (
	"context"
	"fmt"

	"github.com/kittycad/machine-api/internal/artifact"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/slicer"
)

// Pipeline composes a Slicer with whatever device driver ultimately
// receives the sliced artifact.
type Pipeline struct {
	Slicer slicer.Slicer
}

// New constructs a Pipeline over s.
func New(s slicer.Slicer) *Pipeline {
	return &Pipeline{Slicer: s}
}

// Run slices designPath against hw, wraps the result as a temporary
// artifact, and hands it to driver.Build under jobName. The artifact's
// backing file is unlinked once the driver has accepted the job, whether
// or not that acceptance succeeded.
func (p *Pipeline) Run(ctx context.Context, driver control.Control, jobName, designPath string, hw control.HardwareConfiguration) error {
	outputPath, err := p.Slicer.Generate(ctx, designPath, hw)
	if err != nil {
		return fmt.Errorf("slice %s: %w", designPath, err)
	}

	art, err := artifact.Open(outputPath)
	if err != nil {
		return err
	}
	defer art.Close()

	if err := driver.Build(ctx, jobName, art); err != nil {
		return fmt.Errorf("hand off build %s: %w", jobName, err)
	}
	return nil
}
