package compiler

import (
	"context"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	"git.home.luguber.info/inful/akini/internal/home"
)

// FullBuild walks the whole pages tree in building mode, handing every page
// definition to spawn. It does not wait for the spawned builds.
func FullBuild(ctx context.Context, h home.Home, spawn aggregate.SpawnFunc) error {
	agg := &aggregate.Aggregator{Building: true, Spawn: spawn}
	_, err := agg.Walk(ctx, h.Pages(), aggregate.Buffers{})
	return err
}
