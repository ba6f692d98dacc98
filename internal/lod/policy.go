// Package lod picks a mesh detail level from chunk distance.
package lod

import (
	"github.com/MasterKyle08/CodexCraft/internal/config"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// Count is the number of detail levels; level 0 is full resolution.
const Count = world.LODCount

// Policy holds Chebyshev chunk distance thresholds.
type Policy struct {
	LOD0 int
	LOD1 int
}

func FromConfig(cfg config.LODConfig) Policy {
	return Policy{LOD0: cfg.LOD0, LOD1: cfg.LOD1}
}

// Select returns 0 up to LOD0, 1 up to LOD1 and 2 beyond.
func (p Policy) Select(distance int) uint8 {
	switch {
	case distance <= p.LOD0:
		return 0
	case distance <= p.LOD1:
		return 1
	default:
		return 2
	}
}

// Step is the block stride sampled at a level.
func Step(level uint8) int {
	return 1 << level
}
