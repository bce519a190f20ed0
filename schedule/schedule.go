// Package schedule decides which positions in a batch are multimodal and
// which catalog images each multimodal position draws.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidRatio indicates a multimodal ratio outside [0.0, 1.0]
var ErrInvalidRatio = errors.New("multimodal ratio must be between 0.0 and 1.0")

// Slot describes one request position in the batch
type Slot struct {
	Index      int
	Multimodal bool
	// Images holds catalog indices for multimodal slots, drawn uniformly
	// with replacement. Nil for text-only slots.
	Images []int
}

// Plan is the full decision record for one run. Given the same inputs
// and the same random source, Build returns an identical plan, so a plan
// plus a corpus fully determines the batch.
type Plan struct {
	Slots           []Slot
	MultimodalCount int
	ImagesPerSlot   int
	CatalogSize     int
}

// Build computes the plan for a run of total requests.
//
// The multimodal count is round(total × ratio) with ties rounding up.
// Those slots are spread evenly across the batch: position i (1-based)
// is multimodal exactly when i·M/total crosses an integer boundary,
// which places the M slots without clustering at either end. Each
// multimodal slot then draws imagesPerSlot catalog indices from rng.
func Build(total int, ratio float64, imagesPerSlot, catalogSize int, rng *rand.Rand) (*Plan, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidRatio, ratio)
	}
	if total < 1 {
		return nil, fmt.Errorf("total requests must be at least 1, got %d", total)
	}

	count := roundHalfUp(float64(total) * ratio)
	if count > 0 {
		if imagesPerSlot < 1 {
			return nil, fmt.Errorf("multimodal slots need at least 1 image, got %d", imagesPerSlot)
		}
		if catalogSize < 1 {
			return nil, fmt.Errorf("%d multimodal slots require a non-empty image catalog", count)
		}
		if rng == nil {
			return nil, fmt.Errorf("image sampling requires a random source")
		}
	}

	plan := &Plan{
		Slots:           make([]Slot, total),
		MultimodalCount: count,
		ImagesPerSlot:   imagesPerSlot,
		CatalogSize:     catalogSize,
	}

	for i := 1; i <= total; i++ {
		slot := Slot{Index: i - 1}
		// Integer arithmetic: multimodal where the running quota
		// floor(i*count/total) steps up.
		if (i*count)/total > ((i-1)*count)/total {
			slot.Multimodal = true
			slot.Images = make([]int, imagesPerSlot)
			for j := range slot.Images {
				slot.Images[j] = rng.Intn(catalogSize)
			}
		}
		plan.Slots[i-1] = slot
	}

	return plan, nil
}

// roundHalfUp rounds to the nearest integer with .5 going up
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// MultimodalIndexes returns the positions of multimodal slots in order
func (p *Plan) MultimodalIndexes() []int {
	var indexes []int
	for _, slot := range p.Slots {
		if slot.Multimodal {
			indexes = append(indexes, slot.Index)
		}
	}
	return indexes
}

// TextCount returns the number of text-only slots
func (p *Plan) TextCount() int {
	return len(p.Slots) - p.MultimodalCount
}
