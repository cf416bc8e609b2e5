// Package mapper converts seam-corrected geometry into H3 cells.
package mapper

import (
	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
)

// Interface covers geometry already split at the antimeridian, so every
// member polygon lies within [-180, 180].
type Interface interface {
	CellsForBBox(bb model.BBox, res int) (model.Cells, error)
	CellsForPolygonal(p geom.Polygonal, res int) (model.Cells, error)
	Coarsen(cells model.Cells, res int) (model.Cells, error)
}
