package h3mapper

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
)

func (m *Mapper) ToParent(cell string, parentRes int) (string, error) {
	if err := validateRes(parentRes); err != nil {
		return "", err
	}
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return "", fmt.Errorf("parse cell: %w", err)
	}

	if !c.IsValid() {
		return "", fmt.Errorf("invalid h3 cell %q", cell)
	}
	curRes := c.Resolution()
	if parentRes > curRes {
		return "", fmt.Errorf("parentRes %d must be <= cell resolution %d", parentRes, curRes)
	}
	if parentRes == curRes {
		return cell, nil
	}

	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// Coarsen replaces every cell by its parent at res. The result is sorted and
// unique.
func (m *Mapper) Coarsen(cells model.Cells, res int) (model.Cells, error) {
	out := make(model.Cells, 0, len(cells))
	for _, c := range cells {
		p, err := m.ToParent(c, res)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return merge(nil, out), nil
}
