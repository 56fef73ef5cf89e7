// Package chart renders label/value series. A Renderer owns the lifecycle of
// whatever it draws: rendering to a target id that already holds a chart
// replaces that chart.
package chart

import (
	stderrors "errors"

	"github.com/nconklindev/stockboard/internal/types"
)

// EmptyMessage is shown in place of a chart with no data.
const EmptyMessage = "Data kosong atau belum dimuat"

type Renderer interface {
	Render(targetID string, kind types.ChartKind, s types.Series) error
}

// Fanout renders every chart with each of its renderers in turn.
type Fanout []Renderer

func (f Fanout) Render(targetID string, kind types.ChartKind, s types.Series) error {
	var errs []error
	for _, r := range f {
		if err := r.Render(targetID, kind, s); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
