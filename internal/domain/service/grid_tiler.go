package service

import (
	"fmt"
	"math"

	"Travel-App/internal/domain/model"
)

// GridTiler はバウンディングボックスを固定サイズのセルに分割する
// 末尾のセルはボックスで切り詰められるため、面積は一定とは限らない
type GridTiler struct {
	box       model.BoundingBox
	stepLat   float64
	stepLon   float64
	precision int
	rows      int
	cols      int
}

// NewGridTiler は新しいGridTilerを生成する
func NewGridTiler(box model.BoundingBox, stepLat, stepLon float64, precision int) (*GridTiler, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if stepLat <= 0 || stepLon <= 0 {
		return nil, fmt.Errorf("ステップは正の値である必要があります: lat=%v, lon=%v", stepLat, stepLon)
	}
	// 丸め単位より細かいステップでは境界が丸めで重なり、高さ0のセルができる
	if unit := roundingUnit(precision); stepLat < unit-1e-12 || stepLon < unit-1e-12 {
		return nil, &model.ConfigurationError{
			Key:    "grid_step",
			Reason: fmt.Sprintf("ステップは丸め単位 %v 以上である必要があります: lat=%v, lon=%v, precision=%d", unit, stepLat, stepLon, precision),
		}
	}

	t := &GridTiler{
		box:       box,
		stepLat:   stepLat,
		stepLon:   stepLon,
		precision: precision,
	}
	t.rows = t.spanCount(box.MinLat, box.MaxLat, stepLat)
	t.cols = t.spanCount(box.MinLon, box.MaxLon, stepLon)
	return t, nil
}

// Count はセル数を返す（セルは生成しない）
func (t *GridTiler) Count() int {
	return t.rows * t.cols
}

// Cells は行優先（緯度が外側、経度が内側）のイテレータを返す
func (t *GridTiler) Cells() *CellIterator {
	return &CellIterator{tiler: t}
}

// All は全セルをスライスで返す
func (t *GridTiler) All() []model.GridCell {
	cells := make([]model.GridCell, 0, t.Count())
	it := t.Cells()
	for cell, ok := it.Next(); ok; cell, ok = it.Next() {
		cells = append(cells, cell)
	}
	return cells
}

// cellAt はrow, col番目のセルを計算する。誤差が積み重ならないよう毎回最小値から求める
func (t *GridTiler) cellAt(row, col int) model.GridCell {
	minLat := t.round(t.box.MinLat + float64(row)*t.stepLat)
	maxLat := math.Min(t.round(t.box.MinLat+float64(row+1)*t.stepLat), t.round(t.box.MaxLat))
	minLon := t.round(t.box.MinLon + float64(col)*t.stepLon)
	maxLon := math.Min(t.round(t.box.MinLon+float64(col+1)*t.stepLon), t.round(t.box.MaxLon))
	return model.NewGridCell(minLat, maxLat, minLon, maxLon, t.precision)
}

// spanCount は[min, max)をstep刻みで覆うのに必要なセル数
// 丸め単位の半分未満の端切れはセルにしない
func (t *GridTiler) spanCount(min, max, step float64) int {
	end := t.round(max) - t.tolerance()
	n := 0
	for t.round(min+float64(n)*step) < end {
		n++
	}
	return n
}

func (t *GridTiler) round(v float64) float64 {
	return model.RoundCoordinate(v, t.precision)
}

func (t *GridTiler) tolerance() float64 {
	if t.precision < 0 {
		return 1e-9
	}
	return 0.5 * roundingUnit(t.precision)
}

// roundingUnit は座標の丸め単位。負の精度は丸めなし
func roundingUnit(precision int) float64 {
	if precision < 0 {
		return 0
	}
	return math.Pow(10, -float64(precision))
}

// CellIterator はセルを遅延生成する。Resetで最初からやり直せる
type CellIterator struct {
	tiler *GridTiler
	index int
}

// Next は次のセルを返す。終端ではfalse
func (it *CellIterator) Next() (model.GridCell, bool) {
	if it.index >= it.tiler.Count() {
		return model.GridCell{}, false
	}
	row := it.index / it.tiler.cols
	col := it.index % it.tiler.cols
	it.index++
	return it.tiler.cellAt(row, col), true
}

// Reset は先頭に戻す
func (it *CellIterator) Reset() {
	it.index = 0
}
