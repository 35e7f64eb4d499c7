package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/domain/model"
)

func TestGridTiler_SingleCell(t *testing.T) {
	box := model.BoundingBox{MinLat: 48.14, MaxLat: 48.24, MinLon: 11.54, MaxLon: 11.64}
	tiler, err := NewGridTiler(box, 0.1, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	cells := tiler.All()
	require.Len(t, cells, 1)
	assert.Equal(t, model.GridCell{MinLat: 48.14, MaxLat: 48.24, MinLon: 11.54, MaxLon: 11.64}, cells[0])
	assert.Equal(t, 1, tiler.Count())
}

func TestGridTiler_RowMajorOrder(t *testing.T) {
	box := model.BoundingBox{MinLat: 48.0, MaxLat: 48.1, MinLon: 11.0, MaxLon: 11.2}
	tiler, err := NewGridTiler(box, 0.05, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	cells := tiler.All()
	expected := []model.GridCell{
		{MinLat: 48.0, MaxLat: 48.05, MinLon: 11.0, MaxLon: 11.1},
		{MinLat: 48.0, MaxLat: 48.05, MinLon: 11.1, MaxLon: 11.2},
		{MinLat: 48.05, MaxLat: 48.1, MinLon: 11.0, MaxLon: 11.1},
		{MinLat: 48.05, MaxLat: 48.1, MinLon: 11.1, MaxLon: 11.2},
	}
	assert.Equal(t, expected, cells)
}

func TestGridTiler_TrailingCellClipped(t *testing.T) {
	box := model.BoundingBox{MinLat: 10.0, MaxLat: 10.12, MinLon: 20.0, MaxLon: 20.1}
	tiler, err := NewGridTiler(box, 0.05, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	cells := tiler.All()
	require.Len(t, cells, 3)
	last := cells[len(cells)-1]
	assert.Equal(t, 10.1, last.MinLat)
	assert.Equal(t, 10.12, last.MaxLat)
}

func TestGridTiler_CoversBoxWithinBounds(t *testing.T) {
	box := model.BoundingBox{MinLat: 52.1, MaxLat: 52.37, MinLon: 20.85, MaxLon: 21.27}
	tiler, err := NewGridTiler(box, 0.05, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	cells := tiler.All()
	assert.Equal(t, tiler.Count(), len(cells))

	var area float64
	seen := map[string]bool{}
	for _, c := range cells {
		assert.Less(t, c.MinLat, c.MaxLat)
		assert.Less(t, c.MinLon, c.MaxLon)
		assert.GreaterOrEqual(t, c.MinLat, box.MinLat)
		assert.LessOrEqual(t, c.MaxLat, box.MaxLat)
		assert.GreaterOrEqual(t, c.MinLon, box.MinLon)
		assert.LessOrEqual(t, c.MaxLon, box.MaxLon)
		assert.False(t, seen[c.Key()], "duplicate cell %s", c.Key())
		seen[c.Key()] = true
		area += (c.MaxLat - c.MinLat) * (c.MaxLon - c.MinLon)
	}
	// セルの面積の合計がボックスの面積と一致すれば隙間も重なりもない
	assert.InDelta(t, (box.MaxLat-box.MinLat)*(box.MaxLon-box.MinLon), area, 1e-9)
}

func TestGridTiler_NoSliverCell(t *testing.T) {
	// 浮動小数点の誤差で端切れが生まれないこと
	box := model.BoundingBox{MinLat: 0.1, MaxLat: 0.3, MinLon: 0.0, MaxLon: 0.1}
	tiler, err := NewGridTiler(box, 0.1, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	cells := tiler.All()
	require.Len(t, cells, 2)
	assert.Equal(t, 0.3, cells[1].MaxLat)
}

func TestGridTiler_IteratorIsRestartable(t *testing.T) {
	box := model.BoundingBox{MinLat: 48.0, MaxLat: 48.2, MinLon: 11.0, MaxLon: 11.2}
	tiler, err := NewGridTiler(box, 0.05, 0.1, model.DefaultGridPrecision)
	require.NoError(t, err)

	it := tiler.Cells()
	first, ok := it.Next()
	require.True(t, ok)
	count := 1
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		count++
	}
	assert.Equal(t, tiler.Count(), count)

	_, ok = it.Next()
	assert.False(t, ok)

	it.Reset()
	again, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)
}

func TestNewGridTiler_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		box     model.BoundingBox
		stepLat float64
		stepLon float64
	}{
		{"min_latがmax_lat以上", model.BoundingBox{MinLat: 1, MaxLat: 1, MinLon: 0, MaxLon: 1}, 0.1, 0.1},
		{"経度が範囲外", model.BoundingBox{MinLat: 0, MaxLat: 1, MinLon: -181, MaxLon: 1}, 0.1, 0.1},
		{"ステップが0", model.BoundingBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}, 0, 0.1},
		{"ステップが負", model.BoundingBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}, 0.1, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridTiler(tt.box, tt.stepLat, tt.stepLon, model.DefaultGridPrecision)
			assert.Error(t, err)
		})
	}
}

func TestNewGridTiler_StepFinerThanPrecision(t *testing.T) {
	box := model.BoundingBox{MinLat: 48.0, MaxLat: 48.2, MinLon: 11.0, MaxLon: 11.1}

	// 丸め単位0.1に対して0.05刻みでは48.1:48.1のようなセルができる
	_, err := NewGridTiler(box, 0.05, 0.1, 1)
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewGridTiler(box, 0.1, 0.05, 1)
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))

	// 丸め単位ちょうどのステップは許可され、全セルが高さを持つ
	tiler, err := NewGridTiler(box, 0.1, 0.1, 1)
	require.NoError(t, err)
	cells := tiler.All()
	require.Len(t, cells, 2)
	for _, c := range cells {
		assert.Less(t, c.MinLat, c.MaxLat, c.Key())
		assert.Less(t, c.MinLon, c.MaxLon, c.Key())
	}
	assert.Equal(t, "48.1:48.2:11:11.1", cells[1].Key())
}
