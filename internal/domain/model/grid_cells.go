package model

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/paulmach/orb"
)

// DefaultGridPrecision グリッドセル境界の丸め桁数（小数点以下）
const DefaultGridPrecision = 6

// GridCell クロール対象となる緯度経度の矩形タイル
// 境界は生成時に丸められ、以後変更されない
type GridCell struct {
	MinLat float64 `json:"min_lat" firestore:"min_lat"`
	MaxLat float64 `json:"max_lat" firestore:"max_lat"`
	MinLon float64 `json:"min_lon" firestore:"min_lon"`
	MaxLon float64 `json:"max_lon" firestore:"max_lon"`
}

// NewGridCell 境界を丸めたGridCellを作成
func NewGridCell(minLat, maxLat, minLon, maxLon float64, precision int) GridCell {
	return GridCell{
		MinLat: RoundCoordinate(minLat, precision),
		MaxLat: RoundCoordinate(maxLat, precision),
		MinLon: RoundCoordinate(minLon, precision),
		MaxLon: RoundCoordinate(maxLon, precision),
	}
}

// Key セルの正規化された識別子（例: "48.14:48.24:11.54:11.64"）
func (c GridCell) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", formatCoord(c.MinLat), formatCoord(c.MaxLat), formatCoord(c.MinLon), formatCoord(c.MaxLon))
}

// String ログ出力用
func (c GridCell) String() string {
	return fmt.Sprintf("lat %s-%s, lon %s-%s", formatCoord(c.MinLat), formatCoord(c.MaxLat), formatCoord(c.MinLon), formatCoord(c.MaxLon))
}

// Bound orb.Bound に変換（X=経度, Y=緯度）
func (c GridCell) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.MinLon, c.MinLat},
		Max: orb.Point{c.MaxLon, c.MaxLat},
	}
}

// BoundingBox インポート対象の範囲
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Validate 範囲の妥当性チェック
func (b BoundingBox) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("緯度は-90〜90の範囲で指定してください: %v-%v", b.MinLat, b.MaxLat)
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("経度は-180〜180の範囲で指定してください: %v-%v", b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("min_lat(%v)はmax_lat(%v)より小さい必要があります", b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("min_lon(%v)はmax_lon(%v)より小さい必要があります", b.MinLon, b.MaxLon)
	}
	return nil
}

// Bound orb.Bound に変換
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// ImportLedgerEntry 処理済みグリッドセルの記録（存在＝完了）
type ImportLedgerEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Resource     string    `json:"resource" gorm:"size:64;not null;uniqueIndex:idx_import_ledger_cell"`
	MinLat       float64   `json:"min_lat" gorm:"not null;uniqueIndex:idx_import_ledger_cell"`
	MaxLat       float64   `json:"max_lat" gorm:"not null;uniqueIndex:idx_import_ledger_cell"`
	MinLon       float64   `json:"min_lon" gorm:"not null;uniqueIndex:idx_import_ledger_cell"`
	MaxLon       float64   `json:"max_lon" gorm:"not null;uniqueIndex:idx_import_ledger_cell"`
	PlacesFound  int       `json:"places_found"`
	PlacesStored int       `json:"places_stored"`
	ImportedAt   time.Time `json:"imported_at" gorm:"autoCreateTime"`
}

func (ImportLedgerEntry) TableName() string {
	return "import_ledger"
}

// Cell 記録に対応するGridCell
func (e *ImportLedgerEntry) Cell() GridCell {
	return GridCell{MinLat: e.MinLat, MaxLat: e.MaxLat, MinLon: e.MinLon, MaxLon: e.MaxLon}
}

// CellStats セル処理の集計値
type CellStats struct {
	PlacesFound  int
	PlacesStored int
}

// GridCellDocument Firestoreのグリッドセルドキュメント
type GridCellDocument struct {
	ID          string      `firestore:"id"`       // ドキュメントID（例: "open_street_map_48.14:48.24:11.54:11.64"）
	Resource    string      `firestore:"resource"` // 取得元
	Cell        GridCell    `firestore:"cell"`
	POIs        []POIObject `firestore:"pois"` // そのグリッド内のPOI配列
	PublishedAt time.Time   `firestore:"published_at"`
}

// RoundCoordinate 座標を指定桁数に丸める
func RoundCoordinate(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	p := math.Pow(10, float64(precision))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // -0を正規化
	}
	return r
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
