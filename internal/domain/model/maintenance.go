package model

// ImageAuditUpdate 画像監査で決まったEntityごとの新しい画像リスト
// Imagesが空ならEntityは削除される
type ImageAuditUpdate struct {
	EntityID string
	Images   []string
}

// ImageAuditResult ApplyImageAuditの結果
type ImageAuditResult struct {
	Updated int
	Deleted int
}

// AuditReport 画像監査全体の集計
type AuditReport struct {
	Provenance      string `json:"provenance"`
	EntitiesChecked int    `json:"entities_checked"`
	ImagesChecked   int    `json:"images_checked"`
	ImagesDropped   int    `json:"images_dropped"`
	EntitiesUpdated int    `json:"entities_updated"`
	EntitiesDeleted int    `json:"entities_deleted"`
}

// MigrationSummary 1回の移行処理の集計
type MigrationSummary struct {
	Service        string `json:"service"`
	CellsTotal     int    `json:"cells_total"`
	CellsProcessed int    `json:"cells_processed"`
	CellsSkipped   int    `json:"cells_skipped"`
	PlacesFound    int    `json:"places_found"`
	PlacesStored   int    `json:"places_stored"`
	PlacesRejected int    `json:"places_rejected"`
	PlacesFailed   int    `json:"places_failed"`
}
