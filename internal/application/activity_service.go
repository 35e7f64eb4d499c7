package application

import (
	"context"
	"fmt"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

const (
	// DefaultNearbyRadiusMeters 周辺検索のデフォルト半径
	DefaultNearbyRadiusMeters = 1000
	// MaxNearbyRadiusMeters 周辺検索の最大半径
	MaxNearbyRadiusMeters = 50000
	// DefaultListLimit 一覧のデフォルト件数
	DefaultListLimit = 20
	// MaxListLimit 一覧の最大件数
	MaxListLimit = 200
)

// ActivityDetail アクティビティと翻訳の組
type ActivityDetail struct {
	Activity     *model.Entity       `json:"activity"`
	Translations []model.Translation `json:"translations"`
}

// ActivityService 取り込んだアクティビティの参照系
type ActivityService interface {
	// FindNearby 中心から半径内のアクティビティを距離順に取得
	FindNearby(ctx context.Context, location model.LatLng, radiusMeters float64, limit int) ([]model.NearbyActivity, error)

	// GetWithTranslations アクティビティと全言語の翻訳を取得
	GetWithTranslations(ctx context.Context, id string) (*ActivityDetail, error)

	// ListImportedCells 取り込み済みのセルを新しい順に取得
	ListImportedCells(ctx context.Context, resource string, limit int) ([]model.ImportLedgerEntry, error)
}

// activityServiceImpl ActivityServiceの実装
type activityServiceImpl struct {
	entities     repository.EntityRepository
	translations repository.TranslationRepository
	ledger       repository.ImportLedgerRepository
}

// NewActivityService ActivityServiceの新しいインスタンスを作成
func NewActivityService(
	entities repository.EntityRepository,
	translations repository.TranslationRepository,
	ledger repository.ImportLedgerRepository,
) ActivityService {
	return &activityServiceImpl{
		entities:     entities,
		translations: translations,
		ledger:       ledger,
	}
}

func (s *activityServiceImpl) FindNearby(ctx context.Context, location model.LatLng, radiusMeters float64, limit int) ([]model.NearbyActivity, error) {
	if location.Lat < -90 || location.Lat > 90 || location.Lng < -180 || location.Lng > 180 {
		return nil, fmt.Errorf("座標が範囲外です: %v,%v", location.Lat, location.Lng)
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}
	if radiusMeters > MaxNearbyRadiusMeters {
		radiusMeters = MaxNearbyRadiusMeters
	}

	activities, err := s.entities.FindNearby(ctx, location, radiusMeters, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("周辺アクティビティの取得に失敗: %w", err)
	}
	if activities == nil {
		activities = []model.NearbyActivity{}
	}
	return activities, nil
}

func (s *activityServiceImpl) GetWithTranslations(ctx context.Context, id string) (*ActivityDetail, error) {
	entity, err := s.entities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	translations, err := s.translations.ListByEntity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("翻訳の取得に失敗: %w", err)
	}
	if translations == nil {
		translations = []model.Translation{}
	}
	return &ActivityDetail{Activity: entity, Translations: translations}, nil
}

func (s *activityServiceImpl) ListImportedCells(ctx context.Context, resource string, limit int) ([]model.ImportLedgerEntry, error) {
	if resource == "" {
		resource = model.ResourceOpenStreetMap
	}
	entries, err := s.ledger.List(ctx, resource, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("インポート台帳の取得に失敗: %w", err)
	}
	if entries == nil {
		entries = []model.ImportLedgerEntry{}
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
