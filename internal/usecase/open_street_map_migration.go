package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"Travel-App/internal/config"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/service"
	"Travel-App/internal/infrastructure/httpclient"
	"Travel-App/internal/infrastructure/imagecheck"
	"Travel-App/internal/infrastructure/opentripmap"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

// OpenStreetMapMigrationService OpenTripMap APIからスポットを取り込む
type OpenStreetMapMigrationService struct {
	deps        Deps
	fetcher     *service.PlaceFetcher
	normalizer  *service.PlaceNormalizer
	maintenance *service.MaintenanceService
	log         *logger.Logger

	// storeMu 重複チェックから保存までを1件ずつ行う
	storeMu sync.Mutex
}

// NewOpenStreetMapMigrationService は新しいOpenStreetMapMigrationServiceを生成する
func NewOpenStreetMapMigrationService(ctx context.Context, deps Deps) (MigrationService, error) {
	if deps.Settings == nil {
		return nil, &model.ConfigurationError{Reason: "設定が読み込まれていません"}
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("service", model.ResourceOpenStreetMap)

	// 1. 上流APIクライアント
	source := deps.PlaceSource
	if source == nil {
		geo, err := resolveGeoAPISettings(ctx, deps)
		if err != nil {
			return nil, err
		}
		httpClient := httpclient.New(httpclient.Config{
			ServiceName:   "opentripmap",
			BaseURL:       geo.BaseURL,
			RatePerSecond: geo.RatePerSecond,
			Burst:         1,
			Timeout:       geo.Timeout,
		}, log)
		otmConfig := opentripmap.DefaultConfig()
		otmConfig.APIKey = geo.APIKey
		otmConfig.MinRate = geo.MinRate
		if geo.Kinds != "" {
			otmConfig.Kinds = geo.Kinds
		}
		source = opentripmap.NewClient(httpClient, otmConfig, log)
	}

	// 2. 画像チェック
	images := deps.Images
	if images == nil {
		imageClient := httpclient.New(httpclient.Config{
			ServiceName: "image-check",
			Timeout:     deps.Settings.ImageCheck.Timeout,
		}, log)
		images = imagecheck.NewChecker(imageClient, deps.Settings.ImageCheck.Attempts, deps.Settings.ImageCheck.CacheTTL, log)
	}

	normalizer, err := service.NewPlaceNormalizer(images, deps.Entities, deps.Detector, model.ResourceOpenStreetMap)
	if err != nil {
		return nil, err
	}

	return &OpenStreetMapMigrationService{
		deps:        deps,
		fetcher:     service.NewPlaceFetcher(source, deps.Settings.GeoAPI.Concurrency, log),
		normalizer:  normalizer,
		maintenance: service.NewMaintenanceService(deps.Entities, images, service.DefaultAuditBatchSize, service.DefaultAuditConcurrency, log),
		log:         log,
	}, nil
}

// resolveGeoAPISettings は移行元リソースの接続情報を優先し、空の項目を環境変数の設定で補う
func resolveGeoAPISettings(ctx context.Context, deps Deps) (config.GeoAPISettings, error) {
	geo := deps.Settings.GeoAPI
	if deps.Resources != nil {
		resource, err := deps.Resources.GetByName(ctx, model.ResourceOpenStreetMap)
		if err != nil {
			return geo, err
		}
		if resource != nil {
			if resource.BaseURL != "" {
				geo.BaseURL = strings.TrimRight(resource.BaseURL, "/")
			}
			if key := resource.Credential("api_key"); key != "" {
				geo.APIKey = key
			}
		}
	}

	check := config.Settings{GeoAPI: geo}
	if err := check.RequireGeoAPI(); err != nil {
		return geo, err
	}
	return geo, nil
}

func (s *OpenStreetMapMigrationService) Name() string {
	return model.ResourceOpenStreetMap
}

func (s *OpenStreetMapMigrationService) RequiredArguments() []string {
	return []string{"min_lat", "max_lat", "min_lon", "max_lon"}
}

func (s *OpenStreetMapMigrationService) Actions() map[string]ActionFunc {
	return map[string]ActionFunc{
		model.ActionAuditImages: func(ctx context.Context) (interface{}, error) {
			return s.maintenance.AuditImages(ctx, s.Name())
		},
		model.ActionPurgeDuplicates: func(ctx context.Context) (interface{}, error) {
			deleted, err := s.maintenance.PurgeDuplicates(ctx, s.Name())
			return map[string]int{"deleted": deleted}, err
		},
	}
}

// Migrate はバウンディングボックスをセルに分割し、未処理のセルだけを取り込む
// 処理済みのセルは上流APIを呼ばずにスキップする
func (s *OpenStreetMapMigrationService) Migrate(ctx context.Context, args map[string]string) (model.MigrationSummary, error) {
	summary := model.MigrationSummary{Service: s.Name()}

	if err := ValidateArguments(s, args); err != nil {
		return summary, err
	}
	tiler, err := s.buildTiler(args)
	if err != nil {
		return summary, err
	}
	summary.CellsTotal = tiler.Count()

	// 翻訳は取り込みと並行して進め、最後に待つ
	fanout := s.newFanout()
	if fanout != nil {
		defer func() {
			result := fanout.Wait()
			s.log.Info("🌐 翻訳が完了しました",
				"entities", result.Entities,
				"translated", result.Translated,
				"skipped", result.Skipped,
				"already_translated", result.AlreadyTranslated,
				"failed", result.Failed,
			)
		}()
	}

	s.log.Info("🚀 データ移行を開始します", "cells", summary.CellsTotal)

	it := tiler.Cells()
	index := 0
	for cell, ok := it.Next(); ok; cell, ok = it.Next() {
		index++
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		processed, err := s.deps.Ledger.IsProcessed(ctx, s.Name(), cell)
		if err != nil {
			return summary, fmt.Errorf("インポート台帳の確認に失敗: %w", err)
		}
		if processed {
			summary.CellsSkipped++
			metrics.CellsTotal.WithLabelValues("skipped").Inc()
			s.log.Debug("⏭️ 処理済みのセルをスキップします", "cell", cell.Key(), "progress", fmt.Sprintf("%d/%d", index, summary.CellsTotal))
			continue
		}

		result, err := s.migrateCell(ctx, cell, fanout)
		summary.PlacesFound += result.found
		summary.PlacesStored += result.stored
		summary.PlacesRejected += result.rejected
		summary.PlacesFailed += result.failed
		if err != nil {
			metrics.CellsTotal.WithLabelValues("failed").Inc()
			if isCellLocalError(err) && ctx.Err() == nil {
				s.log.Warn("⚠️ セルの処理に失敗しました。次回の実行で再試行されます", "cell", cell.Key(), "error", err)
				continue
			}
			s.log.Error("❌ セルの処理を中断しました", "cell", cell.Key(), "error", err)
			return summary, err
		}

		summary.CellsProcessed++
		metrics.CellsTotal.WithLabelValues("processed").Inc()
		s.log.Info("✅ セルの処理が完了しました",
			"cell", cell.Key(),
			"progress", fmt.Sprintf("%d/%d", index, summary.CellsTotal),
			"found", result.found,
			"stored", result.stored,
		)
	}

	s.log.Info("🎉 データ移行が完了しました",
		"cells_processed", summary.CellsProcessed,
		"cells_skipped", summary.CellsSkipped,
		"places_found", summary.PlacesFound,
		"places_stored", summary.PlacesStored,
		"places_rejected", summary.PlacesRejected,
		"places_failed", summary.PlacesFailed,
	)
	return summary, nil
}

type cellResult struct {
	found    int
	stored   int
	rejected int
	failed   int
}

// migrateCell は1セルを取得・正規化・保存し、全て終わってから台帳に記録する
func (s *OpenStreetMapMigrationService) migrateCell(ctx context.Context, cell model.GridCell, fanout *service.TranslationFanout) (cellResult, error) {
	var result cellResult
	var stored, rejected atomic.Int64
	var mu sync.Mutex
	var entities []model.Entity

	stats, err := s.fetcher.FetchCell(ctx, cell, func(placeCtx context.Context, raw *model.RawPlace) error {
		saved, err := s.normalizeAndStore(placeCtx, raw)
		if err != nil {
			if model.IsRejection(err) {
				rejected.Add(1)
				metrics.PlacesTotal.WithLabelValues("rejected").Inc()
				s.log.Debug("スポットを除外しました", "xid", raw.XID, "reason", err)
				return nil
			}
			return err
		}
		stored.Add(1)
		metrics.PlacesTotal.WithLabelValues("stored").Inc()

		mu.Lock()
		entities = append(entities, *saved)
		mu.Unlock()

		// placeCtxはセル終了時にキャンセルされるため、翻訳には実行全体のctxを渡す
		if fanout != nil {
			fanout.Dispatch(ctx, *saved)
		}
		return nil
	})

	result.found = stats.PlacesFound
	result.failed = stats.PlacesFailed
	result.stored = int(stored.Load())
	result.rejected = int(rejected.Load())
	if err != nil {
		return result, err
	}

	// 全スポットの保存・除外が終わった後に台帳へ記録
	cellStats := model.CellStats{PlacesFound: result.found, PlacesStored: result.stored}
	if err := s.deps.Ledger.MarkProcessed(ctx, s.Name(), cell, cellStats); err != nil {
		return result, fmt.Errorf("インポート台帳への記録に失敗: %w", err)
	}

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Publish(ctx, s.Name(), cell, entities); err != nil {
			s.log.Warn("⚠️ セルのスナップショット公開に失敗しました", "cell", cell.Key(), "error", err)
		}
	}
	return result, nil
}

// normalizeAndStore は画像チェックまでを並行に行い、重複チェックと保存は直列化する
// 同じセルの並行ハンドラが同一内容のスポットを両方保存しないようにする
func (s *OpenStreetMapMigrationService) normalizeAndStore(ctx context.Context, raw *model.RawPlace) (*model.Entity, error) {
	entity, err := s.normalizer.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if err := s.normalizer.CheckDuplicate(ctx, entity); err != nil {
		return nil, err
	}
	saved, _, err := s.deps.Entities.Upsert(ctx, entity)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// isCellLocalError 上流の障害によるセル単位の失敗か（次のセルは続行する）
func isCellLocalError(err error) bool {
	if model.IsPersistenceError(err) {
		return false
	}
	return model.IsTransportError(err) || errors.Is(err, model.ErrCircuitOpen)
}

func (s *OpenStreetMapMigrationService) buildTiler(args map[string]string) (*service.GridTiler, error) {
	var box model.BoundingBox
	var err error
	if box.MinLat, err = parseFloatArg(args, "min_lat"); err != nil {
		return nil, err
	}
	if box.MaxLat, err = parseFloatArg(args, "max_lat"); err != nil {
		return nil, err
	}
	if box.MinLon, err = parseFloatArg(args, "min_lon"); err != nil {
		return nil, err
	}
	if box.MaxLon, err = parseFloatArg(args, "max_lon"); err != nil {
		return nil, err
	}

	grid := s.deps.Settings.Grid
	stepLat, err := optionalFloatArg(args, "step_lat", grid.StepLat)
	if err != nil {
		return nil, err
	}
	stepLon, err := optionalFloatArg(args, "step_lon", grid.StepLon)
	if err != nil {
		return nil, err
	}

	tiler, err := service.NewGridTiler(box, stepLat, stepLon, grid.Precision)
	if err != nil {
		if model.IsConfigurationError(err) {
			return nil, err
		}
		return nil, &model.ConfigurationError{Key: "bounding_box", Reason: err.Error()}
	}
	return tiler, nil
}

// newFanout は翻訳クライアントがあればTranslationFanoutを生成する
func (s *OpenStreetMapMigrationService) newFanout() *service.TranslationFanout {
	if s.deps.Translator == nil || s.deps.Translations == nil {
		s.log.Warn("⚠️ 翻訳クライアントが設定されていないため、翻訳をスキップします")
		return nil
	}
	fanout, err := service.NewTranslationFanout(
		s.deps.Translator,
		s.deps.Translations,
		s.deps.Settings.Translator.Languages,
		s.deps.Settings.Translator.Concurrency,
		s.log,
	)
	if err != nil {
		s.log.Warn("⚠️ 翻訳を無効にして続行します", "error", err)
		return nil
	}
	return fanout
}
