package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

const (
	// DefaultAuditBatchSize 1トランザクションで扱うエンティティ数
	DefaultAuditBatchSize = 100
	// DefaultAuditConcurrency 同時に行う画像チェック数
	DefaultAuditConcurrency = 10
)

// ReachabilityChecker 画像1件の到達性チェック
type ReachabilityChecker interface {
	IsReachable(ctx context.Context, imageURL string) bool
}

// MaintenanceService は移行後のデータ整備（画像監査と重複削除）を行う
type MaintenanceService struct {
	entities    repository.EntityRepository
	images      ReachabilityChecker
	batchSize   int
	concurrency int
	log         *logger.Logger
}

// NewMaintenanceService は新しいMaintenanceServiceを生成する
func NewMaintenanceService(entities repository.EntityRepository, images ReachabilityChecker, batchSize, concurrency int, log *logger.Logger) *MaintenanceService {
	if batchSize <= 0 {
		batchSize = DefaultAuditBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultAuditConcurrency
	}
	return &MaintenanceService{
		entities:    entities,
		images:      images,
		batchSize:   batchSize,
		concurrency: concurrency,
		log:         log,
	}
}

// AuditImages は到達できない画像をリストから外し、画像がなくなったエンティティを削除する
// バッチごとに1トランザクションで反映する。再実行しても結果は変わらない
func (s *MaintenanceService) AuditImages(ctx context.Context, provenance string) (model.AuditReport, error) {
	report := model.AuditReport{Provenance: provenance}
	s.log.Info("🚀 画像の監査を開始します", "provenance", provenance)

	afterID := ""
	for {
		batch, err := s.entities.FindByProvenance(ctx, provenance, afterID, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("エンティティの取得に失敗: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		// 1. バッチ内の画像を並行チェック
		reachable, err := s.checkImages(ctx, batch)
		if err != nil {
			return report, err
		}
		report.EntitiesChecked += len(batch)
		report.ImagesChecked += len(reachable)

		// 2. 変化のあったエンティティだけ更新
		var updates []model.ImageAuditUpdate
		for _, e := range batch {
			kept := make([]string, 0, len(e.Images))
			for _, u := range e.Images {
				if reachable[u] {
					kept = append(kept, u)
				}
			}
			if len(kept) == len(e.Images) {
				continue
			}
			report.ImagesDropped += len(e.Images) - len(kept)
			updates = append(updates, model.ImageAuditUpdate{EntityID: e.ID, Images: kept})
		}

		// 3. 1トランザクションで反映
		result, err := s.entities.ApplyImageAudit(ctx, updates)
		if err != nil {
			return report, err
		}
		report.EntitiesUpdated += result.Updated
		report.EntitiesDeleted += result.Deleted
		metrics.AuditDeletionsTotal.WithLabelValues("unreachable_images").Add(float64(result.Deleted))

		if len(batch) < s.batchSize {
			break
		}
	}

	s.log.Info("✅ 画像の監査が完了しました",
		"provenance", provenance,
		"entities_checked", report.EntitiesChecked,
		"images_dropped", report.ImagesDropped,
		"entities_updated", report.EntitiesUpdated,
		"entities_deleted", report.EntitiesDeleted,
	)
	return report, nil
}

// checkImages はバッチ内のユニークな画像URLの到達性を返す
// キャンセルされた場合は結果を使わずエラーを返す
func (s *MaintenanceService) checkImages(ctx context.Context, batch []model.Entity) (map[string]bool, error) {
	var urls []string
	seen := map[string]bool{}
	for _, e := range batch {
		for _, u := range e.Images {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}

	reachable := make(map[string]bool, len(urls))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			ok := s.images.IsReachable(gctx, u)
			mu.Lock()
			reachable[u] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("画像チェックが中断されました: %w", err)
	}
	return reachable, nil
}

// PurgeDuplicates は (name, images, description, destination_resource) が同じエンティティのうち
// 最も古いもの（created_at, id順）だけを残して削除する
func (s *MaintenanceService) PurgeDuplicates(ctx context.Context, provenance string) (int, error) {
	type keeper struct {
		id        string
		createdAt time.Time
	}

	s.log.Info("🚀 重複エンティティの削除を開始します", "provenance", provenance)

	keepers := map[string]keeper{}
	var duplicates []string
	afterID := ""
	for {
		batch, err := s.entities.FindByProvenance(ctx, provenance, afterID, s.batchSize)
		if err != nil {
			return 0, fmt.Errorf("エンティティの取得に失敗: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		for _, e := range batch {
			key := contentKey(&e)
			current, ok := keepers[key]
			if !ok {
				keepers[key] = keeper{id: e.ID, createdAt: e.CreatedAt}
				continue
			}
			if e.CreatedAt.Before(current.createdAt) || (e.CreatedAt.Equal(current.createdAt) && e.ID < current.id) {
				duplicates = append(duplicates, current.id)
				keepers[key] = keeper{id: e.ID, createdAt: e.CreatedAt}
			} else {
				duplicates = append(duplicates, e.ID)
			}
		}

		if len(batch) < s.batchSize {
			break
		}
	}

	if len(duplicates) == 0 {
		s.log.Info("✅ 重複エンティティはありません", "provenance", provenance)
		return 0, nil
	}

	deleted, err := s.entities.DeleteByIDs(ctx, duplicates)
	if err != nil {
		return 0, err
	}
	metrics.AuditDeletionsTotal.WithLabelValues("duplicate").Add(float64(deleted))
	s.log.Info("✅ 重複エンティティを削除しました", "provenance", provenance, "deleted", deleted)
	return deleted, nil
}

// contentKey 重複判定に使う内容キー
func contentKey(e *model.Entity) string {
	return strings.Join([]string{
		e.DestinationResource,
		e.Name,
		e.Description,
		strings.Join(e.Images, "\x1f"),
	}, "\x1e")
}
