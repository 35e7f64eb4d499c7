package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

// DefaultFetchConcurrency 詳細取得の同時実行数
const DefaultFetchConcurrency = 5

// PlaceSource 上流ジオAPI
type PlaceSource interface {
	ListPlaceIDs(ctx context.Context, cell model.GridCell) ([]string, error)
	PlaceDetail(ctx context.Context, xid string) (*model.RawPlace, error)
}

// PlaceHandler 取得したスポットごとに呼ばれる。エラーを返すとセル処理が中断される
type PlaceHandler func(ctx context.Context, raw *model.RawPlace) error

// CellFetchStats 1セル分の取得結果
type CellFetchStats struct {
	PlacesFound   int
	PlacesFetched int
	PlacesFailed  int
}

// PlaceFetcher はセル内のスポット一覧と詳細を取得する
type PlaceFetcher struct {
	source      PlaceSource
	concurrency int64 // 同時実行数を制限
	log         *logger.Logger
}

// NewPlaceFetcher は新しいPlaceFetcherを生成する
func NewPlaceFetcher(source PlaceSource, concurrency int, log *logger.Logger) *PlaceFetcher {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	return &PlaceFetcher{
		source:      source,
		concurrency: int64(concurrency),
		log:         log,
	}
}

// FetchCell はセル内の全スポットを取得してhandleに渡す
// 一覧取得の失敗、サーキットオープン、handleのエラーはセル全体の失敗になる
// 個別の詳細取得の失敗はスキップする
// 戻った時点で全てのhandle呼び出しは終了している
func (f *PlaceFetcher) FetchCell(ctx context.Context, cell model.GridCell, handle PlaceHandler) (CellFetchStats, error) {
	var stats CellFetchStats

	// 1. セル内のxid一覧を取得
	xids, err := f.source.ListPlaceIDs(ctx, cell)
	if err != nil {
		return stats, fmt.Errorf("スポット一覧の取得に失敗 (%s): %w", cell, err)
	}
	stats.PlacesFound = len(xids)
	if len(xids) == 0 {
		return stats, nil
	}

	f.log.Debug("🔍 スポット詳細を取得します", "cell", cell.Key(), "places", len(xids))

	// 2. 詳細を並行取得
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(f.concurrency)
	var fetched, failed atomic.Int64

	for _, xid := range xids {
		xid := xid
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			raw, err := f.source.PlaceDetail(gctx, xid)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, model.ErrCircuitOpen) {
					return err
				}
				failed.Add(1)
				metrics.PlacesTotal.WithLabelValues("fetch_failed").Inc()
				f.log.Warn("⚠️ スポット詳細の取得に失敗したためスキップします", "xid", xid, "error", err)
				return nil
			}
			fetched.Add(1)

			// 3. 呼び出し側で正規化・保存
			return handle(gctx, raw)
		})
	}

	err = g.Wait()
	stats.PlacesFetched = int(fetched.Load())
	stats.PlacesFailed = int(failed.Load())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, fmt.Errorf("セル %s の処理を中断: %w", cell.Key(), err)
	}
	return stats, nil
}
