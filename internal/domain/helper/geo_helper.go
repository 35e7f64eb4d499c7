package helper

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"Travel-App/internal/domain/model"
)

// LatLngToPoint model.LatLng を orb.Point に変換（X=経度）
func LatLngToPoint(location model.LatLng) orb.Point {
	return orb.Point{location.Lng, location.Lat}
}

// HaversineDistance は2地点間の距離を計算する (m)
func HaversineDistance(p1, p2 model.LatLng) float64 {
	return geo.DistanceHaversine(LatLngToPoint(p1), LatLngToPoint(p2))
}

// SearchBound 中心から半径radiusMetersを覆う検索用の矩形
func SearchBound(center orb.Point, radiusMeters float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, radiusMeters)
}

// RankByDistance は半径内のEntityを基準地点から近い順に並べる（limitが0以下なら全件）
func RankByDistance(origin model.LatLng, entities []model.Entity, radiusMeters float64, limit int) []model.NearbyActivity {
	center := LatLngToPoint(origin)
	ranked := make([]model.NearbyActivity, 0, len(entities))
	for i := range entities {
		e := &entities[i]
		if !e.HasLocation() {
			continue
		}
		d := geo.DistanceHaversine(center, e.Point())
		if d > radiusMeters {
			continue
		}
		ranked = append(ranked, model.NearbyActivity{Entity: e, DistanceMeters: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
