package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/domain/model"
)

func entityAt(name string, lat, lon float64) model.Entity {
	return model.Entity{Name: name, Latitude: &lat, Longitude: &lon}
}

func TestHaversineDistance(t *testing.T) {
	// ミュンヘン中央駅からマリエン広場まで約1.2km
	d := HaversineDistance(model.LatLng{Lat: 48.1402, Lng: 11.5600}, model.LatLng{Lat: 48.1374, Lng: 11.5755})
	assert.InDelta(t, 1190, d, 60)

	assert.Zero(t, HaversineDistance(model.LatLng{Lat: 48, Lng: 11}, model.LatLng{Lat: 48, Lng: 11}))
}

func TestSearchBound_ContainsRadius(t *testing.T) {
	center := LatLngToPoint(model.LatLng{Lat: 48.1374, Lng: 11.5755})
	bound := SearchBound(center, 1000)

	assert.True(t, bound.Contains(center))
	assert.Less(t, bound.Min.Lat(), 48.1374-0.008)
	assert.Greater(t, bound.Max.Lat(), 48.1374+0.008)
}

func TestRankByDistance(t *testing.T) {
	origin := model.LatLng{Lat: 48.1374, Lng: 11.5755}
	entities := []model.Entity{
		entityAt("far", 48.1583, 11.5033),
		entityAt("near", 48.1386, 11.5736),
		{Name: "no-location"},
		entityAt("middle", 48.1430, 11.5580),
	}

	ranked := RankByDistance(origin, entities, 10000, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "near", ranked[0].Entity.Name)
	assert.Equal(t, "middle", ranked[1].Entity.Name)
	assert.Equal(t, "far", ranked[2].Entity.Name)

	ranked = RankByDistance(origin, entities, 2000, 0)
	assert.Len(t, ranked, 2)

	ranked = RankByDistance(origin, entities, 10000, 1)
	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].Entity.Name)
}
