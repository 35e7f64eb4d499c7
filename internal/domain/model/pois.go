package model

// LatLng 緯度経度を表す基本的な型
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// POIObject Firestoreのグリッドセル内のPOI情報
type POIObject struct {
	ID       string    `json:"id" firestore:"id"`
	Name     string    `json:"name" firestore:"name"`
	Location *Location `json:"location" firestore:"location"`
	Tags     []string  `json:"tags" firestore:"tags"`
	Images   []string  `json:"images" firestore:"images"`
	URL      *string   `json:"url,omitempty" firestore:"url"` // URL（NULLABLE）
}

// GetURL URLが存在する場合は値を、存在しない場合は空文字列を返す
func (p *POIObject) GetURL() string {
	if p.URL != nil {
		return *p.URL
	}
	return ""
}

// SetURL URLを設定する（空文字の場合はnilのまま保持）
func (p *POIObject) SetURL(url string) {
	if url != "" {
		p.URL = &url
	}
}

// NearbyActivity 距離付きのアクティビティ
type NearbyActivity struct {
	Entity         *Entity `json:"activity"`
	DistanceMeters float64 `json:"distance_meters"`
}
