package model

import "strings"

// RawPlace 上流ジオAPI（/places/xid/{xid}）のスポット詳細
type RawPlace struct {
	XID               string             `json:"xid"`
	Name              string             `json:"name"`
	Address           RawAddress         `json:"address"`
	Point             *RawPoint          `json:"point"`
	Preview           *RawPreview        `json:"preview"`
	Image             string             `json:"image"`
	Kinds             string             `json:"kinds"`
	Wikipedia         string             `json:"wikipedia"`
	URL               string             `json:"url"`
	WikipediaExtracts *RawWikipediaExtra `json:"wikipedia_extracts"`
}

type RawAddress struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	Town        string `json:"town"`
	City        string `json:"city"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Postcode    string `json:"postcode"`
}

type RawPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type RawPreview struct {
	Source string `json:"source"`
}

type RawWikipediaExtra struct {
	Text string `json:"text"`
}

// DescriptionText Wikipedia抜粋の本文（なければ空文字）
func (p *RawPlace) DescriptionText() string {
	if p.WikipediaExtracts == nil {
		return ""
	}
	return strings.TrimSpace(p.WikipediaExtracts.Text)
}

// ImageCandidates プレビュー画像を優先した画像URL候補
func (p *RawPlace) ImageCandidates() []string {
	var candidates []string
	if p.Preview != nil && strings.TrimSpace(p.Preview.Source) != "" {
		candidates = append(candidates, strings.TrimSpace(p.Preview.Source))
	}
	if img := strings.TrimSpace(p.Image); img != "" && (len(candidates) == 0 || candidates[0] != img) {
		candidates = append(candidates, img)
	}
	return candidates
}

// BBoxFeatureCollection /places/bbox のレスポンス
type BBoxFeatureCollection struct {
	Features []BBoxFeature `json:"features"`
}

type BBoxFeature struct {
	Properties struct {
		XID string `json:"xid"`
	} `json:"properties"`
}
