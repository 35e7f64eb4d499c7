package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

//go:embed data/open_street_map_tags.json
var openStreetMapTagsJSON []byte

// ImageChecker 画像URLの到達性チェック
type ImageChecker interface {
	FilterReachable(ctx context.Context, imageURLs []string) []string
}

// LanguageDetector テキストの言語判定（判定できなければ空文字）
type LanguageDetector interface {
	Detect(text string) string
}

// PlaceNormalizer は上流のスポット詳細を保存用のEntityに変換する
type PlaceNormalizer struct {
	images     ImageChecker
	entities   repository.EntityRepository
	detector   LanguageDetector
	provenance string
	tags       map[string]string
}

// NewPlaceNormalizer は新しいPlaceNormalizerを生成する
func NewPlaceNormalizer(images ImageChecker, entities repository.EntityRepository, detector LanguageDetector, provenance string) (*PlaceNormalizer, error) {
	tags, err := loadTagDictionary(openStreetMapTagsJSON)
	if err != nil {
		return nil, err
	}
	return &PlaceNormalizer{
		images:     images,
		entities:   entities,
		detector:   detector,
		provenance: provenance,
		tags:       tags,
	}, nil
}

func loadTagDictionary(data []byte) (map[string]string, error) {
	var dictionary map[string]string
	if err := json.Unmarshal(data, &dictionary); err != nil {
		return nil, fmt.Errorf("タグ辞書の読み込みに失敗: %w", err)
	}
	return dictionary, nil
}

// Normalize はRawPlaceをEntityに変換する
// 除外の場合は*model.RejectionErrorを返す
func (n *PlaceNormalizer) Normalize(ctx context.Context, raw *model.RawPlace) (*model.Entity, error) {
	entity, err := n.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := n.CheckDuplicate(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Prepare は重複チェック以外の検証と変換を行う
// 重複チェックと保存を同じロックの中で行う呼び出し側はCheckDuplicateと組み合わせる
func (n *PlaceNormalizer) Prepare(ctx context.Context, raw *model.RawPlace) (*model.Entity, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, model.Reject(raw.XID, model.ErrEmptyName)
	}

	images := n.images.FilterReachable(ctx, raw.ImageCandidates())
	if len(images) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, model.Reject(raw.XID, model.ErrNoReachableImage)
	}

	description := raw.DescriptionText()

	entity := &model.Entity{
		Name:                name,
		Description:         description,
		Images:              model.StringList(images),
		Tags:                model.StringList(n.formatTags(raw.Kinds)),
		OriginalLanguage:    n.detectLanguage(description, name),
		Address:             buildAddress(raw.Address),
		ExternalLinks:       buildExternalLinks(raw),
		MigrationData:       map[string]interface{}{"xid": raw.XID},
		XID:                 raw.XID,
		DestinationResource: n.provenance,
	}
	if raw.Point != nil {
		lat, lon := raw.Point.Lat, raw.Point.Lon
		entity.Latitude = &lat
		entity.Longitude = &lon
	}
	return entity, nil
}

// CheckDuplicate はxidが異なる同一内容のエンティティが保存済みなら除外する
func (n *PlaceNormalizer) CheckDuplicate(ctx context.Context, entity *model.Entity) error {
	exists, err := n.entities.ExistsByContent(ctx, entity.Name, entity.Images, entity.Description, n.provenance, entity.XID)
	if err != nil {
		return err
	}
	if exists {
		return model.Reject(entity.XID, model.ErrDuplicateContent)
	}
	return nil
}

// formatTags はカンマ区切りのkindsを表示用タグに変換する（辞書にないものはそのまま）
func (n *PlaceNormalizer) formatTags(kinds string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, token := range strings.Split(kinds, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		tag := token
		if mapped, ok := n.tags[token]; ok {
			tag = mapped
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// detectLanguage は説明文、次に名前から言語を判定する
func (n *PlaceNormalizer) detectLanguage(texts ...string) string {
	if n.detector == nil {
		return ""
	}
	for _, text := range texts {
		if lang := n.detector.Detect(text); lang != "" {
			return lang
		}
	}
	return ""
}

func buildAddress(raw model.RawAddress) *model.Address {
	city := raw.Town
	if city == "" {
		city = raw.City
	}
	if city == "" {
		city = raw.Village
	}

	address := &model.Address{
		Street:     strings.TrimSpace(raw.Road + " " + raw.HouseNumber),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(raw.State),
		Country:    strings.TrimSpace(raw.Country),
		PostalCode: strings.TrimSpace(raw.Postcode),
	}
	if address.IsEmpty() {
		return nil
	}
	return address
}

func buildExternalLinks(raw *model.RawPlace) *model.ExternalLinks {
	links := &model.ExternalLinks{
		WikipediaURL: strings.TrimSpace(raw.Wikipedia),
		WebsiteURL:   strings.TrimSpace(raw.URL),
	}
	if links.IsEmpty() {
		return nil
	}
	return links
}
