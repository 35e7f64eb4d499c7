package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"github.com/paulmach/orb"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entity アクティビティ（観光スポット）を表すモデル
type Entity struct {
	ID                  string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name                string            `json:"name" gorm:"size:255;not null"`
	Description         string            `json:"description" gorm:"type:text"`
	Images              StringList        `json:"images"`
	Tags                StringList        `json:"tags"`
	OriginalLanguage    string            `json:"original_language" gorm:"size:16"`
	Latitude            *float64          `json:"latitude,omitempty"`
	Longitude           *float64          `json:"longitude,omitempty"`
	AddressID           *uint             `json:"-"`
	Address             *Address          `json:"address,omitempty"`
	ExternalLinksID     *uint             `json:"-"`
	ExternalLinks       *ExternalLinks    `json:"external_links,omitempty"`
	MigrationData       datatypes.JSONMap `json:"migration_data"`
	XID                 string            `json:"xid" gorm:"column:xid;size:128;not null;uniqueIndex:idx_entities_resource_xid"`
	DestinationResource string            `json:"destination_resource" gorm:"size:64;not null;uniqueIndex:idx_entities_resource_xid;index"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func (Entity) TableName() string {
	return "entities"
}

// HasLocation 座標を持っているか
func (e *Entity) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Point orb.Point に変換（座標がなければゼロ値）
func (e *Entity) Point() orb.Point {
	if !e.HasLocation() {
		return orb.Point{}
	}
	return orb.Point{*e.Longitude, *e.Latitude}
}

// ToPOIObject Firestore用のPOI表現に変換
func (e *Entity) ToPOIObject() POIObject {
	obj := POIObject{
		ID:     e.ID,
		Name:   e.Name,
		Tags:   []string(e.Tags),
		Images: []string(e.Images),
	}
	if e.HasLocation() {
		obj.Location = &Location{Latitude: *e.Latitude, Longitude: *e.Longitude}
	}
	if e.ExternalLinks != nil {
		obj.SetURL(e.ExternalLinks.WebsiteURL)
	}
	return obj
}

// Address 住所（内容によるget-or-create）
type Address struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Street     string `json:"street" gorm:"size:255"`
	City       string `json:"city" gorm:"size:255"`
	State      string `json:"state" gorm:"size:255"`
	Country    string `json:"country" gorm:"size:255"`
	PostalCode string `json:"postal_code" gorm:"size:32"`
}

func (Address) TableName() string {
	return "addresses"
}

// IsEmpty すべての項目が空か
func (a *Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Country == "" && a.PostalCode == ""
}

// ExternalLinks 外部リンク（URLの組によるget-or-create）
type ExternalLinks struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	WikipediaURL string `json:"wikipedia_url" gorm:"size:1024"`
	WebsiteURL   string `json:"website_url" gorm:"size:1024"`
}

func (ExternalLinks) TableName() string {
	return "external_links"
}

// IsEmpty リンクが1つもないか
func (l *ExternalLinks) IsEmpty() bool {
	return l.WikipediaURL == "" && l.WebsiteURL == ""
}

// Translation エンティティの言語別翻訳
type Translation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EntityID    string    `json:"entity_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_translations_entity_language"`
	Language    string    `json:"language" gorm:"size:16;not null;uniqueIndex:idx_translations_entity_language"`
	Name        string    `json:"name" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Translation) TableName() string {
	return "translations"
}

// MigrationResource データ移行元の接続情報
type MigrationResource struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"size:250;not null;uniqueIndex"`
	BaseURL     string            `json:"base_url" gorm:"size:1024"`
	Credentials datatypes.JSONMap `json:"-"`
}

func (MigrationResource) TableName() string {
	return "migration_resources"
}

// Credential 認証情報を文字列で取得
func (r *MigrationResource) Credential(key string) string {
	if r == nil || r.Credentials == nil {
		return ""
	}
	if v, ok := r.Credentials[key].(string); ok {
		return v
	}
	return ""
}

// StringList text[]カラムに保存する文字列スライス（sqliteではテキスト表現）
type StringList []string

// Value driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

// Scan sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

// GormDBDataType ダイアレクトごとのカラム型
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Equal 順序を含めて一致するか
func (l StringList) Equal(other []string) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
