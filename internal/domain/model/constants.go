package model

// Provenance（destination_resource）の定数
const (
	ResourceOpenStreetMap = "open_street_map"
)

// DefaultLanguages 翻訳対象のデフォルト言語
var DefaultLanguages = []string{"en", "pl"}

// LanguageNameMap 言語コードから表示名へのマッピング
var LanguageNameMap = map[string]string{
	"en": "English",
	"pl": "Polski",
	"de": "Deutsch",
	"ja": "日本語",
}

// GetLanguageName 言語コードから表示名を取得する
func GetLanguageName(code string) string {
	if name, ok := LanguageNameMap[code]; ok {
		return name
	}
	return code // デフォルトはそのまま返す
}

// メンテナンスアクション
const (
	ActionAuditImages     = "audit_images"
	ActionPurgeDuplicates = "purge_duplicates"
)
