package langdetect

import (
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
)

// DefaultMinConfidence 判定結果を採用する最小の信頼度
const DefaultMinConfidence = 0.5

// Detector はテキストの言語を判定する（ISO 639-1コード）
// 判定器は最初のDetect呼び出し時に初期化される
type Detector struct {
	minConfidence float64
	allowed       []string

	once      sync.Once
	allowSet  map[string]bool
	detectFun func(text string) whatlanggo.Info
}

// NewDetector は新しいDetectorを生成する。allowedが空なら全言語を許可する
func NewDetector(minConfidence float64, allowed ...string) *Detector {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Detector{minConfidence: minConfidence, allowed: allowed}
}

func (d *Detector) init() {
	d.once.Do(func() {
		if len(d.allowed) > 0 {
			d.allowSet = make(map[string]bool, len(d.allowed))
			for _, code := range d.allowed {
				d.allowSet[strings.ToLower(code)] = true
			}
		}
		d.detectFun = whatlanggo.Detect
	})
}

// Detect はテキストの言語コードを返す。判定できない場合は空文字
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	d.init()

	info := d.detectFun(text)
	if info.Confidence < d.minConfidence {
		return ""
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return ""
	}
	if d.allowSet != nil && !d.allowSet[code] {
		return ""
	}
	return code
}
