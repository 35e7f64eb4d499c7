package model

import (
	"errors"
	"fmt"
)

// 除外理由（ValidationError）
var (
	ErrEmptyName         = errors.New("スポット名が空です")
	ErrNoReachableImage  = errors.New("到達可能な画像がありません")
	ErrDuplicateContent  = errors.New("同一内容のエンティティが既に存在します")
	ErrCircuitOpen       = errors.New("上流APIのサーキットブレーカーが開いています")
	ErrUnknownService    = errors.New("未知の移行サービスです")
	ErrTranslatorMissing = errors.New("翻訳クライアントが設定されていません")
	ErrNotFound          = errors.New("対象が見つかりません")
)

// UpstreamError 上流API呼び出しの失敗（ネットワークエラーまたは非2xx）
type UpstreamError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int // ネットワークエラー時は0
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s: ステータス %d", e.Service, e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Service, e.Method, e.URL, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsTransportError 上流呼び出しの失敗か
func IsTransportError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// RejectionError 正規化段階での除外
type RejectionError struct {
	XID    string
	Reason error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("スポット %s を除外: %v", e.XID, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// Reject 除外エラーを作成
func Reject(xid string, reason error) error {
	return &RejectionError{XID: xid, Reason: reason}
}

// IsRejection 除外か
func IsRejection(err error) bool {
	var rejection *RejectionError
	return errors.As(err, &rejection)
}

// PersistenceError 永続化の失敗（セル処理を中断する）
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("永続化に失敗 (%s): %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// IsPersistenceError 永続化の失敗か
func IsPersistenceError(err error) bool {
	var persistence *PersistenceError
	return errors.As(err, &persistence)
}

// ConfigurationError 起動時の設定不備
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "設定エラー: " + e.Reason
	}
	return fmt.Sprintf("設定エラー (%s): %s", e.Key, e.Reason)
}

// IsConfigurationError 設定エラーか
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
