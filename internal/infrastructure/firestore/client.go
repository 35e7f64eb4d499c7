package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
)

type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient 認証情報ファイルがあればそれを使い、なければデフォルト認証で接続する
func NewFirestoreClient(ctx context.Context, projectID string, log *logger.Logger) (*FirestoreClient, error) {
	if projectID == "" {
		return nil, &model.ConfigurationError{Key: "FIRESTORE_PROJECT_ID", Reason: "環境変数が設定されていません"}
	}

	var opts []option.ClientOption

	// エミュレータ利用時はFIRESTORE_EMULATOR_HOSTをSDKが自動で参照する
	credentialsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			log.Warn("⚠️ 認証情報ファイルが見つかりません。デフォルト認証を使用します", "path", credentialsFile)
		} else {
			log.Info("📄 認証情報ファイルを使用します", "path", credentialsFile)
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("Firestoreクライアントの作成に失敗: %w", err)
	}
	log.Info("✅ Firestoreクライアントを初期化しました", "project_id", projectID)

	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}
