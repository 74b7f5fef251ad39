package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// FeishuConfig configures the Feishu/Lark IM notifier.
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// Feishu sends text messages to a Feishu chat. The destination is a chat id.
type Feishu struct {
	client *lark.Client
}

// NewFeishu creates a Feishu notifier.
func NewFeishu(cfg FeishuConfig) (*Feishu, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("feishu app_id and app_secret are required")
	}
	return &Feishu{client: lark.NewClient(cfg.AppID, cfg.AppSecret)}, nil
}

// Send posts a text message to the chat.
func (f *Feishu) Send(ctx context.Context, destination, text string) error {
	if destination == "" {
		return fmt.Errorf("feishu chat id is empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(destination).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := f.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("feishu send failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("feishu send failed: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}
