package feishu

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// 消息卡片 — 向团队群推送货运队列通知
// =============================================================================

// SendCard 向群聊发送消息卡片
// chatID: 群聊ID
// card: 交互式卡片内容
func (c *FeishuClient) SendCard(ctx context.Context, chatID string, card InteractiveCard) error {
	cardBytes, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("序列化卡片内容失败: %w", err)
	}

	reqBody := SendMessageRequest{
		ReceiveIDType: "chat_id",
		ReceiveID:     chatID,
		MsgType:       "interactive",
		Content:       string(cardBytes),
	}

	var resp SendMessageResponse
	if err := c.doRequest(ctx, "POST", "/open-apis/im/v1/messages?receive_id_type=chat_id", reqBody, &resp); err != nil {
		return fmt.Errorf("发送消息卡片失败: %w", err)
	}

	return nil
}

// CardKV 卡片中的一个键值字段
type CardKV struct {
	Label string
	Value string
}

// NewQueueCard 创建队列通知卡片（新询价待定价、待发送报价、新订舱、修改申请等）
// title: 卡片标题
// template: 标题颜色 blue/green/orange/red
// fields: 并排显示的字段
// note: 底部提示，可为空
func NewQueueCard(title, template string, fields []CardKV, note string) InteractiveCard {
	if template == "" {
		template = "blue"
	}

	cardFields := make([]CardField, 0, len(fields))
	for _, f := range fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		cardFields = append(cardFields, CardField{
			IsShort: true,
			Text:    CardText{Tag: "lark_md", Content: fmt.Sprintf("**%s**\n%s", f.Label, value)},
		})
	}

	elements := []CardElement{{Tag: "div", Fields: cardFields}}
	if note != "" {
		elements = append(elements,
			CardElement{Tag: "hr"},
			CardElement{
				Tag:      "note",
				Elements: []CardElement{{Tag: "plain_text", Content: note}},
			},
		)
	}

	return InteractiveCard{
		Config: &CardConfig{WideScreenMode: true},
		Header: &CardHeader{
			Title:    CardText{Tag: "plain_text", Content: title},
			Template: template,
		},
		Elements: elements,
	}
}
