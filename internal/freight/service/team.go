package service

import (
	"context"
	"fmt"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/shared/feishu"
)

// FeishuTeamNotifier 把团队消息发到各团队的飞书群
type FeishuTeamNotifier struct {
	client *feishu.FeishuClient
	chats  map[string]string // team -> chat_id
}

func NewFeishuTeamNotifier(client *feishu.FeishuClient, chats map[string]string) *FeishuTeamNotifier {
	return &FeishuTeamNotifier{client: client, chats: chats}
}

func (n *FeishuTeamNotifier) NotifyTeam(ctx context.Context, team string, msg TeamMessage) error {
	chatID := n.chats[team]
	if chatID == "" {
		return fmt.Errorf("no feishu chat configured for team %s", team)
	}
	fields := make([]feishu.CardKV, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, feishu.CardKV{Label: f.Label, Value: f.Value})
	}
	return n.client.SendCard(ctx, chatID, feishu.NewQueueCard(msg.Title, msg.Template, fields, msg.Note))
}
