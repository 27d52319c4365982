package service

import (
	"context"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"go.uber.org/zap"
)

// SideEffects 主操作提交后的副作用，全部经 Dispatcher 异步执行
type SideEffects struct {
	dispatcher *Dispatcher
	activity   *repository.ActivityLogRepository
	notifier   *Notifier
	team       TeamNotifier
	events     EventPublisher
	logger     *zap.Logger
}

func NewSideEffects(dispatcher *Dispatcher, activity *repository.ActivityLogRepository, notifier *Notifier, logger *zap.Logger) *SideEffects {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = NewInlineDispatcher(logger)
	}
	return &SideEffects{dispatcher: dispatcher, activity: activity, notifier: notifier, logger: logger}
}

// SetTeamNotifier 注入团队队列通知
func (fx *SideEffects) SetTeamNotifier(team TeamNotifier) {
	fx.team = team
}

// SetEventPublisher 注入事件发布
func (fx *SideEffects) SetEventPublisher(events EventPublisher) {
	fx.events = events
}

func (fx *SideEffects) logActivity(ctx context.Context, actor Actor, entityType, entityID, code, action, from, to, content string) {
	if fx.activity == nil {
		return
	}
	fx.dispatcher.Go(ctx, "activity_log:"+action, func(ctx context.Context) error {
		return fx.activity.LogActivity(ctx, entityType, entityID, code, action, from, to, content, actor.Email, actor.Role)
	})
}

func (fx *SideEffects) notify(ctx context.Context, change StatusChange) {
	if fx.notifier == nil {
		return
	}
	fx.dispatcher.Go(ctx, "notify:"+change.EntityType, func(ctx context.Context) error {
		return fx.notifier.NotifyStatusChange(ctx, change)
	})
}

func (fx *SideEffects) notifyTeam(ctx context.Context, team string, msg TeamMessage) {
	if fx.team == nil {
		return
	}
	fx.dispatcher.Go(ctx, "team:"+team, func(ctx context.Context) error {
		return fx.team.NotifyTeam(ctx, team, msg)
	})
}

func (fx *SideEffects) publish(ctx context.Context, actor Actor, event, entityType, entityID, reference, from, to string) {
	if fx.events == nil {
		return
	}
	ev := StatusChangedEvent{
		Event:      event,
		EntityType: entityType,
		EntityID:   entityID,
		Reference:  reference,
		From:       from,
		To:         to,
		Actor:      actor.Email,
		Role:       actor.Role,
		OccurredAt: time.Now(),
	}
	fx.dispatcher.Go(ctx, "event:"+event, func(ctx context.Context) error {
		return fx.events.Publish(ctx, entityID, ev)
	})
}
