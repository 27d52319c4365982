package service

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 外部依赖，未配置的留空即可
type Options struct {
	Logger     *zap.Logger
	Dispatcher *Dispatcher
	Mailer     Mailer
	Pusher     Pusher
	Team       TeamNotifier
	Events     EventPublisher
	Guard      SynthesisGuard
	Files      FileStore
	PortalURL  string
}

// Services 货运服务集合
type Services struct {
	RFQ          *RFQService
	Shipment     *ShipmentService
	Amendment    *AmendmentService
	Notification *NotificationService
	Activity     *ActivityService
	Notifier     *Notifier
	Dispatcher   *Dispatcher
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = NewInlineDispatcher(logger)
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	notifier := NewNotifier(repos.Notification, mailer, opts.Pusher, logger)
	if opts.PortalURL != "" {
		notifier.SetPortalURL(opts.PortalURL)
	}

	fx := NewSideEffects(dispatcher, repos.ActivityLog, notifier, logger)
	if opts.Team != nil {
		fx.SetTeamNotifier(opts.Team)
	}
	if opts.Events != nil {
		fx.SetEventPublisher(opts.Events)
	}

	shipmentSvc := NewShipmentService(db, repos.Shipment, fx)
	if opts.Guard != nil {
		shipmentSvc.SetSynthesisGuard(opts.Guard)
	}
	if opts.Files != nil {
		shipmentSvc.SetFileStore(opts.Files)
	}

	return &Services{
		RFQ:          NewRFQService(db, repos.RFQ, shipmentSvc, fx),
		Shipment:     shipmentSvc,
		Amendment:    NewAmendmentService(db, repos.Amendment, repos.Shipment, fx),
		Notification: NewNotificationService(repos.Notification, notifier),
		Activity:     NewActivityService(repos.ActivityLog),
		Notifier:     notifier,
		Dispatcher:   dispatcher,
	}
}
