package service

import (
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/repository"
	"github.com/khyeongtaek/startup-BE-sub001/internal/shared/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the suite's services.
type Services struct {
	Approval *ApprovalService
	Template *TemplateService
}

// NewServices creates the service set.
func NewServices(db *gorm.DB, repos *repository.Repositories, dispatcher notify.Dispatcher, logger *zap.Logger) *Services {
	return &Services{
		Approval: NewApprovalService(db, repos, dispatcher, logger),
		Template: NewTemplateService(repos),
	}
}
