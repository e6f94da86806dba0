// Package logcrm is a CRM collaborator that only logs the mutations it is
// asked to apply. It stands in for the real CRM integration in development
// and tests.
package logcrm

import (
	"context"
	"log/slog"
)

// Service logs every CRM mutation and always succeeds.
type Service struct {
	logger *slog.Logger
}

// NewService creates a logging CRM service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger.With("module", "log_crm")}
}

func (s *Service) AddTag(ctx context.Context, companyID, targetID, tag string) error {
	s.logger.InfoContext(ctx, "CRM add tag",
		"company_id", companyID, "target_id", targetID, "tag", tag)

	return nil
}

func (s *Service) RemoveTag(ctx context.Context, companyID, targetID, tag string) error {
	s.logger.InfoContext(ctx, "CRM remove tag",
		"company_id", companyID, "target_id", targetID, "tag", tag)

	return nil
}

func (s *Service) MoveStage(ctx context.Context, companyID, targetID, stageID string) error {
	s.logger.InfoContext(ctx, "CRM move stage",
		"company_id", companyID, "target_id", targetID, "stage_id", stageID)

	return nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, companyID, orderID, status string) error {
	s.logger.InfoContext(ctx, "CRM update order status",
		"company_id", companyID, "order_id", orderID, "status", status)

	return nil
}
