package notifier

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"investcore/internal/models"
	"investcore/internal/repository"
)

// Notifier delivers account-facing messages. Fire-and-forget: implementations
// log failures and never return them into the calling financial path.
type Notifier interface {
	Emit(ctx context.Context, ownerID uint64, title, message, severity string, metadata map[string]any)
}

// StoreNotifier writes notifications into the notifications table.
type StoreNotifier struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (n *StoreNotifier) Emit(ctx context.Context, ownerID uint64, title, message, severity string, metadata map[string]any) {
	if n == nil || n.Repo == nil {
		return
	}
	if severity == "" {
		severity = models.NotificationSeverityInfo
	}
	item := &models.Notification{
		OwnerID:  ownerID,
		Title:    title,
		Message:  message,
		Severity: severity,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			item.Metadata = datatypes.JSON(raw)
		}
	}
	if err := n.Repo.InsertNotification(ctx, item); err != nil {
		if n.Logger != nil {
			n.Logger.Warn("notification insert failed",
				zap.Uint64("owner_id", ownerID),
				zap.String("title", title),
				zap.Error(err),
			)
		}
	}
}
