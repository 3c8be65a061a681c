package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	notifier StatusNotifier
	strict   bool
	log      *zap.Logger
	now      func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, users repo.UserRepository, notifier StatusNotifier, strict bool, log *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:       tx,
		users:    users,
		notifier: notifier,
		strict:   strict,
		log:      log,
		now:      time.Now,
	}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Note   *string
}

type StatusUpdateResult struct {
	Order          model.Order        `json:"order"`
	PreviousStatus model.OrderStatus  `json:"previous_status"`
	Notification   NotificationResult `json:"notification"`
}

// ステータス更新と履歴追加は同じトランザクション。メールはコミット後
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, ref string, in AdminUpdateOrderStatusInput) (StatusUpdateResult, error) {
	if actorUserID <= 0 {
		return StatusUpdateResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	newStatus, err := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return StatusUpdateResult{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var note *string
	if in.Note != nil {
		if s := strings.TrimSpace(*in.Note); s != "" {
			note = &s
		}
	}

	var (
		updated model.Order
		prev    model.OrderStatus
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// コードならまずidを引く
		o, err := findOrder(ctx, r.Orders(), ref)
		if err != nil {
			return repoError(err)
		}

		// 行ロックを取って読み直す（変更前ステータスはここで確定）
		o, err = r.Orders().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return repoError(err)
		}
		prev = o.Status

		if err := model.CheckTransition(prev, newStatus, u.strict); err != nil {
			if errors.Is(err, model.ErrIllegalTransition) {
				return NewHTTPError(http.StatusConflict, err.Error())
			}
			return NewHTTPError(http.StatusBadRequest, "invalid status")
		}

		now := u.now()
		adminNote := o.AdminNote
		if note != nil {
			adminNote = note
		}

		if err := r.Orders().UpdateStatus(ctx, repo.OrderStatusChange{
			OrderID:   o.ID,
			Status:    newStatus,
			AdminNote: adminNote,
			ActorID:   actorUserID,
			At:        now,
		}); err != nil {
			return repoError(err)
		}

		// 同じステータスでも毎回1行残す
		if err := r.OrderHistory().Append(ctx, &model.OrderHistory{
			OrderID:   o.ID,
			Status:    newStatus,
			Note:      note,
			ChangedBy: actorUserID,
			ChangedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = newStatus
		o.AdminNote = adminNote
		o.UpdatedAt = now
		o.UpdatedBy = &actorUserID
		updated = o
		return nil
	})
	if err != nil {
		return StatusUpdateResult{}, err
	}

	u.log.Info("order status updated",
		zap.String("order_code", updated.Code),
		zap.String("from", string(prev)),
		zap.String("to", string(newStatus)),
		zap.Int64("actor", actorUserID),
	)

	notice := StatusChangeNotice{
		Order:          updated,
		PreviousStatus: prev,
		NewStatus:      newStatus,
		Note:           note,
	}
	customer, err := u.users.FindByID(ctx, updated.UserID)
	if err != nil {
		u.log.Warn("load customer for notification", zap.Int64("user_id", updated.UserID), zap.Error(err))
	}
	if customer != nil {
		notice.CustomerEmail = customer.Email
		notice.CustomerName = customer.Name
	}

	return StatusUpdateResult{
		Order:          updated,
		PreviousStatus: prev,
		Notification:   u.notifier.NotifyStatusChange(ctx, notice),
	}, nil
}

// 画面の選択肢用
func (u *AdminOrderUsecase) AllowedNext(from model.OrderStatus) []model.OrderStatus {
	return model.AllowedNextStatuses(from, u.strict)
}
