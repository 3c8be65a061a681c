package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	"backoffice/internal/repository"
)

type AddressDTO struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Recipient  string    `json:"recipient"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type AddressInput struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	Phone      string
}

func (in AddressInput) check() error {
	//入力チェック
	if strings.TrimSpace(in.Recipient) == "" || strings.TrimSpace(in.Line1) == "" ||
		strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.PostalCode) == "" {
		return NewHTTPError(http.StatusBadRequest, "recipient, line1, city and postal_code are required")
	}
	if len(strings.TrimSpace(in.Country)) != 2 {
		return NewHTTPError(http.StatusBadRequest, "invalid country")
	}
	return nil
}

type AddressUsecase struct {
	addresses repository.AddressRepository
	users     repository.UserRepository
	auditRepo repository.AuditLogRepository
}

func NewAddressUsecase(addresses repository.AddressRepository, users repository.UserRepository, auditRepo repository.AuditLogRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, users: users, auditRepo: auditRepo}
}

func (u *AddressUsecase) requireUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return NewHTTPError(http.StatusNotFound, "user not found")
	}
	return nil
}

// 住所がそのユーザーのものか（違えば404）
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID int64) (model.Address, error) {
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid address id")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, repoError(err)
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return a, nil
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if err := u.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Get(ctx context.Context, userID, addressID int64) (AddressDTO, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}
	return toAddressDTO(&a), nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (AddressDTO, error) {
	if err := u.requireUser(ctx, userID); err != nil {
		return AddressDTO{}, err
	}
	if err := in.check(); err != nil {
		return AddressDTO{}, err
	}

	now := time.Now()
	a := fromAddressInput(in)
	a.UserID = userID
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID int64, in AddressInput) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := in.check(); err != nil {
		return err
	}

	a := fromAddressInput(in)
	a.ID = addressID
	a.UpdatedAt = time.Now()

	return repoError(u.addresses.Update(ctx, a))
}

func (u *AddressUsecase) Delete(ctx context.Context, actorID, userID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.addresses.SoftDelete(ctx, addressID); err != nil {
		return repoError(err)
	}
	if err := u.auditRepo.Create(ctx, softDeleteAudit(actorID, model.AuditResourceAddress, addressID)); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func fromAddressInput(in AddressInput) model.Address {
	return model.Address{
		Recipient:  strings.TrimSpace(in.Recipient),
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      strings.TrimSpace(in.Line2),
		City:       strings.TrimSpace(in.City),
		Region:     strings.TrimSpace(in.Region),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		Phone:      strings.TrimSpace(in.Phone),
	}
}

func toAddressDTO(a *model.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
