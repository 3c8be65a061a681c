package model

import "time"

// ロール変更、削除など管理者操作の種類。
// 注文ステータスの変更は order_history に残すのでここには入れない。
type AuditAction string

const (
	AuditActionAssignRole AuditAction = "ASSIGN_ROLE"
	AuditActionRevokeRole AuditAction = "REVOKE_ROLE"
	AuditActionDelete     AuditAction = "SOFT_DELETE"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceCategory AuditResourceType = "category"
	AuditResourceInvoice  AuditResourceType = "invoice"
	AuditResourceReview   AuditResourceType = "review"
	AuditResourceUser     AuditResourceType = "user"
	AuditResourceAddress  AuditResourceType = "address"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
