package models

import "time"

// FingerprintBinding связывает аккаунт ровно с одним дайджестом устройства.
// Создается при первом успешном входе с непривязанного устройства и
// заменяется только через одобренный ResetRequest (атомарно, целиком).
type FingerprintBinding struct {
	AccountID      string     `json:"account_id"`       // ID аккаунта (users.id)
	BoundDigest    string     `json:"bound_digest"`     // привязанный дайджест (hex sha256)
	BoundAt        time.Time  `json:"bound_at"`         // момент привязки
	LastVerifiedAt *time.Time `json:"last_verified_at"` // последняя успешная верификация
}

// ResetStatus - статус запроса на сброс привязки
type ResetStatus string

const (
	ResetPending  ResetStatus = "pending"
	ResetApproved ResetStatus = "approved"
	ResetDenied   ResetStatus = "denied"
)

// Valid reports whether s is one of the known statuses.
func (s ResetStatus) Valid() bool {
	switch s {
	case ResetPending, ResetApproved, ResetDenied:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s ResetStatus) Terminal() bool {
	return s == ResetApproved || s == ResetDenied
}

// ResetRequest - запрос пользователя на перепривязку устройства после
// неудачной верификации. Записи никогда не удаляются (audit trail),
// мутируются только административным решением.
type ResetRequest struct {
	ID              string      `json:"id"`               // UUID запроса
	AccountID       string      `json:"account_id"`       // ID аккаунта
	CandidateDigest string      `json:"candidate_digest"` // дайджест нового устройства, станет привязкой при approve
	ContactEmail    string      `json:"contact_email"`    // куда отправлено уведомление
	RequestedAt     time.Time   `json:"requested_at"`     // время создания
	Status          ResetStatus `json:"status"`           // pending | approved | denied
	ResolvedAt      *time.Time  `json:"resolved_at"`      // время решения
	ResolvedBy      string      `json:"resolved_by"`      // кто принял решение
}
