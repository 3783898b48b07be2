package api

// DeviceResetRequest представляет запрос на сброс привязки устройства.
// Отправляется после того, как логин завершился с кодом DEVICE_MISMATCH.
type DeviceResetRequest struct {
	Username          string `json:"username"`                // username пользователя
	ContactEmail      string `json:"contact_email,omitempty"` // email для уведомления (по умолчанию - email аккаунта)
	DeviceFingerprint string `json:"device_fingerprint"`      // дайджест нового устройства (кандидат на перепривязку)
}

// DeviceResetResponse представляет ответ на создание запроса сброса
type DeviceResetResponse struct {
	RequestID string `json:"request_id"` // UUID созданного запроса
	Status    string `json:"status"`     // всегда "pending" при создании
	Message   string `json:"message"`    // инструкция для пользователя
}

// ResolveResetRequest представляет административное решение по запросу сброса
type ResolveResetRequest struct {
	Action     string `json:"action"`      // "approve" или "deny"
	ResolvedBy string `json:"resolved_by"` // идентификатор администратора (для аудита)
}

// ResolveResetResponse представляет результат административного решения
type ResolveResetResponse struct {
	RequestID string `json:"request_id"` // UUID запроса
	Status    string `json:"status"`     // итоговый статус: "approved" или "denied"
}

// AccountMetaResponse представляет несекретные метаданные аккаунта.
// Используется клиентом для заполнения экрана mismatch-алерта.
// Дайджест привязки сюда никогда не попадает.
type AccountMetaResponse struct {
	Username    string `json:"username"`     // username пользователя
	ObserverID  string `json:"observer_id"`  // публичный идентификатор наблюдателя
	MaskedEmail string `json:"masked_email"` // email с замаскированной локальной частью
}
