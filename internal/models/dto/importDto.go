package dto

// ImportedEvent — ссылка на событие в ответе импорта.
type ImportedEvent struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// ImportResponse — ответ POST /api/events/import-from-email.
type ImportResponse struct {
	Success bool           `json:"success"`
	Event   *ImportedEvent `json:"event,omitempty"`
	Created bool           `json:"created"`
	Error   string         `json:"error,omitempty"`
}
