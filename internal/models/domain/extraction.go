package domain

// NotEventPageTitle — заголовок-заглушка для страниц, которые не являются событием.
const NotEventPageTitle = "Not on Facebook event page"

// SourceFacebookExtension — значение поля source у данных из расширения.
const SourceFacebookExtension = "facebook_extension"

// ExtractedEvent — сырой результат разбора страницы события.
// Все поля по умолчанию пустые, nil не используется.
type ExtractedEvent struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Venue       string   `json:"venue"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Promoters   []string `json:"promoters"`
	TicketURL   string   `json:"ticketUrl"`
}

// NewExtractedEvent возвращает запись со значениями по умолчанию.
func NewExtractedEvent() ExtractedEvent {
	return ExtractedEvent{Promoters: []string{}}
}

// ImageUploadStatus — итог перезаливки картинки.
type ImageUploadStatus string

const (
	ImageUploadSuccess ImageUploadStatus = "success"
	ImageUploadFailed  ImageUploadStatus = "failed"
	ImageUploadSkipped ImageUploadStatus = "skipped"
)

// ImageUpload — результат работы релея картинок.
type ImageUpload struct {
	URL      string
	Service  string
	Status   ImageUploadStatus
	Original string
}

// EventData — плоский объект, который уходит в форму импорта.
type EventData struct {
	Source                string   `json:"source"`
	EventTitle            string   `json:"event_title"`
	EventDate             string   `json:"event_date"`
	EventTime             string   `json:"event_time"`
	VenueName             string   `json:"venue_name"`
	Promoters             []string `json:"promoters"`
	Genre                 string   `json:"genre"`
	Description           string   `json:"description"`
	ImageURL              string   `json:"image_url"`
	TicketURL             string   `json:"ticket_url"`
	FacebookURL           string   `json:"facebook_url"`
	ExtractedAt           string   `json:"extracted_at"`
	ImageUploadStatus     string   `json:"image_upload_status"`
	ImageServiceUsed      string   `json:"image_service_used"`
	OriginalFacebookImage string   `json:"original_facebook_image"`
}

// ImportRef — ссылка на событие, созданное при импорте.
type ImportRef struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Created bool   `json:"created"`
}

// Result — ответ на сообщение: либо данные, либо причина ошибки.
type Result struct {
	Success bool            `json:"success"`
	Data    *EventData      `json:"data,omitempty"`
	Raw     *ExtractedEvent `json:"raw,omitempty"`
	Import  *ImportRef      `json:"import,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Ok собирает успешный результат.
func Ok(data EventData, raw ExtractedEvent) Result {
	return Result{Success: true, Data: &data, Raw: &raw}
}

// Err собирает результат с ошибкой.
func Err(reason string) Result {
	return Result{Success: false, Error: reason}
}
