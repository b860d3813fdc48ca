package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventsImporter/internal/config"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/dto"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/google/uuid"
	openrouter "github.com/revrost/go-openrouter"
	"github.com/revrost/go-openrouter/jsonschema"
)

const (
	// retryCount определяет количество попыток повторного запроса при ошибках.
	retryCount int = 10
	// retryDuration задаёт интервал между попытками повторного запроса.
	retryDuration time.Duration = 5 * time.Second
	// maxDescriptionRunes — сколько описания отправляется модели.
	maxDescriptionRunes = 1500
)

var (
	ErrShuttingDown = errors.New("service is shutting down")
	ErrBufferFull   = errors.New("job buffer is full")
)

type Repository interface {
	UpdateEventGenre(ctx context.Context, id uuid.UUID, genre string) error
}

// Completer — часть клиента OpenRouter, которая нужна сервису.
type Completer interface {
	CreateChatCompletion(ctx context.Context, request openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// Job представляет задачу, передаваемую в воркер.
type Job struct {
	requestID uuid.UUID     // Уникальный идентификатор запроса
	event     domain.Event  // Событие без жанра
	Done      chan struct{} // Канал для сигнала завершения
}

// Openrouter определяет жанр импортированных событий через OpenRouter API.
// Содержит пул воркеров для асинхронной обработки запросов.
type Openrouter struct {
	logger          *slog.Logger   // Логгер с контекстом
	cfg             *config.Config // Конфигурация приложения
	Client          Completer      // Клиент OpenRouter API
	repository      Repository
	retryDelay      time.Duration
	jobs            chan Job        // Канал задач
	shutdownChannel chan struct{}   // Канал для сигнала завершения
	shutdownOnce    sync.Once
	wg              *sync.WaitGroup // Группа для ожидания завершения воркеров
}

// NewClient создаёт новый экземпляр Openrouter.
func NewClient(
	logger *slog.Logger,
	cfg *config.Config,
	repository Repository,
) *Openrouter {
	op := "Openrouter.NewClient()"
	log := logger.With(
		slog.String("op", op),
	)

	log.Info("Creating openrouter client", slog.String("model", cfg.BotConfig.AI.ModelName))

	return newWithCompleter(logger, cfg, openrouter.NewClient(cfg.BotConfig.AI.AIApiToken), repository)
}

func newWithCompleter(logger *slog.Logger, cfg *config.Config, client Completer, repository Repository) *Openrouter {
	return &Openrouter{
		logger:          logger,
		cfg:             cfg,
		Client:          client,
		repository:      repository,
		retryDelay:      retryDuration,
		jobs:            make(chan Job, cfg.BotConfig.AI.JobBufferSize),
		shutdownChannel: make(chan struct{}),
		wg:              &sync.WaitGroup{},
	}
}

// Start запускает воркеры для обработки задач.
// Количество воркеров задаётся в конфиге (WorkersCount).
// Метод блокируется до завершения всех воркеров.
func (s *Openrouter) Start() {
	op := "Openrouter.Start()"
	log := s.logger.With(
		slog.String("op", op),
	)

	workers := s.cfg.BotConfig.AI.WorkersCount
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.handleJob(i)
	}
	log.Info("openrouter service started", slog.Int("workers", workers))

	s.wg.Wait()
}

// AddJob добавляет событие в очередь на определение жанра.
func (s *Openrouter) AddJob(requestID uuid.UUID, event domain.Event) (chan struct{}, error) {
	newJob := Job{
		requestID: requestID,
		event:     event,
		Done:      make(chan struct{}),
	}

	select {
	case <-s.shutdownChannel:
		return nil, ErrShuttingDown
	default:
	}

	select {
	case s.jobs <- newJob:
		return newJob.Done, nil
	default:
		return nil, ErrBufferFull
	}
}

// handleJob — воркер, обрабатывающий задачи из канала.
func (s *Openrouter) handleJob(id int) {
	defer s.wg.Done()
	op := "Openrouter.handleJob()"
	log := s.logger.With(
		slog.String("op", op),
		slog.Int("workerId", id),
	)

	log.Info("start openrouter job handler")

	for {
		select {
		case <-s.shutdownChannel:
			return
		case job := <-s.jobs:
			s.process(log, job)
			close(job.Done)
		}
	}
}

func (s *Openrouter) process(log *slog.Logger, job Job) {
	joblog := log.With(
		slog.String("requestID", job.requestID.String()),
		slog.String("slug", job.event.Slug),
	)

	if strings.TrimSpace(job.event.Genre) != "" {
		joblog.Debug("event already has genre")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BotConfig.AI.Timeout)
	defer cancel()

	response, err := s.ClassifyGenre(ctx, joblog, job.requestID, job.event)
	if err != nil {
		joblog.Error("failed to classify event", sl.Err(err))
		return
	}

	updated := response.ApplyToEvent(job.event)
	if updated.Genre == "" {
		joblog.Warn("AI returned empty genre")
		return
	}

	if err := s.repository.UpdateEventGenre(ctx, updated.ID, updated.Genre); err != nil {
		joblog.Error("failed to update event", sl.Err(err))
		return
	}

	joblog.Info("AI enrichment completed", slog.String("genre", updated.Genre))
}

// ClassifyGenre спрашивает у модели жанр события.
func (s *Openrouter) ClassifyGenre(ctx context.Context, logger *slog.Logger, requestId uuid.UUID, event domain.Event) (dto.GenreStructuredResponseSchema, error) {
	op := "Openrouter.ClassifyGenre()"
	log := logger.With(
		slog.String("op", op),
		slog.String("requestID", requestId.String()),
	)
	log.Info("classifying event genre")

	var responseSchema dto.GenreStructuredResponseSchema
	var resp openrouter.ChatCompletionResponse
	var err error

	schema, err := jsonschema.GenerateSchemaForType(responseSchema)
	if err != nil {
		log.Error("GenerateSchemaForType error", sl.Err(err))
		return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: generate schema: %w", op, err)
	}

	request := openrouter.ChatCompletionRequest{
		Model: s.cfg.BotConfig.AI.ModelName,
		Messages: []openrouter.ChatCompletionMessage{
			openrouter.SystemMessage(s.cfg.BotConfig.AI.SystemRolePrompt),
			openrouter.UserMessage(eventMessage(event)),
		},
		ResponseFormat: &openrouter.ChatCompletionResponseFormat{
			Type: "json_schema",
			JSONSchema: &openrouter.ChatCompletionResponseFormatJSONSchema{
				Name:   "genreStructuredResponseSchema",
				Strict: true,
				Schema: schema,
			},
		},
	}

	for retry := range retryCount {
		select {
		case <-s.shutdownChannel:
			return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: %w", op, ErrShuttingDown)
		default:
		}

		resp, err = s.Client.CreateChatCompletion(ctx, request)
		if err == nil || !(isRateLimitError(err) || isEOFError(err)) {
			break
		}

		log.Error("AI completion error", sl.Err(err), slog.Int("retry", retry))

		select {
		case <-ctx.Done():
			return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-s.shutdownChannel:
			return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: %w", op, ErrShuttingDown)
		case <-time.After(s.retryDelay):
		}
	}

	if err != nil {
		return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: AI completion failed: %w", op, err)
	}

	if len(resp.Choices) == 0 {
		return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: empty AI response", op)
	}

	// Очищаем ответ от markdown-разметки (```json ... ```)
	cleanedResponse := cleanJSONResponse(resp.Choices[0].Message.Content.Text)
	if err := json.Unmarshal([]byte(cleanedResponse), &responseSchema); err != nil {
		log.Error("error unmarshal response", sl.Err(err), slog.String("response", cleanedResponse))
		return dto.GenreStructuredResponseSchema{}, fmt.Errorf("%s: unmarshal: %w", op, err)
	}

	log.Debug("AI genre response", slog.String("genre", responseSchema.String()))
	return responseSchema, nil
}

func eventMessage(event domain.Event) string {
	description := []rune(event.Description)
	if len(description) > maxDescriptionRunes {
		description = description[:maxDescriptionRunes]
	}

	return fmt.Sprintf(`Determine the music genre of this event. Answer with one or two lowercase genres.
Title: %s
Venue: %s
Date: %s %s
Promoters: %s
Description: %s`,
		event.Title,
		event.VenueName,
		event.EventDate,
		event.EventTime,
		strings.Join(event.Promoters, ", "),
		string(description),
	)
}

// isRateLimitError проверяет, связана ли ошибка с превышением лимита запросов (HTTP 429).
func isRateLimitError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}

// isEOFError проверяет, связана ли ошибка с разрывом соединения (EOF).
func isEOFError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "EOF")
}

// cleanJSONResponse очищает ответ AI от markdown-разметки и лишнего текста.
// Некоторые модели оборачивают JSON в ```json ... ``` и добавляют текст после объекта.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if after, ok := strings.CutPrefix(response, "```json"); ok {
		response = after
	} else if after0, ok0 := strings.CutPrefix(response, "```"); ok0 {
		response = after0
	}

	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}

	// Ищем закрывающую скобку, учитывая вложенность и строки
	depth := 0
	endIdx := -1
	inString := false
	escaped := false

	for i := startIdx; i < len(response); i++ {
		c := response[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				endIdx = i
				break
			}
		}
	}

	if endIdx != -1 {
		return response[startIdx : endIdx+1]
	}

	return response
}

// Shutdown останавливает воркеры. После вызова новые задачи не принимаются.
func (s *Openrouter) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChannel)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit AI client: %w", ctx.Err())
	case <-done:
		return nil
	}
}
