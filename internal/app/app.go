// Package app содержит основную логику приложения: загрузку модели и голосовой диалог.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"voxtral/internal/audio"
	"voxtral/internal/conversation"
	"voxtral/internal/i18n"
	"voxtral/internal/llm"
	"voxtral/internal/models"
	"voxtral/internal/speech"
)

const (
	// SystemPrompt задаёт поведение модели при разборе записи.
	SystemPrompt = "You are Voxtral, a helpful voice assistant. Listen to the user's audio and respond naturally and concisely."

	// ReplyTemperature и ReplyMaxTokens - параметры ответа на реплику.
	ReplyTemperature = 0.7
	ReplyMaxTokens   = 500

	eventBuffer = 256
)

var (
	ErrUnknownModel   = errors.New("unknown model")
	ErrModelNotLoaded = errors.New("model is not loaded")
	ErrUnavailable    = errors.New("feature unavailable")
	ErrNoRecording    = errors.New("message has no recording")
)

// Downloader скачивает модели каталога.
type Downloader interface {
	Catalog() []models.ModelOption
	IsDownloaded(info models.ModelInfo) bool
	GetModelPath(info models.ModelInfo) string
	Download(ctx context.Context, info models.ModelInfo, progress chan<- models.Progress) (string, error)
	Delete(info models.ModelInfo) error
}

// Recorder записывает реплику пользователя.
type Recorder interface {
	Start(path string) error
	Stop() (audio.Recording, error)
	IsRecording() bool
	Ticks() <-chan int
}

// Speaker озвучивает ответы.
type Speaker interface {
	Speak(text string) error
	Stop()
	IsSpeaking() bool
	States() <-chan speech.State
}

// Player проигрывает записи пользователя.
type Player interface {
	Play(ctx context.Context, path string) error
	Stop()
}

// Permissions запрашивает разрешение на запись.
type Permissions interface {
	Request(ctx context.Context) (bool, error)
}

// Archive сохраняет переписку.
type Archive interface {
	StartSession(modelID string, greeting conversation.Message) (string, error)
	AppendTurn(sessionID string, user, assistant conversation.Message) error
}

// Notifier показывает системные уведомления.
type Notifier interface {
	Error(title, msg string)
	Success(msg string)
}

// Deps зависимости приложения. Recorder, Speaker, Player, Archive и Notifier
// могут отсутствовать: соответствующие функции тогда недоступны.
type Deps struct {
	Models        Downloader
	Runtime       *llm.Runtime
	Recorder      Recorder
	Speaker       Speaker
	Player        Player
	Permissions   Permissions
	Archive       Archive
	Notifier      Notifier
	RecordingsDir string
}

// App представляет главное приложение.
type App struct {
	deps    Deps
	machine *conversation.Machine
	log     *conversation.Log
	events  chan Event
	now     func() time.Time

	mu        sync.Mutex
	modelID   string
	sessionID string
	progress  DownloadStatus
	elapsed   int
	notice    *Notice
	stopTicks chan struct{}

	// capture делает переход в Recording и запуск рекордера (и обратное)
	// одним шагом для переключателя записи.
	capture sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

// New создаёт приложение в состоянии выбора модели.
func New(deps Deps) *App {
	a := &App{
		deps:    deps,
		machine: conversation.NewMachine(),
		log:     conversation.NewLog(i18n.T("greeting_select")),
		events:  make(chan Event, eventBuffer),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if deps.Speaker != nil {
		go a.forwardSpeech(deps.Speaker.States())
	}
	return a
}

// Events возвращает очередь событий для интерфейса.
func (a *App) Events() <-chan Event {
	return a.events
}

// Snapshot возвращает текущее состояние.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{
		ModelID:         a.modelID,
		Download:        a.progress,
		Elapsed:         a.elapsed,
		AudioAvailable:  a.deps.Recorder != nil,
		SpeechAvailable: a.deps.Speaker != nil,
	}
	if a.notice != nil {
		n := *a.notice
		s.Notice = &n
	}
	a.mu.Unlock()

	s.State = a.machine.Current()
	s.Messages = a.log.Messages()
	s.Catalog = a.deps.Models.Catalog()
	if a.deps.Speaker != nil {
		s.Speaking = a.deps.Speaker.IsSpeaking()
	}
	return s
}

// SelectModel загружает модель; если файла нет, сначала скачивает его.
func (a *App) SelectModel(ctx context.Context, modelID string) error {
	info, ok := models.GetModel(modelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	if a.deps.Models.IsDownloaded(info) {
		if err := a.transition(conversation.Loading); err != nil {
			return err
		}
		return a.load(ctx, info, a.deps.Models.GetModelPath(info))
	}
	return a.DownloadModel(ctx, modelID)
}

// DownloadModel скачивает модель заново, даже если файл уже есть, и загружает её.
func (a *App) DownloadModel(ctx context.Context, modelID string) error {
	info, ok := models.GetModel(modelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	if err := a.transition(conversation.Downloading); err != nil {
		return err
	}

	path, err := a.fetchModel(ctx, info)
	if err != nil {
		log.Printf("Ошибка загрузки модели %s: %v", info.ID, err)
		a.rollback(conversation.NoModel)
		a.fail(i18n.T("notice_download_failed"), downloadMessage(err))
		return err
	}

	if err := a.transition(conversation.Loading); err != nil {
		return err
	}
	return a.load(ctx, info, path)
}

// fetchModel скачивает файл и переводит прогресс в DownloadStatus.
func (a *App) fetchModel(ctx context.Context, info models.ModelInfo) (string, error) {
	a.setDownload(DownloadStatus{ModelID: info.ID, Speed: models.CalculatingLabel, Active: true})

	progress := make(chan models.Progress, 16)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		var meter models.SpeedMeter
		meter.Reset()
		for p := range progress {
			st := DownloadStatus{ModelID: info.ID, Active: true}
			st.Percent = models.Percent(p.Downloaded, p.Total)
			st.Speed, _ = meter.Observe(p.Downloaded, p.At)
			if p.Done {
				st.Percent = 100
			}
			a.setDownload(st)
		}
	}()

	path, err := a.deps.Models.Download(ctx, info, progress)
	close(progress)
	<-forwarded

	a.mu.Lock()
	a.progress.Active = false
	a.mu.Unlock()
	return path, err
}

func (a *App) setDownload(st DownloadStatus) {
	a.mu.Lock()
	a.progress = st
	a.mu.Unlock()
	a.emit(Event{Kind: EventProgress, Download: st})
}

// load открывает сессию модели и начинает новый диалог.
func (a *App) load(ctx context.Context, info models.ModelInfo, path string) error {
	if _, err := a.deps.Runtime.Open(ctx, path); err != nil {
		log.Printf("Ошибка загрузки модели %s: %v", info.ID, err)
		a.rollback(conversation.NoModel)
		a.fail(i18n.T("notice_error"), i18n.T("error_model_load"))
		return err
	}

	a.log.Reset(i18n.T("greeting_ready"))

	sessionID := ""
	if a.deps.Archive != nil {
		greeting, _ := a.log.At(0)
		id, err := a.deps.Archive.StartSession(info.ID, greeting)
		if err != nil {
			log.Printf("Ошибка архива: %v", err)
		}
		sessionID = id
	}

	a.mu.Lock()
	a.modelID = info.ID
	a.sessionID = sessionID
	a.mu.Unlock()

	if err := a.transition(conversation.Ready); err != nil {
		return err
	}
	if a.deps.Notifier != nil {
		a.deps.Notifier.Success(i18n.T("success_model_loaded"))
	}
	a.emit(Event{Kind: EventConversation})
	return nil
}

// UnloadModel освобождает модель и возвращает выбор модели.
func (a *App) UnloadModel() error {
	if err := a.transition(conversation.NoModel); err != nil {
		return err
	}
	a.stopSpeaking()
	if err := a.deps.Runtime.Release(); err != nil {
		log.Printf("Ошибка выгрузки модели: %v", err)
	}

	a.mu.Lock()
	a.modelID = ""
	a.sessionID = ""
	a.mu.Unlock()

	a.log.Reset(i18n.T("greeting_select"))
	a.emit(Event{Kind: EventConversation})
	return nil
}

// DeleteModel удаляет скачанный файл модели. Доступно только при выборе модели.
func (a *App) DeleteModel(modelID string) error {
	info, ok := models.GetModel(modelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	if state := a.machine.Current(); state != conversation.NoModel {
		return fmt.Errorf("%w: delete model in %s", conversation.ErrInvalidTransition, state)
	}

	if err := a.deps.Models.Delete(info); err != nil {
		log.Printf("Ошибка удаления модели %s: %v", info.ID, err)
		a.fail(i18n.T("notice_error"), i18n.T("error_delete"))
		return err
	}
	log.Printf("Модель %s удалена", info.ID)
	a.emit(Event{Kind: EventConversation})
	return nil
}

// StartRecording останавливает речь, запрашивает разрешение и начинает запись.
func (a *App) StartRecording(ctx context.Context) error {
	if a.deps.Recorder == nil {
		a.fail(i18n.T("notice_error"), i18n.T("error_audio_unavailable"))
		return ErrUnavailable
	}
	state := a.machine.Current()
	if !conversation.CanTransition(state, conversation.Recording) {
		return fmt.Errorf("%w: %s -> %s", conversation.ErrInvalidTransition, state, conversation.Recording)
	}
	if a.deps.Runtime.Current() == nil {
		a.fail(i18n.T("notice_model_missing"), i18n.T("error_model_not_loaded"))
		return ErrModelNotLoaded
	}

	a.stopSpeaking()

	// Пока открыт диалог разрешений, запись не начата и состояние остаётся Ready.
	if a.deps.Permissions != nil {
		granted, err := a.deps.Permissions.Request(ctx)
		if err != nil {
			log.Printf("Ошибка запроса разрешений: %v", err)
		}
		if err != nil || !granted {
			a.fail(i18n.T("notice_error"), i18n.T("error_permission"))
			return audio.ErrPermissionDenied
		}
	}

	a.capture.Lock()
	defer a.capture.Unlock()

	if err := a.transition(conversation.Recording); err != nil {
		return err
	}
	path := audio.RecordingPath(a.deps.RecordingsDir, a.now())
	if err := a.deps.Recorder.Start(path); err != nil {
		log.Printf("Ошибка начала записи: %v", err)
		a.rollback(conversation.Ready)
		a.fail(i18n.T("notice_error"), i18n.T("error_recording_start"))
		return err
	}

	stop := make(chan struct{})
	a.mu.Lock()
	a.elapsed = 0
	a.stopTicks = stop
	a.mu.Unlock()
	go a.forwardTicks(a.deps.Recorder.Ticks(), stop)

	return nil
}

func (a *App) forwardTicks(ticks <-chan int, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case n := <-ticks:
			a.mu.Lock()
			a.elapsed = n
			a.mu.Unlock()
			a.emit(Event{Kind: EventTick, Elapsed: n})
		}
	}
}

func (a *App) stopTicker() {
	a.mu.Lock()
	if a.stopTicks != nil {
		close(a.stopTicks)
		a.stopTicks = nil
	}
	a.elapsed = 0
	a.mu.Unlock()
}

// StopRecording завершает запись и проводит цикл обработки: распознавание,
// ответ, добавление пары реплик и озвучивание. При любой ошибке переписка
// не меняется, состояние возвращается в Ready.
func (a *App) StopRecording(ctx context.Context) error {
	rec, err := a.stopCapture()
	if errors.Is(err, conversation.ErrInvalidTransition) {
		return err
	}
	defer a.rollback(conversation.Ready)

	if err != nil {
		if errors.Is(err, audio.ErrRecordingTooShort) {
			removeRecording(rec.Path)
			a.fail(i18n.T("notice_error"), i18n.Tf("error_processing", i18n.T("error_recording_short")))
		} else {
			a.fail(i18n.T("notice_error"), i18n.Tf("error_processing", err.Error()))
		}
		return err
	}

	session := a.deps.Runtime.Current()
	if session == nil {
		a.fail(i18n.T("notice_model_missing"), i18n.T("error_model_not_loaded"))
		return ErrModelNotLoaded
	}

	transcript, err := session.CompleteAudio(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: llm.AudioMarker},
	}, rec.Path)
	if err != nil {
		log.Printf("Ошибка распознавания: %v", err)
		a.fail(i18n.T("notice_error"), i18n.Tf("error_processing", err.Error()))
		return err
	}
	if transcript == "" {
		transcript = i18n.T("fallback_transcription")
	}

	history := append(a.log.History(), llm.Message{Role: llm.RoleUser, Content: transcript})
	reply, err := session.Complete(ctx, history, llm.Params{Temperature: ReplyTemperature, MaxTokens: ReplyMaxTokens})
	if err != nil {
		log.Printf("Ошибка ответа модели: %v", err)
		a.fail(i18n.T("notice_error"), i18n.Tf("error_processing", err.Error()))
		return err
	}
	if reply == "" {
		reply = i18n.T("fallback_response")
	}

	user, assistant := a.log.AppendTurn(transcript, rec.Path, reply)
	a.archive(user, assistant)
	a.emit(Event{Kind: EventConversation})

	if a.deps.Speaker != nil {
		if err := a.deps.Speaker.Speak(reply); err != nil {
			log.Printf("Ошибка синтеза речи: %v", err)
		}
	}
	return nil
}

// stopCapture переводит состояние в Processing и останавливает рекордер.
func (a *App) stopCapture() (audio.Recording, error) {
	a.capture.Lock()
	defer a.capture.Unlock()

	if err := a.transition(conversation.Processing); err != nil {
		return audio.Recording{}, err
	}
	a.stopTicker()
	return a.deps.Recorder.Stop()
}

func (a *App) archive(user, assistant conversation.Message) {
	a.mu.Lock()
	id := a.sessionID
	a.mu.Unlock()

	if a.deps.Archive == nil || id == "" {
		return
	}
	if err := a.deps.Archive.AppendTurn(id, user, assistant); err != nil {
		log.Printf("Ошибка архива: %v", err)
	}
}

// ToggleRecording начинает запись в Ready и завершает её в Recording.
func (a *App) ToggleRecording(ctx context.Context) error {
	if a.machine.Current() == conversation.Recording {
		return a.StopRecording(ctx)
	}
	return a.StartRecording(ctx)
}

// PlayRecording проигрывает запись реплики с индексом i.
func (a *App) PlayRecording(ctx context.Context, i int) error {
	msg, ok := a.log.At(i)
	if !ok || msg.AudioPath == "" {
		return ErrNoRecording
	}
	if a.deps.Player == nil {
		a.fail(i18n.T("notice_error"), i18n.T("error_playback"))
		return ErrUnavailable
	}
	if err := a.deps.Player.Play(ctx, msg.AudioPath); err != nil {
		log.Printf("Ошибка воспроизведения: %v", err)
		a.fail(i18n.T("notice_error"), i18n.T("error_playback"))
		return err
	}
	return nil
}

// Speak озвучивает реплику с индексом i.
func (a *App) Speak(i int) error {
	msg, ok := a.log.At(i)
	if !ok {
		return fmt.Errorf("no message %d", i)
	}
	if a.deps.Speaker == nil {
		a.fail(i18n.T("notice_error"), i18n.T("error_speech_unavailable"))
		return ErrUnavailable
	}
	if a.machine.Current() == conversation.Recording {
		return fmt.Errorf("%w: recording in progress", conversation.ErrInvalidTransition)
	}
	return a.deps.Speaker.Speak(msg.Content)
}

// StopSpeaking прерывает озвучивание.
func (a *App) StopSpeaking() {
	a.stopSpeaking()
}

func (a *App) stopSpeaking() {
	if a.deps.Speaker != nil && a.deps.Speaker.IsSpeaking() {
		a.deps.Speaker.Stop()
	}
}

func (a *App) forwardSpeech(states <-chan speech.State) {
	for {
		select {
		case <-a.done:
			return
		case _, ok := <-states:
			if !ok {
				return
			}
			a.emit(Event{Kind: EventSpeech})
		}
	}
}

// DismissNotice закрывает текущее сообщение.
func (a *App) DismissNotice() {
	a.mu.Lock()
	a.notice = nil
	a.mu.Unlock()
	a.emit(Event{Kind: EventNotice})
}

// Close останавливает запись и речь и освобождает модель. Ошибки только логируются.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.stopTicker()

		if a.deps.Recorder != nil && a.deps.Recorder.IsRecording() {
			if _, err := a.deps.Recorder.Stop(); err != nil {
				log.Printf("Ошибка остановки записи: %v", err)
			}
		}
		if a.deps.Speaker != nil {
			a.deps.Speaker.Stop()
		}
		if a.deps.Player != nil {
			a.deps.Player.Stop()
		}
		a.deps.Runtime.Close()
	})
}

func (a *App) transition(to conversation.State) error {
	if err := a.machine.Transition(to); err != nil {
		return err
	}
	a.emit(Event{Kind: EventState, State: to})
	return nil
}

// rollback возвращает состояние после неудачной операции.
func (a *App) rollback(to conversation.State) {
	if err := a.transition(to); err != nil {
		log.Printf("Ошибка возврата состояния: %v", err)
	}
}

// fail показывает сообщение в интерфейсе и системное уведомление.
func (a *App) fail(title, message string) {
	a.mu.Lock()
	a.notice = &Notice{Title: title, Message: message}
	a.mu.Unlock()

	if a.deps.Notifier != nil {
		a.deps.Notifier.Error(title, message)
	}
	a.emit(Event{Kind: EventNotice})
}

// emit не блокирует: интерфейс перечитывает Snapshot.
func (a *App) emit(e Event) {
	select {
	case a.events <- e:
	default:
	}
}

func downloadMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientStorage):
		return i18n.Tf("error_storage", humanize.IBytes(models.MinFreeSpace))
	case errors.Is(err, models.ErrUnreachableSource):
		return i18n.T("error_unreachable")
	case errors.Is(err, models.ErrCorruptDownload):
		return i18n.T("error_corrupt")
	case errors.Is(err, models.ErrTransferTimeout):
		return i18n.T("error_timeout")
	default:
		return i18n.T("error_download")
	}
}

// removeRecording удаляет неудачную запись; ошибка только логируется.
func removeRecording(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ошибка удаления записи %s: %v", path, err)
	}
}
