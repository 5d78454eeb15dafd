package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// chatSession отправляет запросы в OpenAI-совместимый API локального сервера.
type chatSession struct {
	client  openai.Client
	model   string
	release func() error

	mu     sync.Mutex
	closed bool
}

func newChatSession(baseURL, model string, release func() error) *chatSession {
	client := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1/"),
		option.WithAPIKey("local"),
		option.WithMaxRetries(0),
	)
	return &chatSession{client: client, model: model, release: release}
}

// Complete возвращает ответ модели. Пустой ответ не считается ошибкой.
func (s *chatSession) Complete(ctx context.Context, messages []Message, p Params) (string, error) {
	return s.complete(ctx, toParams(messages), p)
}

// CompleteAudio прикладывает запись к последнему сообщению пользователя.
func (s *chatSession) CompleteAudio(ctx context.Context, messages []Message, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: read audio: %v", ErrInference, err)
	}

	audio := openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
		Data:   base64.StdEncoding.EncodeToString(data),
		Format: audioFormat(audioPath),
	})

	last := -1
	for i, m := range messages {
		if m.Role == RoleUser {
			last = i
		}
	}

	params := toParams(messages)
	if last < 0 {
		params = append(params, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{audio}))
	} else {
		parts := []openai.ChatCompletionContentPartUnionParam{audio}
		if text := strings.TrimSpace(messages[last].Content); text != "" && text != AudioMarker {
			parts = append([]openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text)}, parts...)
		}
		params[last] = openai.UserMessage(parts)
	}

	return s.complete(ctx, params, Params{})
}

func (s *chatSession) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p Params) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", fmt.Errorf("%w: %w", ErrInference, ErrSessionClosed)
	}

	req := openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	}
	if p.Temperature > 0 {
		req.Temperature = openai.Float(p.Temperature)
	}
	if p.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(p.MaxTokens))
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Printf("LLM: ответ за %v (%d символов)", time.Since(start).Round(time.Millisecond), len(text))
	return text, nil
}

// Release закрывает сессию один раз.
func (s *chatSession) Release() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.release == nil {
		return nil
	}
	return s.release()
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func audioFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return "mp3"
	}
	return "wav"
}
