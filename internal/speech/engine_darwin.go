//go:build darwin

package speech

import (
	"context"
	"os/exec"
	"strconv"
)

type sayEngine struct{}

func newEngine() (engine, error) {
	if _, err := exec.LookPath("say"); err != nil {
		return nil, err
	}
	return &sayEngine{}, nil
}

func (e *sayEngine) Name() string {
	return "say"
}

// Command использует голос системы по умолчанию; высота у say не настраивается.
func (e *sayEngine) Command(ctx context.Context, text string, v Voice) *exec.Cmd {
	return exec.CommandContext(ctx, "say", "-r", strconv.Itoa(wordsPerMinute(v.Rate)), "--", text)
}
