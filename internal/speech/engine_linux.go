//go:build linux

package speech

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

type espeakEngine struct {
	binary string
}

func newEngine() (engine, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return &espeakEngine{binary: path}, nil
		}
	}
	return nil, exec.ErrNotFound
}

func (e *espeakEngine) Name() string {
	return e.binary
}

func (e *espeakEngine) Command(ctx context.Context, text string, v Voice) *exec.Cmd {
	pitch := int(v.Pitch * 50)
	if pitch > 99 {
		pitch = 99
	}
	if pitch < 0 {
		pitch = 0
	}

	args := []string{
		"-s", strconv.Itoa(wordsPerMinute(v.Rate)),
		"-p", strconv.Itoa(pitch),
	}
	if v.Language != "" {
		args = append(args, "-v", strings.ToLower(v.Language))
	}
	args = append(args, "--", text)
	return exec.CommandContext(ctx, e.binary, args...)
}
