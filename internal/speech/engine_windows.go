//go:build windows

package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Текст передаётся через stdin, чтобы не экранировать его для PowerShell.
const speakScript = `Add-Type -AssemblyName System.Speech; ` +
	`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ` +
	`$s.Rate = %d; ` +
	`$s.Speak([Console]::In.ReadToEnd())`

type sapiEngine struct{}

func newEngine() (engine, error) {
	if _, err := exec.LookPath("powershell"); err != nil {
		return nil, err
	}
	return &sapiEngine{}, nil
}

func (e *sapiEngine) Name() string {
	return "System.Speech"
}

func (e *sapiEngine) Command(ctx context.Context, text string, v Voice) *exec.Cmd {
	// SAPI принимает скорость от -10 до 10
	rate := int((v.Rate - 0.5) * 20)
	if rate > 10 {
		rate = 10
	}
	if rate < -10 {
		rate = -10
	}

	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive",
		"-Command", fmt.Sprintf(speakScript, rate))
	cmd.Stdin = strings.NewReader(text)
	return cmd
}
