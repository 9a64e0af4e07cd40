package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// ExecReauthenticator — запускает внешнюю программу входа через браузер и
// читает cookie из её stdout: строку заголовка Cookie либо
// JSON-массив объектов {"name","value"}.
type ExecReauthenticator struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewExecReauthenticator — разбить командную строку по пробелам; nil для пустой.
func NewExecReauthenticator(commandLine string, timeout time.Duration) *ExecReauthenticator {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	return &ExecReauthenticator{Command: fields[0], Args: fields[1:], Timeout: timeout}
}

func (e *ExecReauthenticator) Reauthenticate(ctx context.Context) (domain.Credential, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return domain.Credential{}, fmt.Errorf("login command: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseLoginOutput(stdout.Bytes())
}

func parseLoginOutput(out []byte) (domain.Credential, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return domain.Credential{}, fmt.Errorf("login command printed nothing")
	}
	if out[0] == '[' {
		var cookies []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(out, &cookies); err != nil {
			return domain.Credential{}, fmt.Errorf("decode login cookies: %w", err)
		}
		parts := make([]string, 0, len(cookies))
		for _, c := range cookies {
			if c.Name != "" {
				parts = append(parts, c.Name+"="+c.Value)
			}
		}
		return domain.Credential{Raw: strings.Join(parts, "; ")}, nil
	}
	// последняя непустая строка; до неё скрипты входа печатают прогресс
	lines := strings.Split(string(out), "\n")
	return domain.Credential{Raw: strings.TrimSpace(lines[len(lines)-1])}, nil
}

var _ domain.Reauthenticator = (*ExecReauthenticator)(nil)
