package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Wizard interactively collects a Config from a reader, defaulting to
// stdin. It is driven by `runtimectl configure`.
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a Wizard reading from stdin.
func NewWizard() *Wizard {
	return &Wizard{reader: bufio.NewReader(os.Stdin)}
}

// NewWizardFromReader creates a Wizard reading from an arbitrary source,
// for tests.
func NewWizardFromReader(r io.Reader) *Wizard {
	return &Wizard{reader: bufio.NewReader(r)}
}

// Run prompts for each configuration field and returns the assembled,
// as-yet-unvalidated Config.
func (w *Wizard) Run() (*Config, error) {
	cfg := DefaultConfig()

	fmt.Println("Runtime configuration wizard")
	fmt.Println("=============================")
	fmt.Println()

	agentID, err := w.prompt("Agent ID", cfg.AgentID)
	if err != nil {
		return nil, err
	}
	cfg.AgentID = agentID

	dataDir, err := w.prompt("Data directory", cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir

	logLevel, err := w.prompt("Log level (trace/debug/info/warn/error)", cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = logLevel

	enableWebhook, err := w.promptBool("Enable webhook signal source?", cfg.Webhook.Enabled)
	if err != nil {
		return nil, err
	}
	cfg.Webhook.Enabled = enableWebhook
	if enableWebhook {
		port, err := w.promptInt("Webhook port", cfg.Webhook.Port)
		if err != nil {
			return nil, err
		}
		cfg.Webhook.Port = port
	}

	enableGateway, err := w.promptBool("Enable gateway (WebSocket) signal source?", cfg.Gateway.Enabled)
	if err != nil {
		return nil, err
	}
	cfg.Gateway.Enabled = enableGateway
	if enableGateway {
		port, err := w.promptInt("Gateway port", cfg.Gateway.Port)
		if err != nil {
			return nil, err
		}
		cfg.Gateway.Port = port

		secret, err := w.prompt("Gateway shared secret", "")
		if err != nil {
			return nil, err
		}
		cfg.Gateway.SharedSecret = secret
	}

	fmt.Println()
	return cfg, nil
}

func (w *Wizard) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := w.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (w *Wizard) promptBool(label string, def bool) (bool, error) {
	defText := "y/N"
	if def {
		defText = "Y/n"
	}
	fmt.Printf("%s [%s]: ", label, defText)

	line, err := w.readLine()
	if err != nil {
		return false, err
	}
	if line == "" {
		return def, nil
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}

func (w *Wizard) promptInt(label string, def int) (int, error) {
	fmt.Printf("%s [%d]: ", label, def)

	line, err := w.readLine()
	if err != nil {
		return 0, err
	}
	if line == "" {
		return def, nil
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", line, err)
	}
	return n, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
