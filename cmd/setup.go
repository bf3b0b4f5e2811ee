package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|text)" enum:"json,text" default:"json"`
	FilePath string `help:"Custom directory for the configuration file"`
	Watch    bool   `short:"w" help:"Have the client start the server with --watch"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(g *Globals) error {
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Format)
	}

	config := generateConfig(g.Ontology, c.Watch)

	// No client selected: print the config.
	if !c.Qwen && !c.Claude && !c.Cursor {
		content, err := renderConfig(config, c.Format)
		if err != nil {
			return err
		}
		_, err = g.out().Write(content)
		return err
	}

	if !c.Local && !c.Global {
		c.Local = true
	}

	for _, client := range []struct {
		name    string
		enabled bool
	}{
		{"qwen", c.Qwen},
		{"claude", c.Claude},
		{"cursor", c.Cursor},
	} {
		if !client.enabled {
			continue
		}
		if err := c.setupClient(g, client.name, config); err != nil {
			return err
		}
	}
	return nil
}

func (c *SetupCmd) setupClient(g *Globals, client string, config map[string]any) error {
	label := clientLabels[client]

	if c.Global {
		globalPath := getGlobalConfigPath(client)
		if err := writeConfig(globalPath, config, c.Format); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(g.out(), "✓ Created global %s MCP config at %s\n", label, globalPath)
	}

	if c.Local {
		localPath := getLocalConfigPath(".", client)
		if c.FilePath != "" {
			localPath = filepath.Join(c.FilePath, "mcp.json")
		}
		if err := writeConfig(localPath, config, c.Format); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(g.out(), "✓ Created local %s MCP config at %s\n", label, localPath)
	}
	return nil
}

var clientLabels = map[string]string{
	"qwen":   "Qwen",
	"claude": "Claude",
	"cursor": "Cursor",
}

// generateConfig returns the mcpServers entry that launches reposteria.
func generateConfig(ontology string, watch bool) map[string]any {
	args := []string{"mcp"}
	if watch {
		args = append(args, "--watch")
	}
	if ontology != "" {
		if abs, err := filepath.Abs(ontology); err == nil {
			ontology = abs
		}
		args = append(args, "--ontology", ontology)
	}
	return map[string]any{
		"mcpServers": map[string]any{
			"reposteria": map[string]any{
				"command": "reposteria",
				"args":    args,
			},
		},
	}
}

// Path helpers

func getLocalConfigPath(basePath, client string) string {
	return filepath.Join(basePath, getClientConfigDir(client), "mcp.json")
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	return filepath.Join(homeDir, getClientConfigDir(client), "global", "mcp.json")
}

func getClientConfigDir(client string) string {
	switch client {
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

// Config writers

func renderConfig(config map[string]any, format string) ([]byte, error) {
	if format == "json" {
		content, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return append(content, '\n'), nil
	}

	var sb strings.Builder
	sb.WriteString("# MCP Configuration for reposteria\n")
	sb.WriteString("# Generated by reposteria setup\n\n")
	for key, value := range config {
		sb.WriteString(fmt.Sprintf("%s: %s\n", key, toJSON(value)))
	}
	return []byte(sb.String()), nil
}

func writeConfig(configPath string, config map[string]any, format string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	content, err := renderConfig(config, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
