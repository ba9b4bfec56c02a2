// Package migrate folds older bridge setups into a single YAML config.
package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinyland-inc/chibi-xmpp/pkg/config"
)

// ToYAMLOptions controls config migration.
type ToYAMLOptions struct {
	ConfigPath string // source config (JSON or YAML)
	OutputPath string // default: ConfigPath with a .yaml extension
	DryRun     bool
	Force      bool
	Out        io.Writer // dry-run output; default os.Stdout
}

// ToYAMLResult summarizes the conversion.
type ToYAMLResult struct {
	OutputPath     string
	FoldedMappings int
	Warnings       []string
}

// RunToYAML loads a config, merges its legacy mappings file into the
// mappings table and writes the result as one YAML document.
func RunToYAML(opts ToYAMLOptions) (*ToYAMLResult, error) {
	if opts.ConfigPath == "" {
		return nil, errors.New("config path is required")
	}
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = strings.TrimSuffix(opts.ConfigPath, filepath.Ext(opts.ConfigPath)) + ".yaml"
	}
	if outputPath == opts.ConfigPath && !opts.Force {
		return nil, fmt.Errorf("output would overwrite the source config %s (use --force)", outputPath)
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	inline, err := inlineMappings(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	result := &ToYAMLResult{OutputPath: outputPath}
	for jid := range cfg.Mappings {
		if _, ok := inline[jid]; !ok {
			result.FoldedMappings++
		}
	}
	if result.FoldedMappings > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d mapping(s) folded in from %s; that file is no longer needed", result.FoldedMappings, cfg.MappingsFile))
	}

	data, err := render(cfg, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		_, err := out.Write(data)
		return result, err
	}

	if !opts.Force {
		if _, err := os.Stat(outputPath); err == nil {
			return nil, fmt.Errorf("output file already exists: %s (use --force to overwrite)", outputPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return nil, err
	}
	return result, nil
}

// inlineMappings returns the mapping keys written in the source file itself,
// before the legacy file was merged in.
func inlineMappings(path string) (map[string]struct{}, error) {
	cfg := config.DefaultConfig()
	if err := config.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(cfg.Mappings))
	for jid := range cfg.Mappings {
		keys[jid] = struct{}{}
	}
	return keys, nil
}

func render(cfg *config.Config, source string) ([]byte, error) {
	out := *cfg
	// The mappings now live inline.
	out.MappingsFile = ""

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# chibi-xmpp bridge configuration (generated from %s)\n", source)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
