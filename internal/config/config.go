package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config is the firewallctl tool configuration. Every field has a usable
// default, so a missing file is not an error.
type Config struct {
	Connection ConnectionConfig
	Output     OutputConfig
	Advanced   AdvancedConfig
}

type ConnectionConfig struct {
	// Bus is "system" or "session". Address, when set, wins over Bus.
	Bus            string
	Address        string
	TimeoutSeconds int
	ReadRetries    int
	Authorize      bool
}

type OutputConfig struct {
	// Format is "table", "yaml" or "json".
	Format string
	Color  bool
}

type AdvancedConfig struct {
	LogLevel string
}

const (
	envConfig = "FIREWALLCTL_CONFIG"
	appDir    = "firewallctl"
	fileName  = "config.toml"
)

var outputFormats = []string{"table", "yaml", "json"}

func Default() Config {
	return Config{
		Connection: ConnectionConfig{
			Bus:            "system",
			TimeoutSeconds: 30,
			ReadRetries:    2,
			Authorize:      true,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
		},
		Advanced: AdvancedConfig{
			LogLevel: "",
		},
	}
}

// Timeout is the per-call timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Connection.TimeoutSeconds) * time.Second
}

func ResolvePath() (string, error) {
	if env := os.Getenv(envConfig); env != "" {
		return env, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Load reads the first config file found. It returns the config, warnings
// about ignored or corrected keys, the path used and whether a file was found.
func Load() (Config, []string, string, bool, error) {
	paths, err := candidatePaths()
	if err != nil {
		return Default(), nil, "", false, err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Default(), nil, "", false, err
		}
		cfg := Default()
		warnings, err := parse(string(data), &cfg)
		if err != nil {
			return Default(), nil, "", false, fmt.Errorf("parse %s: %w", path, err)
		}
		warnings = append(warnings, normalizeConfig(&cfg)...)
		return cfg, warnings, path, true, nil
	}
	return Default(), nil, "", false, nil
}

func normalizeConfig(cfg *Config) []string {
	warnings := make([]string, 0)
	def := Default()
	switch cfg.Connection.Bus {
	case "system", "session":
	default:
		warnings = append(warnings, fmt.Sprintf("connection.bus %q is not supported; using system", cfg.Connection.Bus))
		cfg.Connection.Bus = def.Connection.Bus
	}
	if cfg.Connection.TimeoutSeconds == 0 {
		warnings = append(warnings, fmt.Sprintf("connection.timeout_seconds must be positive; using %d", def.Connection.TimeoutSeconds))
		cfg.Connection.TimeoutSeconds = def.Connection.TimeoutSeconds
	}
	if !slices.Contains(outputFormats, cfg.Output.Format) {
		warnings = append(warnings, fmt.Sprintf("output.format %q is not supported; using table", cfg.Output.Format))
		cfg.Output.Format = def.Output.Format
	}
	return warnings
}

func parse(raw string, cfg *Config) ([]string, error) {
	section := ""
	var warnings []string
	lineNo := 0
	start := 0
	for {
		end := start
		for end < len(raw) && raw[end] != '\n' {
			end++
		}
		lineNo++
		line := raw[start:end]
		line = stripComment(line)
		line = strings.TrimSpace(line)
		if line == "" {
			if end == len(raw) {
				break
			}
			start = end + 1
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if end == len(raw) {
				break
			}
			start = end + 1
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return warnings, fmt.Errorf("line %d: expected key = value", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" {
			return warnings, fmt.Errorf("line %d: empty key", lineNo)
		}

		var err error
		switch section {
		case "connection":
			switch key {
			case "bus":
				cfg.Connection.Bus, err = parseString(value)
			case "address":
				cfg.Connection.Address, err = parseString(value)
			case "timeout_seconds":
				cfg.Connection.TimeoutSeconds, err = parseInt(value)
			case "read_retries":
				cfg.Connection.ReadRetries, err = parseInt(value)
			case "authorize":
				cfg.Connection.Authorize, err = parseBool(value)
			default:
				warnings = append(warnings, fmt.Sprintf("line %d: unknown connection key %q", lineNo, key))
			}
		case "output":
			switch key {
			case "format":
				cfg.Output.Format, err = parseString(value)
			case "color":
				cfg.Output.Color, err = parseBool(value)
			default:
				warnings = append(warnings, fmt.Sprintf("line %d: unknown output key %q", lineNo, key))
			}
		case "advanced":
			if key == "log_level" {
				cfg.Advanced.LogLevel, err = parseString(value)
			} else {
				warnings = append(warnings, fmt.Sprintf("line %d: unknown advanced key %q", lineNo, key))
			}
		default:
			warnings = append(warnings, fmt.Sprintf("line %d: unknown section %q", lineNo, section))
		}
		if err != nil {
			return warnings, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if end == len(raw) {
			break
		}
		start = end + 1
	}
	return warnings, nil
}

func candidatePaths() ([]string, error) {
	if env := os.Getenv(envConfig); env != "" {
		return []string{env}, nil
	}
	primary, err := ResolvePath()
	if err != nil {
		return nil, err
	}
	paths := []string{primary}
	if sudoPath, ok := sudoConfigPath(primary); ok {
		paths = append(paths, sudoPath)
	}
	return paths, nil
}

func sudoConfigPath(primary string) (string, bool) {
	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser == "" {
		return "", false
	}
	current := os.Getenv("USER")
	if current == sudoUser {
		return "", false
	}
	u, err := user.Lookup(sudoUser)
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	path := filepath.Join(u.HomeDir, ".config", appDir, fileName)
	if path == primary {
		return "", false
	}
	return path, true
}

func stripComment(line string) string {
	inQuotes := false
	escaped := false

	for i, r := range line {
		if escaped {
			escaped = false
			continue
		}
		if inQuotes && r == '\\' {
			escaped = true
			continue
		}
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if r == '#' && !inQuotes {
			return line[:i]
		}
	}

	return line
}

func parseString(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("empty string value")
	}
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
		unquotedFast := value[1 : len(value)-1]
		if !strings.Contains(unquotedFast, `\`) && !strings.Contains(unquotedFast, `"`) {
			return unquotedFast, nil
		}
		unquoted, err := strconv.Unquote(value)
		if err != nil {
			return "", fmt.Errorf("invalid string %q", value)
		}
		return unquoted, nil
	}
	return "", fmt.Errorf("string must be quoted")
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", value)
	}
}

func parseInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty number")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("number must be >= 0")
	}
	return n, nil
}
