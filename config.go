package main

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	ServerURL       string
	CacheDirectory  string
	Email           string
	Token           string
	CellWidth       float64
	CellHeight      float64
	ExportDirectory string
	Confirmations   bool
	LogFile         string
}

func defaultConfig(homeDir string) *Config {
	config := &Config{
		ServerURL:     "http://localhost:8080/api",
		CellWidth:     10,
		CellHeight:    20,
		Confirmations: true,
	}
	if homeDir != "" {
		config.CacheDirectory = filepath.Join(homeDir, ".mindcanvas", "cache")
		config.LogFile = filepath.Join(homeDir, ".mindcanvas", "mindcanvas.log")
	}
	return config
}

func loadConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultConfig("")
	}

	file, err := os.Open(filepath.Join(homeDir, ".mindcanvasrc"))
	if err != nil {
		return defaultConfig(homeDir)
	}
	defer file.Close()

	return parseConfig(file, homeDir)
}

// parseConfig reads key=value lines over the defaults. Keys are case
// insensitive; unknown keys and malformed lines are skipped.
func parseConfig(r io.Reader, homeDir string) *Config {
	config := defaultConfig(homeDir)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch strings.ToLower(key) {
		case "serverurl", "server_url", "server":
			config.ServerURL = strings.TrimRight(value, "/")
		case "cachedirectory", "cache_directory", "cachedir":
			config.CacheDirectory = expandPath(value, homeDir)
		case "email":
			config.Email = value
		case "token":
			config.Token = value
		case "cellwidth", "cell_width":
			if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
				config.CellWidth = v
			}
		case "cellheight", "cell_height":
			if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
				config.CellHeight = v
			}
		case "exportdirectory", "export_directory", "exportdir":
			config.ExportDirectory = expandPath(value, homeDir)
		case "confirmations", "confirm":
			config.Confirmations = strings.ToLower(value) == "true"
		case "logfile", "log_file":
			config.LogFile = expandPath(value, homeDir)
		}
	}

	return config
}

func expandPath(value, homeDir string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "~") && homeDir != "" {
		value = filepath.Join(homeDir, strings.TrimPrefix(value, "~"))
	}
	if !filepath.IsAbs(value) {
		if absPath, err := filepath.Abs(value); err == nil {
			value = absPath
		}
	}
	return value
}

func (c *Config) GetExportPath(filename string) string {
	if c.ExportDirectory == "" {
		return filename
	}
	os.MkdirAll(c.ExportDirectory, 0755)
	return filepath.Join(c.ExportDirectory, filename)
}
