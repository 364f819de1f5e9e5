package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/standardbots/sb-mcp/internal/client"
	"github.com/standardbots/sb-mcp/internal/common"
)

// RobotConfig holds the connection settings for the Standard Bots controller.
type RobotConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	Kind   string `toml:"kind"`
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port string `toml:"port"`
}

// Config holds all sb-mcp configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Robot   RobotConfig          `toml:"robot"`
	Logging common.LoggingConfig `toml:"logging"`
}

// newDefaultConfig returns a Config with sensible defaults.
func newDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name: "Standard-Bots-MCP",
			Port: "8000",
		},
		Robot: RobotConfig{
			Kind: "live",
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/sb-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// loadConfig loads configuration from a TOML file with defaults and env
// overrides.
func loadConfig(path string) Config {
	cfg := newDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Fatalf("Failed to read config file %s: %v", path, err)
			}
			// File not found — use defaults
		} else {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				log.Fatalf("Failed to parse config file %s: %v", path, err)
			}
		}
	}

	// Environment overrides
	if url := os.Getenv("STANDARD_BOTS_URL"); url != "" {
		cfg.Robot.URL = url
	}
	if key := os.Getenv("STANDARD_BOTS_API_KEY"); key != "" {
		cfg.Robot.APIKey = key
	}
	if kind := os.Getenv("STANDARD_BOTS_ROBOT_KIND"); kind != "" {
		cfg.Robot.Kind = kind
	}
	if port := os.Getenv("SB_MCP_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if level := os.Getenv("SB_MCP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg
}

func main() {
	httpMode := flag.Bool("http", false, "Use Streamable HTTP transport instead of stdio")
	configFile := flag.String("config", "sb-mcp.toml", "Path to config file")
	robotURL := flag.String("url", "", "Standard Bots controller URL (overrides config and STANDARD_BOTS_URL)")
	apiKey := flag.String("api-key", "", "Standard Bots API key (overrides config and STANDARD_BOTS_API_KEY)")
	port := flag.String("port", "", "Port for HTTP transport (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configFile)

	// Explicit flags take precedence over config file and environment
	if *robotURL != "" {
		cfg.Robot.URL = *robotURL
	}
	if *apiKey != "" {
		cfg.Robot.APIKey = *apiKey
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	// Fail fast on missing URL/key rather than deferring to the first call
	sb, err := client.NewStandardBotsClient(cfg.Robot.URL, cfg.Robot.APIKey, cfg.Robot.Kind, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Standard Bots URL and API key must be provided via flags, config file, or STANDARD_BOTS_URL / STANDARD_BOTS_API_KEY environment variables (%v)\n", err)
		os.Exit(1)
	}

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	registerTools(mcpServer, sb, logger)

	logger.Info().
		Str("controller", sb.BaseURL()).
		Str("robot_kind", cfg.Robot.Kind).
		Msg("Standard Bots MCP server starting")

	if !*httpMode {
		// Stdio transport — reads stdin, writes stdout
		if err := server.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Streamable HTTP transport — listens on configured port
	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)

	fmt.Fprintf(os.Stderr, "Starting MCP Streamable HTTP on :%s\n", cfg.Server.Port)

	if err := httpServer.Start(":" + cfg.Server.Port); err != nil {
		fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
		os.Exit(1)
	}
}
