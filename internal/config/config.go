package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"csfe-soap/internal/consts"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	SOAPPort  int    `yaml:"soap_port"`
	RESTPort  int    `yaml:"rest_port"`
	SFTPPort  int    `yaml:"sftp_port"`
	AuthToken string `yaml:"auth_token"`
}

type ClientConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	AuthToken    string        `yaml:"auth_token"`
	Timeout      time.Duration `yaml:"timeout"`
	Attempts     uint          `yaml:"attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	StrictFaults bool          `yaml:"strict_faults"`
}

type SFTPConfig struct {
	Root        string `yaml:"root"`
	HostKeyPath string `yaml:"host_key_path"`
	KnownHosts  string `yaml:"known_hosts"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ServiceEntry struct {
	Name       string   `yaml:"name"`
	Path       string   `yaml:"path"`
	MaxRetries int      `yaml:"max_retries"`
	Env        []string `yaml:"env,omitempty"`
}

type Config struct {
	Server       ServerConfig   `yaml:"server"`
	Client       ClientConfig   `yaml:"client"`
	SFTP         SFTPConfig     `yaml:"sftp"`
	Logging      LogConfig      `yaml:"logging"`
	Services     []ServiceEntry `yaml:"services"`
	RestartDelay time.Duration  `yaml:"restart_delay"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML config file, then applies defaults and environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv loads the file named by CONFIG_PATH, or the defaults when it is
// unset.
func FromEnv() (*Config, error) {
	if path := GetEnvOrDefaultAsString("CONFIG_PATH", ""); path != "" {
		return Load(path)
	}
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.SOAPPort == 0 {
		cfg.Server.SOAPPort = consts.SOAP_PORT
	}
	if cfg.Server.RESTPort == 0 {
		cfg.Server.RESTPort = consts.HTTP_PORT
	}
	if cfg.Server.SFTPPort == 0 {
		cfg.Server.SFTPPort = consts.SFTP_PORT
	}
	cfg.Server.SOAPPort = GetEnvOrDefaultAsInt("SOAP_PORT", cfg.Server.SOAPPort)
	cfg.Server.RESTPort = GetEnvOrDefaultAsInt("REST_PORT", cfg.Server.RESTPort)
	cfg.Server.SFTPPort = GetEnvOrDefaultAsInt("SFTP_PORT", cfg.Server.SFTPPort)
	cfg.Server.AuthToken = GetEnvOrDefaultAsString("SERVER_AUTH_TOKEN", cfg.Server.AuthToken)

	if cfg.Client.Endpoint == "" {
		cfg.Client.Endpoint = fmt.Sprintf("http://localhost:%d%s", cfg.Server.SOAPPort, consts.SOAP_PATH)
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 10 * time.Second
	}
	if cfg.Client.Attempts == 0 {
		cfg.Client.Attempts = 3
	}
	if cfg.Client.RetryDelay == 0 {
		cfg.Client.RetryDelay = 200 * time.Millisecond
	}
	cfg.Client.Endpoint = GetEnvOrDefaultAsString("CSFE_ENDPOINT", cfg.Client.Endpoint)
	cfg.Client.AuthToken = GetEnvOrDefaultAsString("CSFE_AUTH_TOKEN", cfg.Client.AuthToken)

	if cfg.SFTP.User == "" {
		cfg.SFTP.User = "testuser"
	}
	cfg.SFTP.Root = GetEnvOrDefaultAsString("SFTP_ROOT", cfg.SFTP.Root)
	cfg.SFTP.HostKeyPath = GetEnvOrDefaultAsString("SFTP_HOST_KEY", cfg.SFTP.HostKeyPath)
	cfg.SFTP.KnownHosts = GetEnvOrDefaultAsString("SFTP_KNOWN_HOSTS", cfg.SFTP.KnownHosts)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = GetEnvOrDefaultAsString("LOGGING_LEVEL", cfg.Logging.Level)

	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 2 * time.Second
	}
}

func (cfg *Config) Validate() error {
	for _, port := range []int{cfg.Server.SOAPPort, cfg.Server.RESTPort, cfg.Server.SFTPPort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
	}
	if cfg.Client.Endpoint == "" {
		return fmt.Errorf("client.endpoint required")
	}
	for i, svc := range cfg.Services {
		if svc.Name == "" || svc.Path == "" {
			return fmt.Errorf("services[%d]: name and path required", i)
		}
	}
	return nil
}

func GetEnvOrDefaultAsString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
