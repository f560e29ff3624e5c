package postgres

import (
	"fmt"
	"net/url"
	"strconv"
)

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("PostgreSQL host is required")
	}

	if c.Port <= 0 {
		c.Port = 5432
	}

	if c.Database == "" {
		return fmt.Errorf("PostgreSQL database name is required")
	}

	if c.Username == "" {
		return fmt.Errorf("PostgreSQL username is required")
	}

	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}

	return nil
}

func (c *Config) GetType() string {
	return "postgres"
}

// GetConnectionString returns a postgres:// URL understood by pgxpool
func (c *Config) GetConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(int(c.MaxConns)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func NewConfigFromURL(connStr string) (*Config, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL URL: %w", err)
	}
	if len(u.Path) < 2 {
		return nil, fmt.Errorf("PostgreSQL URL has no database name")
	}

	config := &Config{
		Host:     u.Hostname(),
		Database: u.Path[1:],
		Username: u.User.Username(),
		Port:     5432,
		SSLMode:  "prefer",
	}

	if u.Port() != "" {
		if port, err := strconv.Atoi(u.Port()); err == nil {
			config.Port = port
		}
	}

	if password, ok := u.User.Password(); ok {
		config.Password = password
	}

	if sslMode := u.Query().Get("sslmode"); sslMode != "" {
		config.SSLMode = sslMode
	}

	return config, nil
}

// NewConfigFromGeneric reads the keys written by storage.NewStore
func NewConfigFromGeneric(gc map[string]interface{}) *Config {
	get := func(key string) string {
		s, _ := gc[key].(string)
		return s
	}

	config := &Config{
		Host:     get("host"),
		Database: get("database"),
		Username: get("username"),
		Password: get("password"),
		SSLMode:  get("sslmode"),
	}
	if port, err := strconv.Atoi(get("port")); err == nil {
		config.Port = port
	}
	return config
}

func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		Database: "game_releases",
		Username: "postgres",
		Password: "",
		SSLMode:  "prefer",
	}
}
