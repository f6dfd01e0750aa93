package postgres

import (
	"fmt"
	"net/url"

	"github.com/GoSim-25-26J-441/projects-backend/config"
)

// DSN prefers DATABASE_URL and otherwise assembles a URL from the DB_* parts.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
