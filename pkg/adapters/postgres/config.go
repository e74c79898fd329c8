package postgres

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds PostgreSQL connection settings.
// Parsed from store.params in config.json using mapstructure.
type Params struct {
	// DSN is a complete connection string. It overrides every other field.
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	// Schema sets search_path, so tables land outside public.
	Schema string `mapstructure:"schema"`
}

// ParseParams decodes raw store params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           p,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid postgres params: %w", err)
	}
	return p, nil
}

// isURL reports whether s is a postgres:// connection URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// buildDSN returns the connection string for a store. A postgres:// URL in
// path wins over params. When readOnly is set every transaction of the
// session is read-only.
func buildDSN(path string, p *Params, readOnly bool) (string, error) {
	switch {
	case isURL(path):
		if !readOnly {
			return path, nil
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + "default_transaction_read_only=on", nil

	case p.DSN != "":
		if isURL(p.DSN) {
			return buildDSN(p.DSN, &Params{}, readOnly)
		}
		if readOnly {
			return p.DSN + " default_transaction_read_only=on", nil
		}
		return p.DSN, nil
	}

	if p.Database == "" {
		return "", fmt.Errorf("postgres store requires a postgres:// database URL or store.params.database")
	}

	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	parts := []string{
		"host=" + quoteValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + quoteValue(p.Database),
		"sslmode=" + quoteValue(sslmode),
	}
	if p.User != "" {
		parts = append(parts, "user="+quoteValue(p.User))
	}
	if p.Password != "" {
		parts = append(parts, "password="+quoteValue(p.Password))
	}
	if p.Schema != "" {
		parts = append(parts, "search_path="+quoteValue(p.Schema))
	}
	if readOnly {
		parts = append(parts, "default_transaction_read_only=on")
	}
	return strings.Join(parts, " "), nil
}

// quoteValue quotes a keyword/value connection string value when needed.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
