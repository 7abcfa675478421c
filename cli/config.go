package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
//
// Precedence (highest to lowest): environment variables with the
// RENTASCOUT_ prefix, the rentascout.yaml config file, defaults. A .env
// file in the working directory is loaded into the environment first.
type Config struct {
	Fetcher struct {
		URL string
	}
	OpenAI struct {
		BaseURL   string
		APIKeyEnv string
		Model     string
	}
	Qdrant struct {
		Addr       string
		Collection string
		Dims       int
	}
	Neo4j struct {
		URI  string
		User string
		Pass string
	}
	NATS struct {
		URL string // empty disables event publishing
	}
	Ingest struct {
		Delay        time.Duration
		RefetchKnown bool
	}
	Server struct {
		Listen      string
		MetricsPort int
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetcher.url", "http://localhost:9000")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("openai.model", "text-embedding-3-small")
	v.SetDefault("qdrant.addr", "localhost:6334")
	v.SetDefault("qdrant.collection", "vehicles")
	v.SetDefault("qdrant.dims", 1536) // text-embedding-3-small
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.pass", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("ingest.delay", "500ms")
	v.SetDefault("ingest.refetch_known", false)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.metrics_port", 9091)
}

// LoadConfig reads configuration from defaults, rentascout.yaml (searched
// in the working directory), and RENTASCOUT_* environment variables.
func LoadConfig() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("rentascout")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("RENTASCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	cfg.Fetcher.URL = v.GetString("fetcher.url")
	cfg.OpenAI.BaseURL = v.GetString("openai.base_url")
	cfg.OpenAI.APIKeyEnv = v.GetString("openai.api_key_env")
	cfg.OpenAI.Model = v.GetString("openai.model")
	cfg.Qdrant.Addr = v.GetString("qdrant.addr")
	cfg.Qdrant.Collection = v.GetString("qdrant.collection")
	cfg.Qdrant.Dims = v.GetInt("qdrant.dims")
	cfg.Neo4j.URI = v.GetString("neo4j.uri")
	cfg.Neo4j.User = v.GetString("neo4j.user")
	cfg.Neo4j.Pass = v.GetString("neo4j.pass")
	cfg.NATS.URL = v.GetString("nats.url")
	cfg.Ingest.Delay = v.GetDuration("ingest.delay")
	cfg.Ingest.RefetchKnown = v.GetBool("ingest.refetch_known")
	cfg.Server.Listen = v.GetString("server.listen")
	cfg.Server.MetricsPort = v.GetInt("server.metrics_port")
	return cfg, nil
}
