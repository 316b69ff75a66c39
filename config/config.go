package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CacheTTLs carries one freshness window per cached read path. These are
// policy constants, tunable per deployment, not invariants.
type CacheTTLs struct {
	Search       time.Duration
	Detail       time.Duration
	Bounds       time.Duration
	Clusters     time.Duration
	Autocomplete time.Duration
	Facets       time.Duration
}

type Config struct {
	Port string

	MongoURI  string
	MongoDB   string
	MongoColl struct {
		Properties string
		Favorites  string
		Contacts   string
	}

	RedisAddr     string
	RedisPassword string

	// AMQPURL enables the engagement event queue when non-empty.
	AMQPURL         string
	EngagementQueue string

	JWTSecret string

	TTL          CacheTTLs
	QueryTimeout time.Duration

	// Cluster grid tuning: cell size in degrees at zoom 0, halved per zoom
	// step, never below the minimum.
	ClusterBaseCellDeg float64
	ClusterMinCellDeg  float64
	ClusterMaxSample   int
	ClusterFetchLimit  int64

	AutocompleteMinLen int
	AutocompleteMax    int
}

func Load() Config {
	var cfg Config
	cfg.Port = envStr("PORT", "8080")

	cfg.MongoURI = envStr("MONGODB_URI", "mongodb://localhost:27017")
	cfg.MongoDB = envStr("MONGODB_DATABASE", "propertysearch")
	cfg.MongoColl.Properties = envStr("MONGODB_COLLECTION_PROPERTIES", "properties")
	cfg.MongoColl.Favorites = envStr("MONGODB_COLLECTION_FAVORITES", "favorites")
	cfg.MongoColl.Contacts = envStr("MONGODB_COLLECTION_CONTACTS", "contacts")

	cfg.RedisAddr = envStr("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.AMQPURL = os.Getenv("ENGAGEMENT_AMQP_URL")
	cfg.EngagementQueue = envStr("ENGAGEMENT_QUEUE", "engagement_events")

	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	cfg.TTL = CacheTTLs{
		Search:       envDur("SEARCH_CACHE_TTL", 5*time.Minute),
		Detail:       envDur("DETAIL_CACHE_TTL", 60*time.Minute),
		Bounds:       envDur("BOUNDS_CACHE_TTL", 3*time.Minute),
		Clusters:     envDur("CLUSTERS_CACHE_TTL", 5*time.Minute),
		Autocomplete: envDur("AUTOCOMPLETE_CACHE_TTL", 24*time.Hour),
		Facets:       envDur("FACETS_CACHE_TTL", 10*time.Minute),
	}
	cfg.QueryTimeout = envDur("QUERY_TIMEOUT", 5*time.Second)

	cfg.ClusterBaseCellDeg = envFloat("CLUSTER_BASE_CELL_DEG", 360)
	cfg.ClusterMinCellDeg = envFloat("CLUSTER_MIN_CELL_DEG", 0.0005)
	cfg.ClusterMaxSample = envInt("CLUSTER_MAX_SAMPLE_IDS", 10)
	cfg.ClusterFetchLimit = int64(envInt("CLUSTER_FETCH_LIMIT", 500))

	cfg.AutocompleteMinLen = envInt("AUTOCOMPLETE_MIN_LEN", 2)
	cfg.AutocompleteMax = envInt("AUTOCOMPLETE_MAX_SUGGESTIONS", 10)

	return cfg
}

// ConnectMongo dials the configured MongoDB deployment and verifies it with
// a ping before returning the database handle.
func ConnectMongo(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(cfg.MongoDB), nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
