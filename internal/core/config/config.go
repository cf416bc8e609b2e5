package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CacheCfg struct {
	Enabled   bool
	RedisAddr string
	TTL       time.Duration
	OpTimeout time.Duration
	LRUSize   int
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type KafkaCfg struct {
	Enabled     bool
	Brokers     []string
	Topic       string
	ResultTopic string
	GroupID     string
	DedupeSize  int
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	H3Res           int
	UTMDatum        string
	CRSDefinitions  string
	ShutdownTimeout time.Duration
	Cache           CacheCfg
	Metrics         MetricsCfg
	Kafka           KafkaCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 5)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		H3Res:           res,
		UTMDatum:        getenv("UTM_DATUM", "WGS 84"),
		CRSDefinitions:  getenv("CRS_DEFINITIONS_FILE", ""),
		ShutdownTimeout: getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Cache: CacheCfg{
			Enabled:   getbool("CACHE_ENABLED", false),
			RedisAddr: getenv("REDIS_ADDR", ""),
			TTL:       getduration("CACHE_TTL", 10*time.Minute),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			LRUSize:   getint("LRU_SIZE", 1024),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		Kafka: KafkaCfg{
			Enabled:     getbool("KAFKA_ENABLED", false),
			Brokers:     splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:       getenv("KAFKA_TOPIC", "seam-jobs"),
			ResultTopic: getenv("KAFKA_RESULT_TOPIC", "seam-results"),
			GroupID:     getenv("KAFKA_GROUP_ID", "seam-worker"),
			DedupeSize:  getint("KAFKA_DEDUPE_SIZE", 4096),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// split "a:9092, b:9092" into a trimmed list
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
