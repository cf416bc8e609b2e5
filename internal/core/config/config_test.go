package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "H3_RES", "CACHE_ENABLED", "KAFKA_BROKERS", "UTM_DATUM", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8090" || c.H3Res != 5 || c.Cache.Enabled || !c.Metrics.Enabled {
		t.Fatalf("defaults %+v", c)
	}
	if c.UTMDatum != "WGS 84" {
		t.Fatalf("datum=%q", c.UTMDatum)
	}
	if len(c.Kafka.Brokers) != 1 || c.Kafka.Brokers[0] != "localhost:9092" {
		t.Fatalf("brokers=%v", c.Kafka.Brokers)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("H3_RES", "99")
	t.Setenv("CACHE_ENABLED", "yes")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CACHE_OP_TIMEOUT", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("LRU_SIZE", "x")

	c := FromEnv()
	if c.H3Res != 15 {
		t.Fatalf("res=%d want clamp to 15", c.H3Res)
	}
	if !c.Cache.Enabled || c.Cache.TTL != 90*time.Second {
		t.Fatalf("cache %+v", c.Cache)
	}
	if c.Cache.OpTimeout != 250*time.Millisecond || c.Cache.LRUSize != 1024 {
		t.Fatalf("bad values should fall back: %+v", c.Cache)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers=%v", c.Kafka.Brokers)
	}
}
