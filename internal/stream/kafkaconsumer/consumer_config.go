package kafkaconsumer

import (
	"time"

	"github.com/mohammed-shakir/seamfix/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	ResultTopic         string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
}

func FromConfig(k config.KafkaCfg) Config {
	return Config{
		Brokers:             k.Brokers,
		Topic:               k.Topic,
		ResultTopic:         k.ResultTopic,
		GroupID:             k.GroupID,
		SessionTimeout:      30 * time.Second,
		Heartbeat:           3 * time.Second,
		RebalanceTimeout:    30 * time.Second,
		InitialOffsetOldest: true,
		DedupeSize:          k.DedupeSize,
	}
}
