// Package kafkaconsumer runs correction jobs read from Kafka through the
// seam service and publishes one result per job.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	obs "github.com/mohammed-shakir/seamfix/internal/core/observability"
	mylog "github.com/mohammed-shakir/seamfix/internal/logger"
	"github.com/mohammed-shakir/seamfix/internal/service"
)

// Operator is the part of the service the worker needs.
type Operator interface {
	Handle(ctx context.Context, op service.Op, req model.Request) (any, error)
}

type Options struct {
	Logger  *slog.Logger
	ZeroLog *zerolog.Logger
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	zlog   *zerolog.Logger
	svc    Operator
	pub    Publisher
	dedupe *jobDedupe

	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a consumer. pub may be nil, in which case Start creates a
// sarama SyncProducer for cfg.ResultTopic.
func New(cfg Config, svc Operator, pub Publisher, opts Options) *Consumer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ZeroLog == nil {
		nop := zerolog.Nop()
		opts.ZeroLog = &nop
	}
	return &Consumer{
		cfg:    cfg,
		logger: opts.Logger,
		zlog:   opts.ZeroLog,
		svc:    svc,
		pub:    pub,
		dedupe: newJobDedupe(cfg.DedupeSize),
		assign: map[int32]struct{}{},
	}
}

// Start joins the consumer group and returns once the consume loop runs in
// the background. Stop ends it.
func (c *Consumer) Start(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("kafkaconsumer: missing service")
	}
	if len(c.cfg.Brokers) == 0 || c.cfg.Topic == "" || c.cfg.ResultTopic == "" {
		return errors.New("kafkaconsumer: brokers, topic and result topic are required")
	}

	var producer sarama.SyncProducer
	if c.pub == nil {
		p, err := sarama.NewSyncProducer(c.cfg.Brokers, producerConfig())
		if err != nil {
			return fmt.Errorf("create result producer: %w", err)
		}
		producer = p
		c.pub = NewPublisher(p, c.cfg.ResultTopic)
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		if producer != nil {
			_ = producer.Close()
		}
		return fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(mylog.WithComponent(ctx, "kafka_consumer"))
	c.cancel = cancel

	h := &groupHandler{
		setup:   c.setup,
		cleanup: c.cleanup,
		process: c.ProcessOne,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				c.logger.Error("kafka consumer group close", "err", err)
			}
			if producer != nil {
				if err := producer.Close(); err != nil {
					c.logger.Error("kafka result producer close", "err", err)
				}
			}
		}()

		for {
			if err := group.Consume(ctx, []string{c.cfg.Topic}, h); err != nil {
				mylog.FromContext(ctx, c.zlog).Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range group.Errors() {
			obs.IncKafkaConsumerError("group")
			c.logger.Error("kafka group error", "err", err)
		}
	}()

	c.logger.Info("kafka correction consumer started",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "results", c.cfg.ResultTopic, "group", c.cfg.GroupID)
	return nil
}

func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("kafka correction consumer stopped")
}

// Readiness reports whether the group handed this member any partitions.
func (c *Consumer) Readiness() (ready bool, partitions []int32) {
	if !c.assigned.Load() {
		return false, nil
	}
	c.assignMu.RLock()
	defer c.assignMu.RUnlock()
	for p := range c.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

func (c *Consumer) setup(sess sarama.ConsumerGroupSession) {
	c.assignMu.Lock()
	defer c.assignMu.Unlock()
	c.assigned.Store(true)
	c.assign = map[int32]struct{}{}
	for _, parts := range sess.Claims() {
		for _, p := range parts {
			c.assign[p] = struct{}{}
		}
	}
}

func (c *Consumer) cleanup(sarama.ConsumerGroupSession) {
	c.assignMu.Lock()
	defer c.assignMu.Unlock()
	c.assigned.Store(false)
	c.assign = map[int32]struct{}{}
}

// ProcessOne runs a single job message. Jobs that cannot be decoded or
// fail validation still get an error result so the message is not retried
// forever. Only a failed publish is returned as an error.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		obs.IncKafkaConsumerError("decode")
		c.logKafkaError(ctx, "decode", msg, err)
		id := messageID(msg)
		return c.publish(ctx, id, "unknown", errorResult(id, "", fmt.Errorf("%w: %w", service.ErrInvalidInput, err)))
	}

	op, err := job.Validate()
	if err != nil {
		obs.IncKafkaConsumerError("validate")
		c.logKafkaError(ctx, "validate", msg, err)
		id := job.ID
		if id == "" {
			id = messageID(msg)
		}
		return c.publish(ctx, id, "unknown", errorResult(id, job.Op, err))
	}

	if c.dedupe.seen(job.ID) {
		obs.IncKafkaJob(string(op), "duplicate")
		c.logger.DebugContext(ctx, "skipping duplicate job", "job_id", job.ID)
		return nil
	}

	ctx = mylog.WithOperation(mylog.WithJobID(ctx, job.ID), string(op))
	out, err := c.svc.Handle(ctx, op, job.Request)

	var res Result
	outcome := "ok"
	if err == nil {
		res, err = okResult(job.ID, string(op), out)
	}
	if err != nil {
		res = errorResult(job.ID, string(op), err)
		outcome = "error"
	}
	if err := c.publish(ctx, job.ID, string(op), res); err != nil {
		return err
	}
	c.dedupe.remember(job.ID)
	obs.IncKafkaJob(string(op), outcome)

	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "job_done").
		Str("outcome", outcome).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("correction job handled")
	return nil
}

func (c *Consumer) publish(ctx context.Context, id, op string, res Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.pub.Publish(ctx, id, b); err != nil {
		obs.IncKafkaConsumerError("publish")
		obs.IncKafkaJob(op, "publish_failed")
		return err
	}
	return nil
}

func (c *Consumer) logKafkaError(ctx context.Context, kind string, msg *sarama.ConsumerMessage, err error) {
	mylog.FromContext(ctx, c.zlog).Error().
		Err(err).
		Str("kind", kind).
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("kafka error")
}

// identifies jobs that carry no usable id of their own
func messageID(msg *sarama.ConsumerMessage) string {
	return msg.Topic + "/" + strconv.Itoa(int(msg.Partition)) + "/" + strconv.FormatInt(msg.Offset, 10)
}
