package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/service"
)

const seamSquare = `{"type":"Polygon","coordinates":[[[170,10],[-170,10],[-170,-10],[170,-10],[170,10]]]}`

type sess struct {
	ctx    context.Context
	claims map[string][]int32
	mu     sync.Mutex
	marked []int64
}

func (s *sess) Claims() map[string][]int32 { return s.claims }
func (s *sess) MemberID() string           { return "" }
func (s *sess) GenerationID() int32        { return 0 }
func (s *sess) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, m.Offset)
	s.mu.Unlock()
}
func (s *sess) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *sess) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *sess) Context() context.Context                         { return s.ctx }
func (s *sess) Errors() <-chan error                             { return nil }
func (s *sess) Commit()                                          {}

type claim struct {
	part int32
	msgs chan *sarama.ConsumerMessage
}

func (c *claim) Topic() string                            { return "seam-jobs" }
func (c *claim) Partition() int32                         { return c.part }
func (c *claim) InitialOffset() int64                     { return 0 }
func (c *claim) HighWaterMarkOffset() int64               { return 0 }
func (c *claim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func jobBytes(t *testing.T, id, op, geometry string) []byte {
	t.Helper()
	b, err := json.Marshal(Job{
		Version: JobVersion,
		ID:      id,
		Op:      op,
		Request: model.Request{Geometry: json.RawMessage(geometry)},
	})
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return b
}

func newConsumerForTest(t *testing.T) (*Consumer, *mocks.SyncProducer) {
	t.Helper()
	sp := mocks.NewSyncProducer(t, producerConfig())
	t.Cleanup(func() { _ = sp.Close() })
	cfg := Config{Brokers: []string{"x"}, Topic: "seam-jobs", ResultTopic: "seam-results", GroupID: "g"}
	svc := service.New(service.Options{H3Res: 2})
	c := New(cfg, svc, NewPublisher(sp, cfg.ResultTopic), Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	return c, sp
}

func expectResult(sp *mocks.SyncProducer, check func(Result) error) {
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var r Result
		if err := json.Unmarshal(val, &r); err != nil {
			return err
		}
		return check(r)
	})
}

func TestProcess_PublishesResultAndMarksAfterwards(t *testing.T) {
	c, sp := newConsumerForTest(t)
	expectResult(sp, func(r Result) error {
		if r.ID != "job-1" || !r.OK || r.Op != "split" {
			return fmt.Errorf("unexpected result %+v", r)
		}
		var out model.GeometryResponse
		if err := json.Unmarshal(r.Output, &out); err != nil {
			return err
		}
		if out.Parts != 2 {
			return fmt.Errorf("parts=%d want 2", out.Parts)
		}
		return nil
	})
	expectResult(sp, func(r Result) error {
		if r.ID != "job-2" || !r.OK {
			return fmt.Errorf("unexpected result %+v", r)
		}
		return nil
	})

	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}
	ch := make(chan *sarama.ConsumerMessage, 2)
	ch <- &sarama.ConsumerMessage{Topic: "seam-jobs", Offset: 10, Value: jobBytes(t, "job-1", "split", seamSquare)}
	ch <- &sarama.ConsumerMessage{Topic: "seam-jobs", Offset: 11, Value: jobBytes(t, "job-2", "check", seamSquare)}
	close(ch)

	if err := g.ConsumeClaim(s, &claim{msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 2 || s.marked[0] != 10 || s.marked[1] != 11 {
		t.Fatalf("marked offsets=%v want [10 11]", s.marked)
	}
}

func TestProcess_DuplicateJobIsSkipped(t *testing.T) {
	c, sp := newConsumerForTest(t)
	expectResult(sp, func(r Result) error { return nil })

	msg := &sarama.ConsumerMessage{Topic: "seam-jobs", Offset: 1, Value: jobBytes(t, "dup", "utm", seamSquare)}
	if err := c.ProcessOne(context.Background(), msg); err != nil {
		t.Fatalf("first: %v", err)
	}
	msg2 := &sarama.ConsumerMessage{Topic: "seam-jobs", Offset: 2, Value: jobBytes(t, "dup", "utm", seamSquare)}
	if err := c.ProcessOne(context.Background(), msg2); err != nil {
		t.Fatalf("duplicate: %v", err)
	}
}

func TestProcess_PoisonMessagesGetErrorResults(t *testing.T) {
	c, sp := newConsumerForTest(t)
	expectResult(sp, func(r Result) error {
		if r.ID != "seam-jobs/3/7" || r.OK || r.Kind != "invalid" {
			return fmt.Errorf("decode failure result %+v", r)
		}
		return nil
	})
	expectResult(sp, func(r Result) error {
		if r.ID != "bad-op" || r.OK || r.Kind != "invalid" || r.Error == "" {
			return fmt.Errorf("validate failure result %+v", r)
		}
		return nil
	})
	expectResult(sp, func(r Result) error {
		if r.ID != "polar" || r.OK || r.Kind != "unprocessable" {
			return fmt.Errorf("service failure result %+v", r)
		}
		return nil
	})

	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}
	ch := make(chan *sarama.ConsumerMessage, 3)
	ch <- &sarama.ConsumerMessage{Topic: "seam-jobs", Partition: 3, Offset: 7, Value: []byte("{not json")}
	ch <- &sarama.ConsumerMessage{Topic: "seam-jobs", Partition: 3, Offset: 8, Value: jobBytes(t, "bad-op", "merge", seamSquare)}
	ch <- &sarama.ConsumerMessage{Topic: "seam-jobs", Partition: 3, Offset: 9,
		Value: jobBytes(t, "polar", "utm", `{"type":"Polygon","coordinates":[[[0,85],[1,85],[1,86],[0,86],[0,85]]]}`)}
	close(ch)

	if err := g.ConsumeClaim(s, &claim{part: 3, msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 3 {
		t.Fatalf("marked=%v want 3 offsets", s.marked)
	}
}

func TestProcess_PublishFailureIsRetried(t *testing.T) {
	c, sp := newConsumerForTest(t)
	sp.ExpectSendMessageAndFail(errors.New("broker down"))
	expectResult(sp, func(r Result) error {
		if r.ID != "retry" || !r.OK {
			return fmt.Errorf("retry result %+v", r)
		}
		return nil
	})

	g := &groupHandler{process: c.ProcessOne}
	msg := &sarama.ConsumerMessage{Topic: "seam-jobs", Offset: 5, Value: jobBytes(t, "retry", "check", seamSquare)}

	s := &sess{ctx: t.Context()}
	ch := make(chan *sarama.ConsumerMessage, 1)
	ch <- msg
	close(ch)
	if err := g.ConsumeClaim(s, &claim{msgs: ch}); err == nil {
		t.Fatalf("expected error when publishing fails")
	}
	if len(s.marked) != 0 {
		t.Fatalf("message marked despite failed publish: %v", s.marked)
	}

	ch = make(chan *sarama.ConsumerMessage, 1)
	ch <- msg
	close(ch)
	if err := g.ConsumeClaim(s, &claim{msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim second attempt: %v", err)
	}
	if len(s.marked) != 1 || s.marked[0] != 5 {
		t.Fatalf("offset was not marked after success; marked=%v", s.marked)
	}
}

func TestReadiness_FollowsAssignment(t *testing.T) {
	c, _ := newConsumerForTest(t)
	if ok, _ := c.Readiness(); ok {
		t.Fatalf("ready before assignment")
	}
	c.setup(&sess{ctx: context.Background(), claims: map[string][]int32{"seam-jobs": {0, 1}}})
	ok, parts := c.Readiness()
	if !ok || len(parts) != 2 {
		t.Fatalf("ready=%v parts=%v", ok, parts)
	}
	c.cleanup(nil)
	if ok, _ := c.Readiness(); ok {
		t.Fatalf("ready after cleanup")
	}
}

func TestStart_RequiresTopics(t *testing.T) {
	c := New(Config{}, service.New(service.Options{}), nil, Options{})
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestJobValidate(t *testing.T) {
	if _, err := (Job{Version: 2, ID: "x", Op: "split"}).Validate(); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("version: err=%v", err)
	}
	if _, err := (Job{Op: "split"}).Validate(); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("id: err=%v", err)
	}
	if op, err := (Job{ID: "x", Op: "reproject"}).Validate(); err != nil || op != service.OpReproject {
		t.Fatalf("op=%q err=%v", op, err)
	}
}
