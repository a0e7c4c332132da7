//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"rfcheck/internal/platform/config"
	"rfcheck/pkg/testutil/containers"
)

// =============================================================================
// Kafka Sink Integration Suite
// =============================================================================
// Justification: topic creation and produce acknowledgements only exist
// against a real broker.

type KafkaSinkIntegrationSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaSinkIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkIntegrationSuite))
}

func (s *KafkaSinkIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.brokers = mgr.GetRedpanda(s.T()).Brokers
}

func (s *KafkaSinkIntegrationSuite) TestEnsureTopicAndPublish() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.KafkaConfig{Brokers: s.brokers, AuditTopic: "rfcheck.audit.test", Partitions: 1, Replicas: 1}
	sink, err := NewKafkaSink(cfg)
	s.Require().NoError(err)
	defer sink.Close()

	s.Require().NoError(sink.EnsureTopic(ctx, cfg.Partitions, cfg.Replicas))
	s.Require().NoError(sink.EnsureTopic(ctx, cfg.Partitions, cfg.Replicas), "second call tolerates existing topic")

	s.Require().NoError(sink.Publish(ctx, []Event{
		{Action: ActionAPIKeyIssued, Category: CategoryCompliance, CallerID: "user-1", Subject: "key-1"},
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	var got Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(ActionAPIKeyIssued, got.Action)
	s.Equal("user-1", string(records[0].Key))
}
