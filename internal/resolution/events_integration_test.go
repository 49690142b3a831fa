//go:build integration

package resolution_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"plancheck/internal/resolution"
	"plancheck/pkg/testutil/containers"
)

const eventMirrorTopic = "plancheck.resolution-events"

type KafkaPublisherSuite struct {
	suite.Suite
	kafka     *containers.KafkaContainer
	publisher *resolution.KafkaPublisher
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.kafka = containers.NewKafkaContainer(s.T())
	s.kafka.CreateTopic(s.T(), eventMirrorTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, err := resolution.NewKafkaPublisher(s.kafka.Brokers, eventMirrorTopic, logger)
	s.Require().NoError(err)
	s.Require().NotNil(publisher)
	s.publisher = publisher
	s.T().Cleanup(publisher.Close)
}

func (s *KafkaPublisherSuite) TestPublishedEventReachesConsumer() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.kafka.Brokers...),
		kgo.ConsumeTopics(eventMirrorTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	sent := resolution.Event{
		Type:          resolution.EventIssueResolved,
		IssueID:       42,
		ApplicationID: 7,
		RuleID:        "R1",
		At:            time.Now().UTC().Truncate(time.Millisecond),
	}
	s.publisher.Publish(ctx, sent)

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)

	var got resolution.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(sent.Type, got.Type)
	s.Equal(sent.IssueID, got.IssueID)
	s.Equal(sent.ApplicationID, got.ApplicationID)
	s.Equal(sent.RuleID, got.RuleID)
}

func (s *KafkaPublisherSuite) TestNilPublisherWhenNoBrokers() {
	publisher, err := resolution.NewKafkaPublisher(nil, eventMirrorTopic, nil)
	s.Require().NoError(err)
	s.Nil(publisher)
	publisher.Close() // nil-safe
}
