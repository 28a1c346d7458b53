package consumer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"linkapp/internal/analytics/consumer"
	"linkapp/internal/analytics/sink"
	"linkapp/internal/eventbus"
	"linkapp/internal/shared/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSink captures every batch it receives. FailFirst makes the first
// write fail so redelivery paths can be observed.
type recordingSink struct {
	mu        sync.Mutex
	batches   [][]sink.ClickRow
	failFirst bool
	writes    int
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) WriteBatch(_ context.Context, rows []sink.ClickRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failFirst && s.writes == 1 {
		return errors.New("sink unavailable")
	}
	batch := make([]sink.ClickRow, len(rows))
	copy(batch, rows)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *recordingSink) totalRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func (s *recordingSink) batchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func startConsumer(t *testing.T, sinks []sink.Sink, cfg consumer.Config) (*eventbus.Bus, context.CancelFunc, chan error) {
	t.Helper()

	bus := eventbus.New(watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := consumer.New(bus.Subscriber(), sinks, cfg, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Let the run loop subscribe before anything is published; the go-channel
	// transport drops messages with no subscriber.
	time.Sleep(100 * time.Millisecond)

	return bus, cancel, done
}

func publishClicks(t *testing.T, bus *eventbus.Bus, shortCode string, n int) {
	t.Helper()
	publisher := eventbus.NewPublisher(bus.Publisher())
	for i := 0; i < n; i++ {
		event := events.NewClickEvent(shortCode, "198.51.100.7", "test-agent", time.Now().UTC())
		require.NoError(t, publisher.PublishClick(context.Background(), event))
	}
}

// TestRun_SizeThreshold_FlushesImmediately tests the count-triggered flush
func TestRun_SizeThreshold_FlushesImmediately(t *testing.T) {
	// Setup
	rec := &recordingSink{}
	bus, _, _ := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          5,
		FlushInterval: time.Minute,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	publishClicks(t, bus, "abc123", 5)

	// Assert
	assert.Eventually(t, func() bool { return rec.totalRows() == 5 },
		2*time.Second, 10*time.Millisecond,
		"a full batch must flush without waiting for the time threshold")
	assert.Equal(t, []int{5}, rec.batchSizes())
}

// TestRun_TimeThreshold_FlushesPartialBatch tests the age-triggered flush
func TestRun_TimeThreshold_FlushesPartialBatch(t *testing.T) {
	// Setup
	rec := &recordingSink{}
	bus, _, _ := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          100,
		FlushInterval: 50 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	publishClicks(t, bus, "abc123", 1)

	// Assert
	assert.Eventually(t, func() bool { return rec.totalRows() == 1 },
		2*time.Second, 10*time.Millisecond,
		"a lone event must flush once the batch is old enough")
}

// TestRun_Shutdown_FlushesRemaining tests the final flush on cancellation
func TestRun_Shutdown_FlushesRemaining(t *testing.T) {
	// Setup
	rec := &recordingSink{}
	bus, cancel, done := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          100,
		FlushInterval: time.Minute,
		PollInterval:  10 * time.Millisecond,
	})

	publishClicks(t, bus, "abc123", 3)
	// Give the run loop time to claim the events into its batch.
	time.Sleep(200 * time.Millisecond)
	require.Zero(t, rec.totalRows(), "neither threshold should have fired yet")

	// Act
	cancel()

	// Assert
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
	assert.Equal(t, 3, rec.totalRows(), "claimed events must not be abandoned on shutdown")
}

// TestRun_SinkFailure_RedeliversBatch tests nack and broker redelivery
func TestRun_SinkFailure_RedeliversBatch(t *testing.T) {
	// Setup
	rec := &recordingSink{failFirst: true}
	bus, _, _ := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          2,
		FlushInterval: time.Minute,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	publishClicks(t, bus, "abc123", 2)

	// Assert
	assert.Eventually(t, func() bool { return rec.totalRows() == 2 },
		5*time.Second, 10*time.Millisecond,
		"a nacked batch must be redelivered and flushed")
	rec.mu.Lock()
	writes := rec.writes
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, writes, 2, "the failed write must precede the successful one")
}

// TestRun_HighVolume_SplitsIntoFullBatches tests 150 events landing completely
func TestRun_HighVolume_SplitsIntoFullBatches(t *testing.T) {
	// Setup
	rec := &recordingSink{}
	bus, _, _ := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          100,
		FlushInterval: 100 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	publishClicks(t, bus, "abc123", 150)

	// Assert
	assert.Eventually(t, func() bool { return rec.totalRows() == 150 },
		5*time.Second, 10*time.Millisecond,
		"every published event must land across the flushes")
	sizes := rec.batchSizes()
	assert.GreaterOrEqual(t, len(sizes), 2)
	for _, size := range sizes {
		assert.LessOrEqual(t, size, 100)
	}
}

// TestRun_MalformedPayload_DroppedWithoutRedelivery tests poison message handling
func TestRun_MalformedPayload_DroppedWithoutRedelivery(t *testing.T) {
	// Setup
	rec := &recordingSink{}
	bus, _, _ := startConsumer(t, []sink.Sink{rec}, consumer.Config{
		Size:          2,
		FlushInterval: time.Minute,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	poison := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	require.NoError(t, bus.Publisher().Publish(eventbus.ClickTopic, poison))
	publishClicks(t, bus, "abc123", 1)

	// Assert
	assert.Eventually(t, func() bool { return rec.totalRows() == 1 },
		2*time.Second, 10*time.Millisecond,
		"the valid event must flush; the poison message is acked and dropped")
	assert.Equal(t, []int{1}, rec.batchSizes())
}

// TestRun_MultipleSinks_AllReceiveBatch tests fan-out to every sink
func TestRun_MultipleSinks_AllReceiveBatch(t *testing.T) {
	// Setup
	first := &recordingSink{}
	second := &recordingSink{}
	bus, _, _ := startConsumer(t, []sink.Sink{first, second}, consumer.Config{
		Size:          3,
		FlushInterval: time.Minute,
		PollInterval:  10 * time.Millisecond,
	})

	// Act
	publishClicks(t, bus, "abc123", 3)

	// Assert
	assert.Eventually(t, func() bool { return first.totalRows() == 3 && second.totalRows() == 3 },
		2*time.Second, 10*time.Millisecond,
		"both sinks must receive the same batch")
}
