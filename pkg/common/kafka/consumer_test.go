package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/noshow/pkg/common/models"
)

type fetchResult struct {
	msg kafka.Message
	err error
}

// scriptedReader replays results and cancels the consumer once drained.
type scriptedReader struct {
	results   []fetchResult
	committed []int64
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.results) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error {
	return nil
}

type parkedEvent struct {
	eventType string
	data      map[string]interface{}
}

type recordingPublisher struct {
	events []parkedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType string, _ string, data map[string]interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, parkedEvent{eventType: eventType, data: data})
	return nil
}

func eventMessage(t *testing.T, offset int64, id string) fetchResult {
	t.Helper()
	value, err := json.Marshal(models.Event{ID: id, Type: models.EventAppointmentCreated, Data: map[string]interface{}{"$id": "a1"}})
	require.NoError(t, err)
	return fetchResult{msg: kafka.Message{Topic: "appointments", Offset: offset, Value: value}}
}

func newTestConsumer(results []fetchResult, attempts int) (*Consumer, *scriptedReader, *[]time.Duration, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &scriptedReader{results: results, cancel: cancel}
	c := newConsumer(reader, attempts, 10*time.Millisecond)
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return ctx.Err() == nil
	}
	return c, reader, &sleeps, ctx
}

func TestConsumeCommitsHandledEvents(t *testing.T) {
	c, reader, sleeps, ctx := newTestConsumer([]fetchResult{eventMessage(t, 1, "e1"), eventMessage(t, 2, "e2")}, 3)

	var seen []string
	err := c.Consume(ctx, func(_ context.Context, e models.Event) error {
		seen = append(seen, e.ID)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"e1", "e2"}, seen)
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.Empty(t, *sleeps)
}

func TestConsumeRetriesBeforeMovingOn(t *testing.T) {
	c, reader, sleeps, ctx := newTestConsumer([]fetchResult{eventMessage(t, 7, "e1"), eventMessage(t, 8, "e2")}, 3)

	calls := map[string]int{}
	err := c.Consume(ctx, func(_ context.Context, e models.Event) error {
		calls[e.ID]++
		if e.ID == "e1" && calls[e.ID] < 3 {
			return errors.New("PERSIST failed")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls["e1"])
	assert.Equal(t, 1, calls["e2"])
	assert.Equal(t, []int64{7, 8}, reader.committed)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *sleeps)
}

func TestConsumeParksExhaustedEvents(t *testing.T) {
	c, reader, _, ctx := newTestConsumer([]fetchResult{eventMessage(t, 4, "e1")}, 2)
	dlq := &recordingPublisher{}
	c.WithDeadLetter(dlq)

	calls := 0
	err := c.Consume(ctx, func(context.Context, models.Event) error {
		calls++
		return errors.New("record source unavailable")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	require.Len(t, dlq.events, 1)
	assert.Equal(t, models.EventAppointmentCreated, dlq.events[0].eventType)
	assert.Equal(t, "e1", dlq.events[0].data["event_id"])
	assert.Equal(t, "record source unavailable", dlq.events[0].data["error"])
	assert.Equal(t, int64(4), dlq.events[0].data["offset"])
	assert.Equal(t, []int64{4}, reader.committed)
}

func TestConsumeStopsWhenParkingFails(t *testing.T) {
	c, reader, _, ctx := newTestConsumer([]fetchResult{eventMessage(t, 4, "e1"), eventMessage(t, 5, "e2")}, 1)
	c.WithDeadLetter(&recordingPublisher{err: errors.New("broker down")})

	err := c.Consume(ctx, func(context.Context, models.Event) error {
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Empty(t, reader.committed)
}

func TestConsumeSkipsUndecodableMessages(t *testing.T) {
	bad := fetchResult{msg: kafka.Message{Offset: 3, Value: []byte("not json")}}
	c, reader, _, ctx := newTestConsumer([]fetchResult{bad}, 3)

	called := false
	err := c.Consume(ctx, func(context.Context, models.Event) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, []int64{3}, reader.committed)
}

func TestConsumeBacksOffOnFetchErrors(t *testing.T) {
	fetchErr := fetchResult{err: errors.New("group coordinator not available")}
	c, reader, sleeps, ctx := newTestConsumer([]fetchResult{fetchErr, fetchErr, eventMessage(t, 9, "e1")}, 3)

	err := c.Consume(ctx, func(context.Context, models.Event) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *sleeps)
	assert.Equal(t, []int64{9}, reader.committed)
}
