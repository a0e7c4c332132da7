package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer(t *testing.T) {
	t.Run("drains in fifo order", func(t *testing.T) {
		b := NewRingBuffer(4)
		for _, a := range []Action{ActionRFCValidated, ActionBulkValidated, ActionAPIKeyIssued} {
			assert.False(t, b.Enqueue(Event{Action: a}))
		}
		got := b.Drain(2)
		assert.Equal(t, []Action{ActionRFCValidated, ActionBulkValidated}, actions(got))
		assert.Equal(t, 1, b.Len())
		assert.Equal(t, []Action{ActionAPIKeyIssued}, actions(b.Drain(0)))
		assert.Empty(t, b.Drain(10))
	})

	t.Run("full buffer drops oldest", func(t *testing.T) {
		b := NewRingBuffer(2)
		b.Enqueue(Event{Subject: "1"})
		b.Enqueue(Event{Subject: "2"})
		assert.True(t, b.Enqueue(Event{Subject: "3"}))

		got := b.Drain(0)
		assert.Equal(t, "2", got[0].Subject)
		assert.Equal(t, "3", got[1].Subject)
		assert.Equal(t, int64(1), b.Dropped())
	})

	t.Run("requeue goes ahead of newer events", func(t *testing.T) {
		b := NewRingBuffer(4)
		b.Enqueue(Event{Subject: "1"})
		b.Enqueue(Event{Subject: "2"})
		failed := b.Drain(0)
		b.Enqueue(Event{Subject: "3"})

		assert.Zero(t, b.Requeue(failed))
		assert.Equal(t, []string{"1", "2", "3"}, subjects(b.Drain(0)))
	})

	t.Run("requeue into a full buffer drops the oldest returned events", func(t *testing.T) {
		b := NewRingBuffer(3)
		b.Enqueue(Event{Subject: "1"})
		b.Enqueue(Event{Subject: "2"})
		b.Enqueue(Event{Subject: "3"})
		failed := b.Drain(0)
		b.Enqueue(Event{Subject: "4"})
		b.Enqueue(Event{Subject: "5"})

		assert.Equal(t, 2, b.Requeue(failed))
		assert.Equal(t, []string{"3", "4", "5"}, subjects(b.Drain(0)))
		assert.Equal(t, int64(2), b.Dropped())
	})

	t.Run("non-positive capacity uses default", func(t *testing.T) {
		assert.Equal(t, 10000, NewRingBuffer(0).capacity)
	})
}

func actions(events []Event) []Action {
	out := make([]Action, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func subjects(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Subject
	}
	return out
}
