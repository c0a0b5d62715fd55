package trackr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DrainsAfterClose(t *testing.T) {
	q := newQueue()
	q.push(captureEvent{RequestID: "1"})
	q.push(captureEvent{RequestID: "2"})
	q.close()
	q.push(captureEvent{RequestID: "late"})

	ctx := context.Background()
	ev, ok := q.pop(ctx)
	require.True(t, ok)
	assert.Equal(t, network.RequestID("1"), ev.RequestID)
	ev, ok = q.pop(ctx)
	require.True(t, ok)
	assert.Equal(t, network.RequestID("2"), ev.RequestID)
	_, ok = q.pop(ctx)
	assert.False(t, ok)
}

func TestQueue_PopWaitsForPush(t *testing.T) {
	q := newQueue()
	got := make(chan captureEvent, 1)
	go func() {
		ev, _ := q.pop(context.Background())
		got <- ev
	}()

	time.Sleep(10 * time.Millisecond)
	q.push(captureEvent{RequestID: "x"})

	select {
	case ev := <-got:
		assert.Equal(t, network.RequestID("x"), ev.RequestID)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after push")
	}
}

func TestQueue_PopStopsOnCancel(t *testing.T) {
	q := newQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := q.pop(ctx)
	assert.False(t, ok)
}

func TestListener_OnlyFinishedJSONResponses(t *testing.T) {
	q := newQueue()
	l := newListener(q)

	l.handle(&network.EventResponseReceived{
		RequestID: "json",
		Response: &network.Response{
			URL:     "https://api.example.com/vacancies",
			Headers: network.Headers{"Content-Type": "application/json"},
		},
	})
	l.handle(&network.EventResponseReceived{
		RequestID: "mime",
		Response:  &network.Response{URL: "https://api.example.com/x", MimeType: "application/json"},
	})
	l.handle(&network.EventResponseReceived{
		RequestID: "html",
		Response:  &network.Response{URL: "https://example.com/", MimeType: "text/html"},
	})
	l.handle(&network.EventLoadingFinished{RequestID: "html"})
	l.handle(&network.EventLoadingFailed{RequestID: "mime"})
	l.handle(&network.EventLoadingFinished{RequestID: "mime"})
	l.handle(&network.EventLoadingFinished{RequestID: "json"})
	q.close()

	ev, ok := q.pop(context.Background())
	require.True(t, ok)
	assert.Equal(t, network.RequestID("json"), ev.RequestID)
	assert.Equal(t, "https://api.example.com/vacancies", ev.URL)
	_, ok = q.pop(context.Background())
	assert.False(t, ok)
	assert.Empty(t, l.pending)
}

func TestConsume_SkipsBadBodies(t *testing.T) {
	bodies := map[network.RequestID]string{
		"a": `{"vacancies":[{"name":"one","url":"u1"}]}`,
		"b": `<html>not json</html>`,
		"d": `[{"name":"two","url":"u2"},{"name":"three","url":"u3"}]`,
	}
	fetch := func(_ context.Context, id network.RequestID) ([]byte, error) {
		b, ok := bodies[id]
		if !ok {
			return nil, errors.New("no resource with given identifier found")
		}
		return []byte(b), nil
	}

	q := newQueue()
	for _, id := range []network.RequestID{"a", "b", "c", "d"} {
		q.push(captureEvent{RequestID: id})
	}
	q.close()

	acc := &accumulator{}
	seen, skipped := consume(context.Background(), q, acc, fetch)

	assert.Equal(t, 4, seen)
	assert.Equal(t, 2, skipped)
	require.Equal(t, 3, acc.Len())
	var got []string
	for _, r := range acc.records() {
		got = append(got, r["name"].(string))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestContentType_HeaderBeatsMime(t *testing.T) {
	r := &network.Response{
		MimeType: "text/plain",
		Headers:  network.Headers{"content-type": "application/json; charset=utf-8"},
	}
	assert.Equal(t, "application/json; charset=utf-8", contentType(r))
	assert.Equal(t, "text/html", contentType(&network.Response{MimeType: "text/html"}))
}
