package worker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
	"cryptodash/internal/model"
	"cryptodash/internal/scheduler"
)

const period = 10 * time.Second

func newPoll(t *testing.T, api *gateway.Mock, rules ...AlertRule) (*PollTask, *scheduler.ManualClock) {
	t.Helper()
	clock := scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	task := NewPollTask(api, clock.NewTicker, period, rules, zerolog.Nop())
	startTask(t, task)
	return task, clock
}

func startFeed(ids ...string) message.Envelope {
	return message.Must(message.StartFeed, message.StartFeedPayload{IDs: ids})
}

func waitGeneration(t *testing.T, task *PollTask, gen uint64) {
	t.Helper()
	require.Eventually(t, func() bool { return task.Generation() == gen }, waitFor, time.Millisecond)
}

func decodeQuote(t *testing.T, env message.Envelope) model.PriceQuote {
	t.Helper()
	require.Equal(t, message.MarketUpdate, env.Kind)
	var q model.PriceQuote
	require.NoError(t, env.Decode(&q))
	return q
}

func TestPollTaskRestartKeepsSingleTimer(t *testing.T) {
	api := gateway.NewMock()
	task, clock := newPoll(t, api)

	task.Post(startFeed("BTC"))
	task.Post(startFeed("BTC"))
	waitGeneration(t, task, 2)
	assert.Equal(t, 1, clock.Active())
	assert.Equal(t, Polling, task.State())

	clock.Advance(period)
	q := decodeQuote(t, recv(t, task))
	assert.Equal(t, map[string]float64{"BTC": 50000}, q.Prices)
	expectNone(t, task, 50*time.Millisecond)
	assert.Equal(t, 1, api.Calls(gateway.OpPrices))
}

func TestPollTaskNoTickBeforeFirstPeriod(t *testing.T) {
	api := gateway.NewMock()
	task, clock := newPoll(t, api)

	task.Post(startFeed("ETH"))
	waitGeneration(t, task, 1)
	clock.Advance(period - time.Second)
	expectNone(t, task, 50*time.Millisecond)

	clock.Advance(time.Second)
	assert.Equal(t, 3000.0, decodeQuote(t, recv(t, task)).Prices["ETH"])
}

func TestPollTaskStopSilencesFeed(t *testing.T) {
	api := gateway.NewMock()
	task, clock := newPoll(t, api)

	task.Post(startFeed("BTC", "ETH"))
	task.Post(message.Must(message.StopFeed, nil))
	waitGeneration(t, task, 2)
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, Idle, task.State())
	assert.Empty(t, task.Feed())

	clock.Advance(3 * period)
	expectNone(t, task, 50*time.Millisecond)
	assert.Equal(t, 0, api.Calls(gateway.OpPrices))
}

func TestPollTaskStopWhenIdleIsNoop(t *testing.T) {
	task, clock := newPoll(t, gateway.NewMock())
	task.Post(message.Must(message.StopFeed, nil))
	waitGeneration(t, task, 1)
	assert.Equal(t, 0, clock.Active())
	expectNone(t, task, 20*time.Millisecond)
}

func TestPollTaskEmptyFeedStaysIdle(t *testing.T) {
	task, clock := newPoll(t, gateway.NewMock())
	task.Post(startFeed())
	waitGeneration(t, task, 1)
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, Idle, task.State())
}

func TestPollTaskDropsStaleFetch(t *testing.T) {
	api := gateway.NewMock()
	release := api.Block(gateway.OpPrices)
	task, clock := newPoll(t, api)

	task.Post(startFeed("BTC"))
	waitGeneration(t, task, 1)
	clock.Advance(period)
	require.Eventually(t, func() bool { return api.Calls(gateway.OpPrices) == 1 }, waitFor, time.Millisecond)

	task.Post(message.Must(message.StopFeed, nil))
	waitGeneration(t, task, 2)
	release()
	expectNone(t, task, 50*time.Millisecond)
}

func TestPollTaskSurvivesFetchError(t *testing.T) {
	api := gateway.NewMock()
	api.Fail(gateway.OpPrices, &gateway.NetworkError{Op: gateway.OpPrices, Err: gateway.ErrMockOffline})
	task, clock := newPoll(t, api)

	task.Post(startFeed("BTC"))
	waitGeneration(t, task, 1)
	clock.Advance(period)
	n := decodeError(t, recv(t, task))
	assert.Equal(t, "network error during fetch prices", n.Message)

	api.Fail(gateway.OpPrices, nil)
	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	assert.Equal(t, Polling, task.State())
}

func TestPollTaskSkipsEmptyQuote(t *testing.T) {
	api := gateway.NewMock()
	task, clock := newPoll(t, api)

	task.Post(startFeed("NOPE"))
	waitGeneration(t, task, 1)
	clock.Advance(period)
	require.Eventually(t, func() bool { return api.Calls(gateway.OpPrices) == 1 }, waitFor, time.Millisecond)
	expectNone(t, task, 50*time.Millisecond)

	api.SetPrice("NOPE", 2, 0.5)
	clock.Advance(period)
	assert.Equal(t, 2.0, decodeQuote(t, recv(t, task)).Prices["NOPE"])
}

func TestPollTaskAlertsOncePerCrossing(t *testing.T) {
	api := gateway.NewMock()
	task, clock := newPoll(t, api, AlertRule{Symbol: "btc", Above: 60000}, AlertRule{Symbol: "ETH", Below: 2500})

	task.Post(startFeed("BTC", "ETH"))
	waitGeneration(t, task, 1)

	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	expectNone(t, task, 20*time.Millisecond)

	api.SetPrice("BTC", 61000, 3)
	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	alert := recv(t, task)
	require.Equal(t, message.Alert, alert.Kind)
	var n model.Notification
	require.NoError(t, alert.Decode(&n))
	assert.Equal(t, model.SeverityAlert, n.Severity)
	assert.Equal(t, "BTC rose above $60000.00 (now $61000.00)", n.Message)

	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	expectNone(t, task, 20*time.Millisecond)

	api.SetPrice("BTC", 59000, 0)
	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	api.SetPrice("BTC", 60500, 0)
	clock.Advance(period)
	decodeQuote(t, recv(t, task))
	assert.Equal(t, message.Alert, recv(t, task).Kind)
}
