package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
	"cryptodash/internal/model"
)

const waitFor = 2 * time.Second

func startTask(t *testing.T, task Task) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		task.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func recv(t *testing.T, task Task) message.Envelope {
	t.Helper()
	select {
	case env := <-task.Results():
		return env
	case <-time.After(waitFor):
		t.Fatalf("%s task produced no result", task.Name())
		return message.Envelope{}
	}
}

func expectNone(t *testing.T, task Task, d time.Duration) {
	t.Helper()
	select {
	case env := <-task.Results():
		t.Fatalf("unexpected %s result from %s task", env.Kind, task.Name())
	case <-time.After(d):
	}
}

func decodeError(t *testing.T, env message.Envelope) model.Notification {
	t.Helper()
	require.Equal(t, message.Error, env.Kind)
	var n model.Notification
	require.NoError(t, env.Decode(&n))
	assert.Equal(t, model.SeverityError, n.Severity)
	assert.NotEmpty(t, n.ID)
	return n
}

func TestMailboxKeepsOrder(t *testing.T) {
	m := newMailbox()
	for i := 0; i < 5; i++ {
		require.True(t, m.Post(message.Envelope{Kind: message.Kind(fmt.Sprint(i))}))
	}
	<-m.Ready()
	got := m.Drain()
	require.Len(t, got, 5)
	for i, env := range got {
		assert.Equal(t, message.Kind(fmt.Sprint(i)), env.Kind)
	}
	assert.Empty(t, m.Drain())

	m.close()
	assert.False(t, m.Post(message.Envelope{Kind: message.StopFeed}))
}

func TestBootTaskLoadsCatalog(t *testing.T) {
	api := gateway.NewMock()
	task := NewBootTask(api, zerolog.Nop())
	startTask(t, task)

	task.Post(message.Must(message.LoadAssets, nil))
	env := recv(t, task)
	require.Equal(t, message.AssetsLoaded, env.Kind)

	var p message.CatalogPayload
	require.NoError(t, env.Decode(&p))
	assert.Len(t, p.Assets, 18)
	assert.Equal(t, "BTC", p.Assets[0].ID)
	assert.Equal(t, Idle, task.State())
}

func TestBootTaskReportsNetworkError(t *testing.T) {
	api := gateway.NewMock()
	api.Fail(gateway.OpAssets, &gateway.NetworkError{Op: gateway.OpAssets, Err: gateway.ErrMockOffline})
	task := NewBootTask(api, zerolog.Nop())
	startTask(t, task)

	task.Post(message.Must(message.LoadAssets, nil))
	n := decodeError(t, recv(t, task))
	assert.Equal(t, "network error during fetch all assets", n.Message)
}

func TestTaskRejectsUnsupportedCommand(t *testing.T) {
	task := NewAnalysisTask(zerolog.Nop())
	startTask(t, task)

	task.Post(message.Must(message.LoadAssets, nil))
	n := decodeError(t, recv(t, task))
	assert.Contains(t, n.Message, "analysis task does not handle LOAD_ASSETS")
}

func TestTaskRecoversFromPanic(t *testing.T) {
	task := &oneShot{base: newBase("panicky", zerolog.Nop())}
	task.handle = func(context.Context, message.Envelope) (message.Envelope, bool, error) {
		panic("boom")
	}
	startTask(t, task)

	task.Post(message.Must(message.LoadAssets, nil))
	n := decodeError(t, recv(t, task))
	assert.Equal(t, "panicky task panicked: boom", n.Message)

	task.Post(message.Must(message.LoadAssets, nil))
	decodeError(t, recv(t, task))
}

func TestSearchTask(t *testing.T) {
	api := gateway.NewMock()
	assets, err := api.FetchAllAssets(context.Background())
	require.NoError(t, err)

	task := NewSearchTask(0, zerolog.Nop())
	startTask(t, task)
	task.Post(message.Must(message.InitAssets, message.CatalogPayload{Assets: assets}))

	task.Post(message.Must(message.Search, message.SearchPayload{Query: "BIT"}))
	task.Post(message.Must(message.Search, message.SearchPayload{Query: "  "}))

	var first message.SearchResultsPayload
	require.NoError(t, recv(t, task).Decode(&first))
	assert.Equal(t, "BIT", first.Query)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "BCH", first.Results[0].Symbol)
	assert.Equal(t, "BTC", first.Results[1].Symbol)

	env := recv(t, task)
	require.Equal(t, message.SearchResults, env.Kind)
	var empty message.SearchResultsPayload
	require.NoError(t, env.Decode(&empty))
	assert.Empty(t, empty.Results)
}

func TestSearchTaskFilterAssetsUsesGivenCatalog(t *testing.T) {
	task := NewSearchTask(3, zerolog.Nop())
	startTask(t, task)

	var assets []model.Asset
	for i := 0; i < 10; i++ {
		sym := fmt.Sprintf("C%02d", i)
		assets = append(assets, model.Asset{ID: sym, Symbol: sym, Name: "Coin " + sym})
	}
	task.Post(message.Must(message.FilterAssets, message.SearchPayload{Query: "coin", Assets: assets}))

	var p message.SearchResultsPayload
	require.NoError(t, recv(t, task).Decode(&p))
	require.Len(t, p.Results, 3)
	assert.Equal(t, "C00", p.Results[0].Symbol)
}

func TestFilter(t *testing.T) {
	assets := []model.Asset{
		{ID: "ETC", Symbol: "ETC", Name: "Ethereum Classic"},
		{ID: "ETHW", Symbol: "ETHW", Name: "EthereumPoW"},
		{ID: "ETH", Symbol: "ETH", Name: "Ethereum"},
		{ID: "USDT", Symbol: "USDT", Name: "Tether"},
		{ID: "BTC", Symbol: "BTC", Name: "Bitcoin"},
	}
	syms := func(refs []model.AssetRef) []string {
		out := []string{}
		for _, r := range refs {
			out = append(out, r.Symbol)
		}
		return out
	}

	assert.Equal(t, []string{"ETH", "ETHW", "ETC", "USDT"}, syms(Filter(assets, "eth", 20)))
	assert.Equal(t, []string{"ETH", "ETHW"}, syms(Filter(assets, "ETH", 2)))
	assert.Empty(t, Filter(assets, "", 20))
	assert.Empty(t, Filter(assets, "zzz", 20))
	assert.NotNil(t, Filter(assets, "zzz", 20))
}

func TestHistoricalTask(t *testing.T) {
	api := gateway.NewMock()
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	api.SetHistory("BTC", []model.Candle{
		{Time: day, High: 110, Low: 90, Close: 100},
		{Time: day.AddDate(0, 0, 1), High: 130, Low: 70, Close: 120},
	})
	api.SetHistory("NEW", []model.Candle{})

	task := NewHistoricalTask(api, 0, zerolog.Nop())
	startTask(t, task)

	task.Post(message.Must(message.GetSummary, message.SummaryPayload{AssetID: "btc"}))
	env := recv(t, task)
	require.Equal(t, message.HistoricalSummary, env.Kind)
	var s model.HistoricalSummary
	require.NoError(t, env.Decode(&s))
	require.True(t, s.HasData())
	assert.Equal(t, "BTC", s.Symbol)
	assert.Equal(t, DefaultHistoryDays, s.Days)
	assert.Equal(t, 130.0, *s.MaxPrice)
	assert.Equal(t, 70.0, *s.MinPrice)
	assert.InDelta(t, 100.0, *s.AvgPrice, 1e-9)

	task.Post(message.Must(message.GetSummary, message.SummaryPayload{AssetID: "NEW"}))
	var none model.HistoricalSummary
	require.NoError(t, recv(t, task).Decode(&none))
	assert.False(t, none.HasData())
	assert.Nil(t, none.MaxPrice)

	task.Post(message.Must(message.GetSummary, message.SummaryPayload{AssetID: " "}))
	n := decodeError(t, recv(t, task))
	assert.Equal(t, "invalid assetId: must not be empty", n.Message)
}

func TestHistoricalTaskAPIError(t *testing.T) {
	api := gateway.NewMock()
	task := NewHistoricalTask(api, 30, zerolog.Nop())
	startTask(t, task)

	task.Post(message.Must(message.GetSummary, message.SummaryPayload{AssetID: "NOPE"}))
	n := decodeError(t, recv(t, task))
	assert.Equal(t, "no history for NOPE", n.Message)
}

func TestAnalysisTask(t *testing.T) {
	task := NewAnalysisTask(zerolog.Nop())
	startTask(t, task)

	data := model.MarketData{
		Prices:    map[string]float64{"BTC": 50000, "ETH": 3000},
		Changes24: map[string]float64{"BTC": 1, "ETH": 4},
	}
	task.Post(message.Must(message.RunAnalysis, message.AnalysisPayload{
		StrategyName: "BEST_PERFORMER", Watchlist: []string{"BTC", "ETH"}, MarketData: data,
	}))
	env := recv(t, task)
	require.Equal(t, message.AnalysisReport, env.Kind)
	var r model.AnalysisReport
	require.NoError(t, env.Decode(&r))
	assert.Equal(t, "BTC", r.Best.Symbol)
	assert.Equal(t, 50000.0, r.Best.Price)
	assert.Equal(t, "ETH", r.Worst.Symbol)
	assert.Equal(t, 3000.0, r.Worst.Price)

	task.Post(message.Must(message.RunAnalysis, message.AnalysisPayload{
		StrategyName: "MOON", Watchlist: []string{"BTC"}, MarketData: data,
	}))
	n := decodeError(t, recv(t, task))
	assert.Contains(t, n.Message, "invalid strategy")
}

func TestErrorResultMessages(t *testing.T) {
	var n model.Notification
	require.NoError(t, errorResult(&gateway.APIError{Op: "x", Status: 429, Message: "rate limited"}).Decode(&n))
	assert.Equal(t, "rate limited", n.Message)

	require.NoError(t, errorResult(errors.New("plain")).Decode(&n))
	assert.Equal(t, "plain", n.Message)
}
