package poller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/models"
)

type fakeFetcher struct {
	counts    []int
	countErr  error
	batch     []models.Notification
	batchErr  error
	countIdx  int
	batchHits int
}

func (f *fakeFetcher) UnreadCount(context.Context, string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.countIdx >= len(f.counts) {
		return f.counts[len(f.counts)-1], nil
	}
	count := f.counts[f.countIdx]
	f.countIdx++
	return count, nil
}

func (f *fakeFetcher) Notifications(_ context.Context, _ string, limit int) ([]models.Notification, error) {
	f.batchHits++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if len(f.batch) > limit {
		return f.batch[:limit], nil
	}
	return f.batch, nil
}

type recordingAlerter struct {
	individual []models.Notification
	aggregates []int
}

func (a *recordingAlerter) Notify(n models.Notification)  { a.individual = append(a.individual, n) }
func (a *recordingAlerter) NotifyMore(count int)          { a.aggregates = append(a.aggregates, count) }

func unreadBatch(n int) []models.Notification {
	batch := make([]models.Notification, n)
	for i := range batch {
		batch[i] = models.Notification{
			ID:    fmt.Sprintf("n%d", i),
			Title: fmt.Sprintf("Notification %d", i),
			Type:  models.NotificationTypeGeneral,
		}
	}
	return batch
}

func withToken() func() string { return func() string { return "tok" } }

func newPoller(fetch Fetcher, alert Alerter, token func() string) *Poller {
	return New(fetch, alert, token, DefaultInterval, zerolog.Nop())
}

func TestSuspendedWithoutToken(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{5}}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, func() string { return "" })

	p.RefreshOnce(context.Background())

	assert.Zero(t, fetch.countIdx, "no fetch while logged out")
	assert.Empty(t, alert.individual)
}

func TestFirstObservationSetsBaselineOnly(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{4}, batch: unreadBatch(4)}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())

	assert.Equal(t, 4, p.LastSeen())
	assert.Empty(t, alert.individual)
	assert.Empty(t, alert.aggregates)
	assert.Zero(t, fetch.batchHits)
}

func TestCountTwoToFive(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{2, 5}, batch: unreadBatch(5)}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	// Three arrived: three individual alerts, no aggregate.
	require.Len(t, alert.individual, 3)
	assert.Empty(t, alert.aggregates)
	assert.Equal(t, 5, p.LastSeen())
}

func TestCountZeroToFive(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{0, 5}, batch: unreadBatch(5)}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	// Five arrived: three individual alerts plus one aggregate for the rest.
	require.Len(t, alert.individual, 3)
	require.Len(t, alert.aggregates, 1)
	assert.Equal(t, 2, alert.aggregates[0])
}

func TestCountDecreaseIsQuiet(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{5, 2}, batch: unreadBatch(5)}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	assert.Empty(t, alert.individual)
	assert.Equal(t, 2, p.LastSeen())
}

func TestReadNotificationsFilteredFromAlerts(t *testing.T) {
	batch := unreadBatch(3)
	batch[1].Read = true
	fetch := &fakeFetcher{counts: []int{0, 2}, batch: batch}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	require.Len(t, alert.individual, 2)
	assert.Equal(t, "n0", alert.individual[0].ID)
	assert.Equal(t, "n2", alert.individual[1].ID)
}

func TestCountFetchFailureHoldsCounter(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{3}}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	require.Equal(t, 3, p.LastSeen())

	fetch.countErr = errors.New("timeout")
	p.RefreshOnce(context.Background())

	assert.Equal(t, 3, p.LastSeen())
	assert.Empty(t, alert.individual)
}

func TestBatchFetchFailureStillAdvancesCounter(t *testing.T) {
	fetch := &fakeFetcher{counts: []int{1, 4}, batchErr: errors.New("timeout")}
	alert := &recordingAlerter{}
	p := newPoller(fetch, alert, withToken())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	assert.Equal(t, 4, p.LastSeen())
	assert.Empty(t, alert.individual)
}
