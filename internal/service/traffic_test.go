package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
)

var sgt = time.FixedZone("SGT", 8*3600)

func newTrafficService(store TrafficStore, src *stubSource) *TrafficService {
	return NewTrafficService(store, src, TrafficOptions{
		Location:   sgt,
		CurrentTTL: time.Minute,
		CacheBytes: 1 << 20,
	}, metrics.Noop{}, zerolog.Nop())
}

func at(day, hour, minute int) time.Time {
	// 2026-10-18 is a Sunday
	return time.Date(2026, 10, day, hour, minute, 0, 0, sgt)
}

func TestAverageByTimeOfDay(t *testing.T) {
	samples := []model.TrafficSample{
		{SampledAt: at(18, 7, 0).UTC(), Counts: []int{10, 1}},  // Sunday
		{SampledAt: at(25, 7, 0).UTC(), Counts: []int{15, 2}},  // Sunday
		{SampledAt: at(25, 7, 5).UTC(), Counts: []int{4, 3}},   // Sunday
		{SampledAt: at(19, 7, 0).UTC(), Counts: []int{100, 0}}, // Monday, filtered
		{SampledAt: at(18, 6, 55).UTC(), Counts: []int{7}},     // Sunday, facility 1 missing
	}
	now := at(20, 15, 30)

	got := AverageByTimeOfDay(samples, 0, []int{1}, sgt, now)
	require.Len(t, got, 3)
	assert.Equal(t, model.TrafficKey{Hour: "06", Minute: "55"}, got[0].Key)
	assert.Equal(t, model.TrafficKey{Hour: "07", Minute: "00"}, got[1].Key)
	assert.Equal(t, 12.5, got[1].Count)
	assert.True(t, got[1].Date.Equal(at(20, 7, 0)), "dated today at the bucket time")
	assert.Equal(t, 4.0, got[2].Count)

	got = AverageByTimeOfDay(samples, 1, []int{1}, sgt, now)
	require.Len(t, got, 2, "samples without the facility are skipped")
	assert.Equal(t, 1.5, got[0].Count)

	got = AverageByTimeOfDay(samples, 0, []int{1, 2}, sgt, now)
	require.Len(t, got, 3)
	assert.Equal(t, 41.7, got[1].Count, "(10+15+100)/3 rounded to 1dp")
}

func TestAverageByTimeOfDay_DayUsesLocalTime(t *testing.T) {
	// 23:30 UTC Saturday is 07:30 Sunday in SGT
	s := model.TrafficSample{SampledAt: time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC), Counts: []int{5}}
	got := AverageByTimeOfDay([]model.TrafficSample{s}, 0, []int{1}, sgt, at(20, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, "07", got[0].Key.Hour)
	assert.Empty(t, AverageByTimeOfDay([]model.TrafficSample{s}, 0, []int{7}, sgt, at(20, 0, 0)))
}

func TestHistorical_EmptyDaysMatchesNothing(t *testing.T) {
	store := &memTraffic{samples: []model.TrafficSample{{SampledAt: at(18, 7, 0), Counts: []int{1}}}}
	svc := newTrafficService(store, &stubSource{})
	got, err := svc.Historical(context.Background(), 0, repository.TimeRange{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCurrent_CachesReading(t *testing.T) {
	src := &stubSource{counts: []int{33, 2, 6}}
	svc := newTrafficService(&memTraffic{}, src)
	ctx := context.Background()

	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{33, 2, 6}, got)

	got, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{33, 2, 6}, got)
	assert.Equal(t, 1, src.calls)
}

func TestCurrent_SourceFailure(t *testing.T) {
	svc := newTrafficService(&memTraffic{}, &stubSource{err: errors.New("portal down")})
	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrTrafficUnavailable)

	svc = newTrafficService(&memTraffic{}, &stubSource{})
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrTrafficUnavailable)
}

func TestPoll_OpeningHoursOnly(t *testing.T) {
	store := &memTraffic{}
	src := &stubSource{counts: []int{1, 2}}
	svc := newTrafficService(store, src)
	ctx := context.Background()

	for _, tc := range []struct {
		now    time.Time
		stored bool
	}{
		{at(19, 6, 55), false},
		{at(19, 7, 0), true},
		{at(19, 21, 55), true},
		{at(19, 22, 0), false},
	} {
		before := len(store.samples)
		svc.now = func() time.Time { return tc.now.Add(3 * time.Second) }
		require.NoError(t, svc.Poll(ctx))
		assert.Equal(t, tc.stored, len(store.samples) > before, "at %s", tc.now)
	}
	require.Len(t, store.samples, 2)
	assert.True(t, store.samples[0].SampledAt.Equal(at(19, 7, 0)))
	assert.Equal(t, time.UTC, store.samples[0].SampledAt.Location())
}
