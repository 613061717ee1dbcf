package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/traffic"
)

// TrafficStore is satisfied by repository.TrafficRepo.
type TrafficStore interface {
	Insert(ctx context.Context, s model.TrafficSample) error
	List(ctx context.Context, tr repository.TimeRange) ([]model.TrafficSample, error)
}

var currentKey = []byte("traffic:current")

// Polls outside [pollFirstHour, pollLastHour] local time are skipped; the
// facilities are closed.
const (
	pollFirstHour = 7
	pollLastHour  = 21
)

type TrafficService struct {
	store   TrafficStore
	source  traffic.Source
	cache   *freecache.Cache
	ttl     time.Duration
	loc     *time.Location
	metrics metrics.Recorder
	log     zerolog.Logger
	now     func() time.Time
}

type TrafficOptions struct {
	Location   *time.Location
	CurrentTTL time.Duration
	CacheBytes int
}

func NewTrafficService(store TrafficStore, src traffic.Source, opts TrafficOptions, m metrics.Recorder, log zerolog.Logger) *TrafficService {
	return &TrafficService{
		store:   store,
		source:  src,
		cache:   freecache.NewCache(opts.CacheBytes),
		ttl:     opts.CurrentTTL,
		loc:     opts.Location,
		metrics: m,
		log:     log.With().Str("component", "traffic").Logger(),
		now:     time.Now,
	}
}

// Current returns live head counts, served from memory when a recent
// reading exists.
func (s *TrafficService) Current(ctx context.Context) ([]int, error) {
	if raw, err := s.cache.Get(currentKey); err == nil {
		var counts []int
		if json.Unmarshal(raw, &counts) == nil {
			s.metrics.IncTrafficCacheHits()
			return counts, nil
		}
	}
	s.metrics.IncTrafficCacheMisses()
	return s.fetch(ctx)
}

func (s *TrafficService) fetch(ctx context.Context) ([]int, error) {
	start := time.Now()
	counts, err := s.source.Fetch(ctx)
	s.metrics.ObserveScrapeDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrafficUnavailable, err)
	}
	if len(counts) == 0 {
		return nil, ErrTrafficUnavailable
	}
	if raw, err := json.Marshal(counts); err == nil && s.ttl > 0 {
		_ = s.cache.Set(currentKey, raw, int(s.ttl/time.Second))
	}
	return counts, nil
}

// Poll stores one sample during opening hours.
func (s *TrafficService) Poll(ctx context.Context) error {
	local := s.now().In(s.loc)
	if local.Hour() < pollFirstHour || local.Hour() > pollLastHour {
		return nil
	}
	counts, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	sample := model.TrafficSample{SampledAt: local.Truncate(time.Minute).UTC(), Counts: counts}
	if err := s.store.Insert(ctx, sample); err != nil {
		return fmt.Errorf("store sample: %w", err)
	}
	s.log.Debug().Time("at", sample.SampledAt).Ints("counts", counts).Msg("sample stored")
	return nil
}

// Historical averages facility's head count per local time of day over
// the samples in tr whose local weekday is in days (1 = Sunday ... 7 =
// Saturday).  Samples without a reading for facility do not count.
func (s *TrafficService) Historical(ctx context.Context, facility int, tr repository.TimeRange, days []int) ([]model.TrafficAverage, error) {
	out := make([]model.TrafficAverage, 0)
	if len(days) == 0 {
		return out, nil
	}
	samples, err := s.store.List(ctx, tr)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	return AverageByTimeOfDay(samples, facility, days, s.loc, s.now()), nil
}

type bucket struct {
	hour, minute int
	sum          float64
	n            int
}

// AverageByTimeOfDay is the aggregation behind Historical.  Every point is
// dated today (in loc) at its time of day.
func AverageByTimeOfDay(samples []model.TrafficSample, facility int, days []int, loc *time.Location, now time.Time) []model.TrafficAverage {
	want := make(map[int]bool, len(days))
	for _, d := range days {
		want[d] = true
	}
	buckets := map[int]*bucket{}
	for _, smp := range samples {
		local := smp.SampledAt.In(loc)
		if !want[int(local.Weekday())+1] {
			continue
		}
		if facility < 0 || facility >= len(smp.Counts) {
			continue
		}
		k := local.Hour()*60 + local.Minute()
		b, ok := buckets[k]
		if !ok {
			b = &bucket{hour: local.Hour(), minute: local.Minute()}
			buckets[k] = b
		}
		b.sum += float64(smp.Counts[facility])
		b.n++
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	today := now.In(loc)
	out := make([]model.TrafficAverage, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, model.TrafficAverage{
			Key: model.TrafficKey{
				Hour:   fmt.Sprintf("%02d", b.hour),
				Minute: fmt.Sprintf("%02d", b.minute),
			},
			Date:  time.Date(today.Year(), today.Month(), today.Day(), b.hour, b.minute, 0, 0, loc),
			Count: math.Round(b.sum/float64(b.n)*10) / 10,
		})
	}
	return out
}
