package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/eplq/config"
	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/metrics"
	"github.com/kochabx/eplq/service"
	"github.com/kochabx/eplq/store"
	"github.com/kochabx/eplq/store/db"
	"github.com/kochabx/eplq/store/kafka"
	"github.com/kochabx/eplq/store/leveldb"
	"github.com/kochabx/eplq/store/mongo"
	"github.com/kochabx/eplq/store/redis"
)

const shutdownTimeout = 10 * time.Second

type closer struct {
	name string
	fn   func(context.Context) error
}

type app struct {
	keys    *geocrypt.KeyManager
	service *service.Service
	closers []closer
	mongo   *mongo.Client
	metrics *metrics.Metrics
}

// newApp wires the store, query log and metrics named by settings.
// inMemory replaces the configured store with an empty in-memory one.
func newApp(ctx context.Context, s *config.Settings, inMemory bool) (_ *app, err error) {
	a := &app{keys: geocrypt.NewKeyManager()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if s.Metrics.Enabled {
		a.metrics = a.serveMetrics(s.Metrics)
	}

	var points store.PointStore
	if inMemory {
		points, err = leveldb.OpenMemory()
		if err == nil {
			a.onClose("leveldb", points.Close)
		}
	} else {
		points, err = a.openStore(ctx, s)
	}
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.G.Component("service")),
		service.WithMaxCandidates(s.Query.MaxCandidates),
		service.WithMaxResults(s.Query.MaxResults),
		service.WithParallelism(s.Query.Parallelism),
		service.WithCategoryPrefilter(s.Query.CategoryPrefilter),
		service.WithPublishCategory(s.Query.PublishCategory),
		service.WithSpatialPrefilter(s.Query.SpatialPrefilter),
		service.WithPrecision(s.Index.Precision),
	}

	sink, err := a.openQueryLog(ctx, s)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		opts = append(opts, service.WithQueryLog(sink))
	}
	if a.metrics != nil {
		opts = append(opts, service.WithMetrics(a.metrics))
	}

	svc, err := service.New(a.keys, points, opts...)
	if err != nil {
		return nil, err
	}
	// runs first on close, flushing pending query log writes
	a.onClose("service", svc.Close)
	a.service = svc

	if err := svc.Initialize(); err != nil {
		return nil, err
	}
	return a, nil
}

// onClose registers fn to run on close, in reverse registration order
func (a *app) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			log.Warn().Err(err).Str("name", c.name).Msg("shutdown step failed")
		}
	}
	a.keys.Destroy()
}

// mongoClient connects once; the point store and query log share the client.
func (a *app) mongoClient(ctx context.Context, s *config.Settings) (*mongo.Client, error) {
	if a.mongo != nil {
		return a.mongo, nil
	}
	c, err := mongo.New(ctx, &s.Store.Mongo, mongo.WithLogger(log.G.Component("mongo")))
	if err != nil {
		return nil, err
	}
	a.onClose("mongo", c.Close)
	a.mongo = c
	return c, nil
}

func (a *app) openStore(ctx context.Context, s *config.Settings) (store.PointStore, error) {
	switch s.Store.Driver {
	case config.StoreMongo:
		c, err := a.mongoClient(ctx, s)
		if err != nil {
			return nil, err
		}
		return mongo.NewPointStore(ctx, c)

	case config.StoreSQL:
		c, err := db.New(&s.Store.SQL, db.WithLogger(log.G.Component("db")))
		if err != nil {
			return nil, err
		}
		a.onClose("db", func(context.Context) error { return c.Close() })
		a.registerPool("db", func() metrics.PoolStats {
			st := c.Stats()
			return metrics.PoolStats{Open: st.OpenConnections, Idle: st.Idle, InUse: st.InUse}
		})
		return db.NewPointStore(ctx, c)

	default:
		st, err := leveldb.Open(s.Store.LevelDB)
		if err != nil {
			return nil, err
		}
		a.onClose("leveldb", st.Close)
		return st, nil
	}
}

func (a *app) openQueryLog(ctx context.Context, s *config.Settings) (store.QueryLogSink, error) {
	switch s.QueryLog.Sink {
	case config.SinkMongo:
		c, err := a.mongoClient(ctx, s)
		if err != nil {
			return nil, err
		}
		return mongo.NewQueryLog(ctx, c)

	case config.SinkRedis:
		c, err := redis.New(ctx, &s.QueryLog.Redis, redis.WithLogger(log.G.Component("redis")))
		if err != nil {
			return nil, err
		}
		a.onClose("redis", func(context.Context) error { return c.Close() })
		a.registerPool("redis", func() metrics.PoolStats {
			st := c.Stats()
			return metrics.PoolStats{Open: int(st.TotalConns), Idle: int(st.IdleConns), InUse: int(st.TotalConns) - int(st.IdleConns)}
		})
		return redis.NewQueryLog(c), nil

	case config.SinkKafka:
		c, err := kafka.New(&s.QueryLog.Kafka, kafka.WithLogger(log.G.Component("kafka")))
		if err != nil {
			return nil, err
		}
		a.onClose("kafka", func(context.Context) error { return c.Close() })
		return kafka.NewQueryLog(c), nil

	default:
		return nil, nil
	}
}

// registerPool exports pool gauges when metrics are enabled
func (a *app) registerPool(name string, stats func() metrics.PoolStats) {
	if err := a.metrics.RegisterPool(name, stats); err != nil {
		log.Warn().Err(err).Str("pool", name).Msg("pool metrics not registered")
	}
}

// serveMetrics registers the collectors on a fresh registry and serves it
// on Addr when one is configured.
func (a *app) serveMetrics(s config.MetricsSetting) *metrics.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(s.Namespace, reg)

	if s.Addr == "" {
		return m
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", s.Addr).Msg("metrics server stopped")
		}
	}()
	a.onClose("metrics", srv.Shutdown)
	log.Info().Str("addr", s.Addr).Msg("serving metrics")
	return m
}
