package di

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RollSpread/internal/domain/repository"
	"RollSpread/internal/handler/batch"
	internalrepo "RollSpread/internal/repository"
	"RollSpread/internal/service/marketdata"
	"RollSpread/internal/service/ratelimit"
	"RollSpread/internal/services/spread"
	"RollSpread/internal/usecase"
	"RollSpread/pkg/cache"
	pkgch "RollSpread/pkg/clickhouse"
	"RollSpread/pkg/config"
	pkghttp "RollSpread/pkg/http"
	pkgkafka "RollSpread/pkg/kafka"
	applogger "RollSpread/pkg/logger"
	"RollSpread/pkg/metrics"
	pkgpg "RollSpread/pkg/postgres"
	"RollSpread/pkg/retry"
	"RollSpread/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRecorder creates the Prometheus recorder. Pushing is off unless
// metrics are enabled.
func ProvideRecorder(cfg *config.Config) *metrics.Recorder {
	url := ""
	if cfg.Metrics.Enabled {
		url = cfg.Metrics.PushgatewayURL
	}
	return metrics.New(url, cfg.Metrics.Job)
}

// ProvideMetrics exposes the recorder as the domain metrics port.
func ProvideMetrics(r *metrics.Recorder) repository.Metrics {
	return r
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse
// backend is selected, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !needsBackend(cfg, "clickhouse") {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithCompression(cfg.ClickHouse.Compression),
		pkgch.WithSetting("max_insert_block_size", strconv.Itoa(cfg.Store.BatchSize)),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePostgresClient creates a Postgres pool when the postgres backend is
// selected, nil otherwise.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	if !needsBackend(cfg, "postgres") {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgpg.NewClient(ctx,
		pkgpg.WithHost(cfg.Postgres.Host, cfg.Postgres.Port),
		pkgpg.WithDatabase(cfg.Postgres.Database),
		pkgpg.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		pkgpg.WithSSLMode(cfg.Postgres.SSLMode),
		pkgpg.WithMaxConns(cfg.Postgres.MaxConns),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// the expiry table lives next to the output table
func needsBackend(cfg *config.Config, backend string) bool {
	return cfg.Store.Backend == backend
}

// ProvideSpreadStore selects the output table implementation.
func ProvideSpreadStore(cfg *config.Config, ch *pkgch.Client, pg *pkgpg.Client, log *applogger.Logger) (repository.SpreadStore, error) {
	switch cfg.Store.Backend {
	case "clickhouse":
		return internalrepo.NewClickHouseSpreadStore(ch, cfg.Store.Table, cfg.Store.BatchSize, log), nil
	case "postgres":
		return internalrepo.NewPostgresSpreadStore(pg, cfg.Store.Table, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ProvideExpiryStore selects where LastTrade dates come from.
func ProvideExpiryStore(cfg *config.Config, ch *pkgch.Client, pg *pkgpg.Client) (repository.ExpiryStore, error) {
	switch cfg.Expiry.Source {
	case "table":
		if cfg.Store.Backend == "postgres" {
			return internalrepo.NewPostgresExpiryStore(pg, cfg.Expiry.Table), nil
		}
		return internalrepo.NewClickHouseExpiryStore(ch, cfg.Expiry.Table), nil
	case "csv":
		return internalrepo.NewCSVExpiryStore(cfg.Expiry.CSVPath), nil
	case "synthetic":
		return internalrepo.SyntheticExpiryStore{}, nil
	default:
		return nil, fmt.Errorf("unknown expiry source %q", cfg.Expiry.Source)
	}
}

// ProvideCache builds the price cache: memory in front of Redis when Redis
// is enabled, memory only otherwise. Returns nil when caching is off.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	cc := cfg.MarketData.Cache
	if !cc.Enabled {
		return nil, nil
	}
	if !cc.Redis.Enabled {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cc.MemorySize),
			cache.WithMemoryDefaultTTL(cc.TTL),
		), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cc.Redis.Addr),
		cache.WithRedisPassword(cc.Redis.Password),
		cache.WithRedisDB(cc.Redis.DB),
		cache.WithRedisPrefix("rollspread"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cc.MemorySize), nil
}

// ProvidePriceSource creates the market data provider.
func ProvidePriceSource(cfg *config.Config, c cache.Service, log *applogger.Logger) (repository.PriceSource, error) {
	var src repository.PriceSource
	switch cfg.MarketData.Source {
	case "http":
		opts := []pkghttp.ClientOption{pkghttp.WithTimeout(cfg.MarketData.Timeout)}
		if cfg.MarketData.APIKey != "" {
			opts = append(opts, pkghttp.WithHeader("X-API-Key", cfg.MarketData.APIKey))
		}
		src = marketdata.NewHTTPSource(
			pkghttp.NewClient(opts...),
			cfg.MarketData.BaseURL,
			ratelimit.New(cfg.MarketData.RPS, cfg.MarketData.Burst),
		)
	case "csv":
		src = marketdata.NewCSVSource(cfg.MarketData.CSVDir)
	default:
		return nil, fmt.Errorf("unknown marketdata source %q", cfg.MarketData.Source)
	}
	if c != nil {
		src = marketdata.NewCachedSource(src, c, cfg.MarketData.Cache.TTL, log)
	}
	return src, nil
}

// ProvideFetcher wraps the source with the retry policy.
func ProvideFetcher(cfg *config.Config, src repository.PriceSource, log *applogger.Logger, m repository.Metrics) *marketdata.Fetcher {
	policy := retry.New(
		retry.WithMaxAttempts(cfg.Fetch.MaxAttempts),
		retry.WithDelay(cfg.Fetch.Delay),
	)
	return marketdata.NewFetcher(src, policy, log, m)
}

// ProvideBuildOptions maps the build section onto pipeline options.
func ProvideBuildOptions(cfg *config.Config) (spread.Options, error) {
	opts := spread.DefaultOptions()
	var err error
	if opts.Coverage, err = spread.ParseCoverage(cfg.Build.Coverage); err != nil {
		return spread.Options{}, fmt.Errorf("build options: %w", err)
	}
	if opts.MissingExpiry, err = spread.ParseMissingExpiry(cfg.Build.MissingExpiry); err != nil {
		return spread.Options{}, fmt.Errorf("build options: %w", err)
	}
	opts.TailDrop = cfg.Build.TailDrop
	return opts, nil
}

// ProvideSpreadBuilder creates the single-definition builder.
func ProvideSpreadBuilder(f *marketdata.Fetcher, exp repository.ExpiryStore, opts spread.Options, log *applogger.Logger) *usecase.SpreadBuilder {
	return usecase.NewSpreadBuilder(f, exp, opts, log, time.Now)
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, rec *metrics.Recorder) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(rec.Registry()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher announces builds on Kafka, or nowhere.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideWarningCollector attaches a per-run warning collector to log.
func ProvideWarningCollector(cfg *config.Config, log *applogger.Logger, pub repository.EventPublisher) *applogger.WarningCollector {
	c := applogger.NewWarningCollector(pub, cfg.Kafka.WarningsTopic)
	log.AttachCollector(c)
	return c
}

// ProvideArchiver creates the Parquet archiver. The result is a nil
// interface when archiving is disabled.
func ProvideArchiver(cfg *config.Config, log *applogger.Logger) (repository.Archiver, error) {
	ac := cfg.Archive
	if !ac.Enabled {
		return nil, nil
	}
	opts := []internalrepo.ArchiverOption{
		internalrepo.WithArchiveDir(ac.Dir),
		internalrepo.WithArchivePrefix(ac.S3.Prefix),
		internalrepo.WithArchiveCompression(ac.Compression),
		internalrepo.WithArchiveLogger(log),
	}
	if ac.S3.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := internalrepo.NewS3Client(ctx, ac.S3.Region, ac.S3.AccessKey, ac.S3.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		opts = append(opts, internalrepo.WithS3(client, ac.S3.Bucket))
	}
	return internalrepo.NewParquetArchiver(opts...), nil
}

// ProvideBatchBuilder creates the batch use case.
func ProvideBatchBuilder(
	cfg *config.Config,
	builder *usecase.SpreadBuilder,
	store repository.SpreadStore,
	pub repository.EventPublisher,
	archiver repository.Archiver,
	m repository.Metrics,
	collector *applogger.WarningCollector,
	log *applogger.Logger,
) (*usecase.BatchBuilder, error) {
	mode, err := usecase.ParseWriteMode(cfg.Store.WriteMode)
	if err != nil {
		return nil, err
	}
	opts := []usecase.BatchOption{
		usecase.WithMetrics(m),
		usecase.WithCollector(collector),
	}
	if archiver != nil {
		opts = append(opts, usecase.WithArchiver(archiver))
	}
	return usecase.NewBatchBuilder(builder, store, pub, mode, cfg.Store.Backend, log, opts...), nil
}

// ProvideBatchHandler creates the definitions file handler.
func ProvideBatchHandler(bb *usecase.BatchBuilder, log *applogger.Logger) *batch.Handler {
	return batch.NewHandler(bb, log)
}

// ProvideSeasonalReport creates the dashboard report use case.
func ProvideSeasonalReport(cfg *config.Config, store repository.SpreadStore, builder *usecase.SpreadBuilder) *usecase.SeasonalReport {
	return usecase.NewSeasonalReport(store, builder, cfg.Build.TradingDays, cfg.Build.HistogramBins, time.Now)
}

// ProvideResources collects the handles App closes on exit.
func ProvideResources(ch *pkgch.Client, pg *pkgpg.Client, c cache.Service, pub repository.EventPublisher) *server.Resources {
	return &server.Resources{ClickHouse: ch, Postgres: pg, Cache: c, Publisher: pub}
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler *batch.Handler,
	report *usecase.SeasonalReport,
	store repository.SpreadStore,
	res *server.Resources,
) *server.App {
	return server.New(cfg, log, handler, report, store, res)
}
