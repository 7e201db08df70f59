package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// Cmdable is the subset of go-redis commands the platform uses, accepted
// as an interface so tests can substitute a mock.
type Cmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd
	TTL(ctx context.Context, key string) *goredis.DurationCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// Client wraps a Redis connection with OpenTelemetry spans and platform
// error mapping. Safe for concurrent use.
type Client struct {
	rdb    Cmdable
	tracer trace.Tracer
}

// NewClient connects to Redis with the given configuration and verifies
// the connection with a ping.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts *goredis.Options
	if config.URI != "" {
		parsed, err := goredis.ParseURL(config.URI)
		if err != nil {
			return nil, pserr.Wrap(err, pserr.CodeInternalConfiguration,
				"redis: invalid connection URI")
		}
		opts = parsed
	} else {
		opts = &goredis.Options{
			Addr:         config.Addr(),
			DB:           config.DB,
			Password:     config.Password.Value(),
			PoolSize:     config.PoolSize,
			DialTimeout:  config.DialTimeout,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		}
	}

	client := NewFromCmdable(goredis.NewClient(opts))
	if err := client.Health(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewFromCmdable wraps an existing connection, for tests and for callers
// that manage the connection themselves.
func NewFromCmdable(rdb Cmdable) *Client {
	return &Client{
		rdb:    rdb,
		tracer: otel.Tracer("peoplesuite-core/clients/redis"),
	}
}

// Set stores a value under key with the given TTL. A zero TTL means no
// expiration.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, span := c.startSpan(ctx, "redis.Set", key)
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return c.fail(span, err, "redis: SET %q failed", key)
	}
	return nil
}

// Get returns the value stored under key. A missing or expired key
// yields [pserr.CodeNotFound].
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	ctx, span := c.startSpan(ctx, "redis.Get", key)
	defer span.End()

	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", pserr.Newf(pserr.CodeNotFound, "redis: key %q not found", key)
		}
		return "", c.fail(span, err, "redis: GET %q failed", key)
	}
	return value, nil
}

// Del removes the given keys. Deleting a missing key is not an error.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	ctx, span := c.startSpan(ctx, "redis.Del", "")
	defer span.End()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return c.fail(span, err, "redis: DEL failed")
	}
	return nil
}

// Exists reports whether the key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := c.startSpan(ctx, "redis.Exists", key)
	defer span.End()

	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, c.fail(span, err, "redis: EXISTS %q failed", key)
	}
	return n > 0, nil
}

// Expire resets the TTL on an existing key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, span := c.startSpan(ctx, "redis.Expire", key)
	defer span.End()

	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return c.fail(span, err, "redis: EXPIRE %q failed", key)
	}
	if !ok {
		return pserr.Newf(pserr.CodeNotFound, "redis: key %q not found", key)
	}
	return nil
}

// TTL returns the remaining lifetime of a key.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, span := c.startSpan(ctx, "redis.TTL", key)
	defer span.End()

	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, c.fail(span, err, "redis: TTL %q failed", key)
	}
	return ttl, nil
}

// Health pings the server, for readiness probes.
func (c *Client) Health(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return classify(err, "redis: ping failed")
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("db.system", "redis")}
	if key != "" {
		attrs = append(attrs, attribute.String("db.redis.key", key))
	}
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

func (c *Client) fail(span trace.Span, err error, format string, args ...any) error {
	wrapped := classify(err, format, args...)
	span.RecordError(wrapped)
	span.SetStatus(codes.Error, wrapped.Error())
	return wrapped
}

// classify maps transport errors onto platform codes: deadline failures
// are timeouts, everything else marks the dependency unavailable.
func classify(err error, format string, args ...any) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pserr.Wrapf(err, pserr.CodeTimeout, format, args...)
	}
	return pserr.Wrapf(err, pserr.CodeUnavailable, format, args...)
}
