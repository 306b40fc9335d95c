// Package redis 创建限流计数共享用的 Redis 客户端.
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPoolSize PoolSize 未配置时的连接池大小
	DefaultPoolSize = 20
	// DefaultPingTimeout 启动时连通性检查的超时
	DefaultPingTimeout = 5 * time.Second
)

// Options Redis 连接参数, 对应配置文件的 cache 段.
// Host 为空表示不使用 Redis, 限流退回进程内计数.
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
	// PoolSize 连接池大小, 不大于 0 时取 DefaultPoolSize
	PoolSize int
	// PingTimeout 不大于 0 时取 DefaultPingTimeout
	PingTimeout time.Duration
}

// Enabled 是否配置了 Redis
func (o *Options) Enabled() bool {
	return o != nil && o.Host != ""
}

func (o *Options) clientOptions() *redis.Options {
	poolSize := o.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Password: o.Password,
		DB:       o.DB,
		PoolSize: poolSize,
	}
}

// NewRedisClient 创建客户端并 PING 一次; 未配置时返回 nil, nil
func NewRedisClient(opts *Options) (*redis.Client, error) {
	if !opts.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(opts.clientOptions())

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis连接失败 %s: %w", client.Options().Addr, err)
	}
	return client, nil
}
