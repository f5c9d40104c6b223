package database

import (
	"context"
	"time"

	"hoa-advisor-go/pkg/log"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	RDB    *redis.Client
	Locker *redislock.Client
)

// InitRedis 初始化 Redis 客户端连接与分布式锁客户端。addr 为空时跳过。
func InitRedis(addr, password string, db int) {
	if addr == "" {
		log.Info("Redis 未配置，跳过初始化")
		return
	}
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}
	Locker = redislock.New(RDB)

	log.Info("Redis client connected successfully")
}

// CloseRedis 关闭 Redis 连接。
func CloseRedis() {
	if RDB != nil {
		_ = RDB.Close()
	}
}
