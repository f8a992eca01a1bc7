package store

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// Publisher 实时消息发布接口
// 频道命名约定与前端 websocket 网关一致：{consumer_code}.{user_id}
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type RedisPublisher struct {
	c *redis.Client
}

func NewRedisPublisher(c *redis.Client) *RedisPublisher { return &RedisPublisher{c: c} }

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.c.Publish(ctx, channel, data).Err()
}
