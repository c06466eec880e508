package storage

import (
	"BloodConnect/storage/database"
	"BloodConnect/storage/mq"
	"BloodConnect/storage/redis"
)

// Init 初始化存储层；withMQ 为 false 时跳过 RabbitMQ（inline 分发模式）
func Init(withMQ bool) error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if withMQ {
		if err := mq.Init(); err != nil {
			return err
		}
	}

	return nil
}
