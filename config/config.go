package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string
	LogLevel string

	// SnowFlakeNodeID distinguishes id generators between processes.
	SnowFlakeNodeID int64

	ApiServer        ServerConfigs
	PrometheusServer ServerConfigs
	Database         DatabaseConfigs
	Redis            RedisConfigs
	Kafka            KafkaConfigs
	Wallet           WalletConfigs
	Jackpot          JackpotConfigs
}

type ServerConfigs struct {
	Host string
	Port string
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

type WalletConfigs struct {
	// CallbackSecret signs every provider callback body with HMAC-SHA256.
	CallbackSecret string

	// AllowedIPs lists provider source addresses permitted to call the
	// wallet endpoint. An empty list disables the check.
	AllowedIPs []string
}

type JackpotConfigs struct {
	// DrawInterval is the pool cycle length used to compute the next
	// draw time when a pool rolls forward.
	DrawInterval time.Duration

	// CheckInterval is how often the cron job looks for a due pool.
	CheckInterval time.Duration
}
