package config

import (
	"errors"
	"log"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"bloodconnect"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"bloodconnect"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"bc"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置（管理员登录）
	JWTSecret        string `env:"JWT_SECRET"`
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"60"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 管理员账号，密码只保存 bcrypt 哈希
	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	AdminEmail        string `env:"ADMIN_EMAIL"` // 紧急请求通知的管理员邮箱，同时作为广播邮件的 BCC

	// 邮件（Gmail SMTP）
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUsername string `env:"GMAIL_USER"`
	SMTPPassword string `env:"GMAIL_APP_PASSWORD"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"NSS BloodConnect"`
	SMTPIdle     int    `env:"SMTP_IDLE_SECONDS" envDefault:"30"` // 空闲超过该时长的 SMTP 连接会重新拨号

	// 短信服务配置
	SMSProvider        string `env:"SMS_PROVIDER" envDefault:"twilio"` // twilio, aliyun, mock
	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber  string `env:"TWILIO_PHONE_NUMBER"`
	SMSSignName        string `env:"SMS_SIGN_NAME"`     // aliyun 短信签名
	SMSTemplateCode    string `env:"SMS_TEMPLATE_CODE"` // aliyun 模板代码，模板变量为 ${content}
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE" envDefault:"91"`

	// WhatsApp 网关（外部自动化客户端的 HTTP 桥）
	WhatsAppGatewayURL   string `env:"WHATSAPP_GATEWAY_URL" envDefault:"http://localhost:3001"`
	WhatsAppGatewayToken string `env:"WHATSAPP_GATEWAY_TOKEN"`
	WhatsAppTimeout      int    `env:"WHATSAPP_TIMEOUT_SECONDS" envDefault:"20"`

	// 通知分发
	DispatchChannels    string `env:"DISPATCH_CHANNELS" envDefault:"whatsapp"` // 逗号分隔：whatsapp,sms,email
	DispatchConcurrency int    `env:"DISPATCH_CONCURRENCY" envDefault:"16"`
	DispatchMode        string `env:"DISPATCH_MODE" envDefault:"mq"` // mq, inline
	InlineWorkers       int    `env:"INLINE_WORKERS" envDefault:"2"`
	InlineQueueSize     int    `env:"INLINE_QUEUE_SIZE" envDefault:"64"`
	SummaryTTLHours     int    `env:"DISPATCH_SUMMARY_TTL_HOURS" envDefault:"24"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// OpenTelemetry，endpoint 为空时不启用导出
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
	ServiceVersion  string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	warnMissing()
}

// warnMissing 只提示，缺少的集成在对应渠道发送时才会失败
func warnMissing() {
	if Cfg.SMTPUsername == "" || Cfg.SMTPPassword == "" {
		log.Printf("WARN: GMAIL_USER or GMAIL_APP_PASSWORD is not set, email channel will not work")
	}

	if Cfg.SMSProvider == "twilio" && (Cfg.TwilioAccountSID == "" || Cfg.TwilioAuthToken == "" || Cfg.TwilioPhoneNumber == "") {
		log.Printf("WARN: Twilio credentials are incomplete, SMS channel will not work")
	}

	if Cfg.SMSProvider == "aliyun" && (Cfg.SMSSignName == "" || Cfg.SMSTemplateCode == "") {
		log.Printf("WARN: SMS_SIGN_NAME or SMS_TEMPLATE_CODE is not set, SMS service may not work properly")
	}

	if Cfg.AdminEmail == "" {
		log.Printf("WARN: ADMIN_EMAIL is not set, admin emergency emails will be skipped")
	}
}

var (
	ErrJWTSecretMissing   = errors.New("JWT_SECRET is required")
	ErrAdminPasswordUnset = errors.New("ADMIN_PASSWORD_HASH is required")
	ErrConcurrencyInvalid = errors.New("DISPATCH_CONCURRENCY must be positive")
)

// Validate 校验 server 启动必需的配置
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	if c.AdminPasswordHash == "" {
		return ErrAdminPasswordUnset
	}
	if c.DispatchConcurrency <= 0 {
		return ErrConcurrencyInvalid
	}
	return nil
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

// DispatchChannelList 解析 DISPATCH_CHANNELS，去重并保持顺序
func (c *Config) DispatchChannelList() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(c.DispatchChannels, ",") {
		ch := strings.ToLower(strings.TrimSpace(part))
		if ch == "" {
			continue
		}
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
