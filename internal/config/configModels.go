package config

import "time"

type Config struct {
	Env             string           `yaml:"env" env:"ENV" env-default:"local"`
	HttpServer      HttpServerConfig `yaml:"httpServer"`
	DBConfig        DBConfig         `yaml:"db"`
	RedisConfig     RedisConfig      `yaml:"redis"`
	ExtractorConfig ExtractorConfig  `yaml:"extractor"`
	RelayConfig     RelayConfig      `yaml:"relay"`
	ImageHostConfig ImageHostConfig  `yaml:"imageHost"`
	ImporterConfig  ImporterConfig   `yaml:"importer"`
	BotConfig       BotConfig        `yaml:"bot"`
	ScraperConfig   ScraperConfig    `yaml:"scraper"`
	configPath      string
}

type HttpServerConfig struct {
	Address       string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost"`
	Port          string        `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
	Timeout       time.Duration `yaml:"timeout" env-default:"30s"`
	Secret        string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL      time.Duration `yaml:"tokenTTL" env-default:"24h"`
	AdminUser     string        `yaml:"adminUser" env:"ADMIN_USER" env-default:"admin"`
	AdminPassword string        `yaml:"adminPassword" env:"ADMIN_PASSWORD" env-required:"true"`
}

type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"postgres"`
	User     string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	SSLMode  string `yaml:"sslMode" env:"DB_SSLMODE" env-default:"disable"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env-default:"168h"`
}

// ExtractorConfig — параметры пайплайна извлечения.
type ExtractorConfig struct {
	ProfilesFile   string        `yaml:"profilesFile" env:"EXTRACTOR_PROFILES_FILE"`
	DefaultProfile string        `yaml:"defaultProfile" env-default:"comet"`
	Timeout        time.Duration `yaml:"timeout" env-default:"15s"`      // общий таймаут пайплайна
	ImageTimeout   time.Duration `yaml:"imageTimeout" env-default:"8s"`  // вложенный таймаут шага с картинкой
	LoaderTimeout  time.Duration `yaml:"loaderTimeout" env-default:"10s"`
	UserAgent      string        `yaml:"userAgent" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
}

// RelayConfig описывает поиск локального API и загрузку картинок через него.
type RelayConfig struct {
	Host          string        `yaml:"host" env:"RELAY_HOST" env-default:"localhost"`
	Ports         []int         `yaml:"ports" env:"RELAY_PORTS" env-default:"3000,3001,3002,3003,8080"`
	ProbeTimeout  time.Duration `yaml:"probeTimeout" env-default:"2s"`
	UploadTimeout time.Duration `yaml:"uploadTimeout" env-default:"4s"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket" env:"S3_BUCKET"`
	Region        string `yaml:"region" env:"S3_REGION"`
	Profile       string `yaml:"profile" env:"S3_PROFILE"`
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle  bool   `yaml:"usePathStyle" env-default:"false"`
	Prefix        string `yaml:"prefix" env-default:"events/"`
	PublicBaseURL string `yaml:"publicBaseURL" env:"S3_PUBLIC_BASE_URL"`
}

// ImageHostConfig — цепочка хостингов для /api/proxy-image.
type ImageHostConfig struct {
	Hosts      []string      `yaml:"hosts" env:"IMAGE_HOSTS" env-default:"fileio,catbox,s3,local"`
	FileIOURL  string        `yaml:"fileIOURL" env-default:"https://file.io"`
	CatboxURL  string        `yaml:"catboxURL" env-default:"https://catbox.moe/user/api.php"`
	LocalDir   string        `yaml:"localDir" env:"IMAGE_LOCAL_DIR" env-default:"./uploads"`
	PublicPath string        `yaml:"publicPath" env-default:"/uploads/"`
	MaxBytes   int64         `yaml:"maxBytes" env-default:"10485760"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10s"`
	S3         S3Config      `yaml:"s3"`

	// AllowedSourceHosts — шаблоны хостов, с которых разрешено скачивать картинки.
	AllowedSourceHosts []string `yaml:"allowedSourceHosts" env:"IMAGE_ALLOWED_HOSTS" env-default:"fbcdn.net,*.fbcdn.net"`
}

type ImporterConfig struct {
	Origins  []string      `yaml:"origins" env:"IMPORT_ORIGINS" env-default:"http://localhost:3000,http://localhost:3001"`
	Timeout  time.Duration `yaml:"timeout" env-default:"5s"`
	Timezone string        `yaml:"timezone" env:"IMPORT_TIMEZONE" env-default:"UTC"`
}

type AIConfig struct {
	Timeout          time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"60s"`
	ModelName        string        `yaml:"modelName" env:"AI_MODEL_NAME"`
	AIApiToken       string        `yaml:"aiapitoken" env:"AI_API_TOKEN"`
	SystemRolePrompt string        `yaml:"systemRolePrompt" env-default:"You classify live music events by genre."`
	JobBufferSize    int           `yaml:"jobBufferSize" env:"AI_BUFFER_SIZE" env-default:"10"`
	WorkersCount     int           `yaml:"workersCount" env:"AI_WORKERS_COUNT" env-default:"1"`
}

// Enabled — AI включается только при наличии токена и модели.
func (c AIConfig) Enabled() bool {
	return c.AIApiToken != "" && c.ModelName != ""
}

type BotConfig struct {
	TgbotApiToken string   `yaml:"tgbot_apitoken" env:"TGBOT_APITOKEN"`
	ChannelIDs    []int64  `yaml:"channelIDs" env:"TGBOT_CHANNEL_IDS"`
	AdminIDs      []int64  `yaml:"adminIDs" env:"TGBOT_ADMIN_IDS"` // кто может публиковать и отклонять события
	AI            AIConfig `yaml:"AI"`
}

// SiteConfig описывает страницу события для пакетного импорта.
type SiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type ScraperConfig struct {
	JobBufferSize int           `yaml:"jobBufferSize" env:"SCRAPER_JOB_BUFFER_SIZE" env-default:"10"`
	WorkersCount  int           `yaml:"workersCount" env:"SCRAPER_WORKERS_COUNT" env-default:"2"`
	Timeout       time.Duration `yaml:"timeout" env:"SCRAPER_TIMEOUT" env-default:"60s"`
	Schedule      string        `yaml:"schedule" env:"SCRAPER_SCHEDULE"` // cron-выражение, пусто — только при старте
	Sites         []SiteConfig  `yaml:"sites"`
}
