package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type ApiConfig struct {
	BaseURL      string        `yaml:"baseUrl" validate:"required|url"`
	Key          string        `yaml:"key" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" validate:"required|min:1"`
	Source       string        `yaml:"source"`
	BuildVersion string        `yaml:"buildVersion"`
}

type Persistence struct {
	FilePath string `yaml:"filePath" validate:"required|unixPath"`
	Compress bool   `yaml:"compress"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type SyncConfig struct {
	RetryInterval time.Duration `yaml:"retryInterval" validate:"required|min:1"`
}

// ConnectivityConfig controls the reachability probe. An empty ProbeAddr
// disables probing and the monitor relies on SetReachable from the host.
type ConnectivityConfig struct {
	ProbeAddr     string        `yaml:"probeAddr"`
	ProbeInterval time.Duration `yaml:"probeInterval"`
	ProbeTimeout  time.Duration `yaml:"probeTimeout"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName      string
	Debug        bool
	Path         string
	UserID       string             `yaml:"userId"`
	Api          ApiConfig          `yaml:"api"`
	WebServer    Server             `yaml:"webServer"`
	Persistence  Persistence        `yaml:"persistence"`
	Logger       LoggerConfig       `yaml:"logger"`
	Sync         SyncConfig         `yaml:"sync"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Cache        CacheConfig        `yaml:"cache"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}
