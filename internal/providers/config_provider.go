package providers

import (
	"appero/internal/structures"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultApiTimeout    = 10 * time.Second
	defaultRetryInterval = 3 * time.Minute
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 3 * time.Second
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("api.timeout", defaultApiTimeout)
	v.SetDefault("sync.retryInterval", defaultRetryInterval)
	v.SetDefault("connectivity.probeInterval", defaultProbeInterval)
	v.SetDefault("connectivity.probeTimeout", defaultProbeTimeout)

	v.BindEnv("logger.level", "APPERO_LOG_LEVEL")
	v.BindEnv("api.key", "APPERO_API_KEY")
	v.BindEnv("api.baseUrl", "APPERO_BASE_URL")
	v.BindEnv("userId", "APPERO_USER_ID")
	v.BindEnv("sync.retryInterval", "APPERO_RETRY_INTERVAL")
	v.BindEnv("persistence.filePath", "APPERO_STATE_FILE")
	v.BindEnv("cache.enabled", "APPERO_CACHE_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ApperoSyncDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
