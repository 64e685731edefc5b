package config

import "github.com/spf13/viper"

type Config struct {
	Port        string `mapstructure:"PORT"`
	NatsURL     string `mapstructure:"NATS_URL"`
	DataDir     string `mapstructure:"DATA_DIR"`
	CacheDir    string `mapstructure:"CACHE_DIR"`
	MarketOpen  string `mapstructure:"MARKET_OPEN"`  // session open, "HH:MM:SS"
	MarketClose string `mapstructure:"MARKET_CLOSE"` // session close, "HH:MM:SS"
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"` // "json" or "console"
	LogFile     string `mapstructure:"LOG_FILE"`   // optional rotating file output
}

func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("CACHE_DIR", "./cache")
	viper.SetDefault("MARKET_OPEN", "09:00:00")
	viper.SetDefault("MARKET_CLOSE", "10:00:00")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	err = viper.ReadInConfig()
	// If config file not found, we can still use env vars
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	}

	if err != nil {
		return Config{}, err
	}
	err = viper.Unmarshal(&config)
	return
}
