package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Location     *time.Location // calendar days (due dates, overdue) are evaluated here

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Address                string
		Host                   string
		DebugHost              string
		ReadTimeout            time.Duration
		WriteTimeout           time.Duration
		ShutdownTimeout        time.Duration
		DisableReqLogs         bool
		SessionCookieName      string
		SessionExpirationDelta time.Duration
		LoginRateLimit         float64 // requests per second, per client
		LoginRateBurst         int
		LoginRateExpiresIn     time.Duration // idle clients are forgotten after this
	}

	DatabaseConfig struct {
		URI            string
		User           string
		Password       string
		Name           string
		ConnectTimeout time.Duration
	}

	RedisConfig struct {
		Addr     string // empty: sessions are tracked in memory
		Password string
		DB       int
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Homework Tracker")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "dev-secret-key-change-in-production")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("timeZone", "UTC")
	v.SetDefault("testMode", false)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.sessionCookieName", "session")
	v.SetDefault("server.sessionExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.loginRateLimit", 1.0)
	v.SetDefault("server.loginRateBurst", 5)
	v.SetDefault("server.loginRateExpiresIn", 3*time.Minute)

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "homeworkdb")
	v.SetDefault("database.connectTimeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	// unprefixed names kept for existing deployments
	for key, name := range map[string]string{
		"secretKey":         "SECRET_KEY",
		"database.uri":      "MONGO_URI",
		"database.user":     "MONGO_USER",
		"database.password": "MONGO_PASS",
		"redis.addr":        "REDIS_ADDR",
	} {
		if _, ok := os.LookupEnv(name); ok {
			_ = v.BindEnv(key, name)
		}
	}

	loc, err := time.LoadLocation(v.GetString("timeZone"))
	if err != nil {
		return nil, errors.Wrap(err, "loading time zone")
	}

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Location:     loc,
		Server: ServerConfig{
			Address:                v.GetString("server.address"),
			Host:                   v.GetString("server.host"),
			DebugHost:              v.GetString("server.debugHost"),
			ReadTimeout:            v.GetDuration("server.readTimeout"),
			WriteTimeout:           v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:         v.GetBool("server.disableReqLogs"),
			SessionCookieName:      v.GetString("server.sessionCookieName"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
			LoginRateLimit:         v.GetFloat64("server.loginRateLimit"),
			LoginRateBurst:         v.GetInt("server.loginRateBurst"),
			LoginRateExpiresIn:     v.GetDuration("server.loginRateExpiresIn"),
		},
		Database: DatabaseConfig{
			URI:            v.GetString("database.uri"),
			User:           v.GetString("database.user"),
			Password:       v.GetString("database.password"),
			Name:           v.GetString("database.name"),
			ConnectTimeout: v.GetDuration("database.connectTimeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}, nil
}

// configDir returns $CONFIG_DIR, or the "config" directory under the working directory.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "config"
	}
	return filepath.Join(wd, "config")
}
