// Package config loads the service configuration.
//
// Values are merged from several sources, later ones winning:
// defaults, a JSON file (CONFIG env or -c flag), environment variables
// (a .env file in the working directory is loaded first) and command line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/thoas/go-funk"
)

// Config holds every setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" json:"grpc_address" validate:"omitempty,hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DatabaseDriver      string        `env:"DATABASE_DRIVER" json:"database_driver" validate:"oneof=pgx postgres"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	RedisAddr           string        `env:"REDIS_ADDRESS" json:"redis_address" validate:"omitempty,hostname_port"`
	RedisTTL            time.Duration `env:"REDIS_TTL" json:"-"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	ConfigFile          string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	GRPCAddr:            "",
	LogLevel:            "info",
	DBFileName:          "",
	DatabaseDSN:         "",
	DatabaseDriver:      "pgx",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/usrsvc/migrations",
	RedisAddr:           "",
	RedisTTL:            5 * time.Minute,
	TrustedSubnet:       "",
}

var allowedLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing makes New ignore the command line. Tests use it
// because the test binary has its own flags.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration from all sources and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var fromFlags Config
	if !options.disableFlagsParsing {
		if err := parseFlags(&fromFlags, os.Args[1:]); err != nil {
			return nil, err
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}

	configFile := fromEnv.ConfigFile
	if fromFlags.ConfigFile != "" {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		fromJSON, err := readJSONFile(configFile)
		if err != nil {
			return nil, err
		}
		merge(values, fromJSON)
	}

	merge(values, &fromEnv)
	merge(values, &fromFlags)
	values.ConfigFile = configFile

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func parseFlags(values *Config, args []string) error {
	flags := flag.NewFlagSet("usrsvc", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run the HTTP server")
	flags.StringVar(&values.GRPCAddr, "g", "", "address and port to run the gRPC server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.DBFileName, "f", "", "JSON file name with the users database")
	flags.StringVar(&values.DatabaseDSN, "d", "", "a string with the database connection details")
	flags.StringVar(&values.RedisAddr, "r", "", "address of the Redis cache")
	flags.StringVar(&values.TrustedSubnet, "t", "", "CIDR of the subnet allowed to read internal stats")
	flags.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")

	return flags.Parse(args)
}

func readJSONFile(fileName string) (*Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	result := &Config{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}

	return result, nil
}

func merge(dst, src *Config) {
	if src.RunAddr != "" {
		dst.RunAddr = src.RunAddr
	}

	if src.GRPCAddr != "" {
		dst.GRPCAddr = src.GRPCAddr
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.DBFileName != "" {
		dst.DBFileName = src.DBFileName
	}

	if src.DatabaseDSN != "" {
		dst.DatabaseDSN = src.DatabaseDSN
	}

	if src.DatabaseDriver != "" {
		dst.DatabaseDriver = src.DatabaseDriver
	}

	if src.DBConnectionTimeout != 0 {
		dst.DBConnectionTimeout = src.DBConnectionTimeout
	}

	if src.MigrationsDir != "" {
		dst.MigrationsDir = src.MigrationsDir
	}

	if src.RedisAddr != "" {
		dst.RedisAddr = src.RedisAddr
	}

	if src.RedisTTL != 0 {
		dst.RedisTTL = src.RedisTTL
	}

	if src.TrustedSubnet != "" {
		dst.TrustedSubnet = src.TrustedSubnet
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	return funk.ContainsString(allowedLogLevels, fieldLevel.Field().String())
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}
