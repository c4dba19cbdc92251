package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/proconnect/prowallet/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction

	// Billing defaults, integer cents
	defaultClickFee            = int64(250)
	defaultLowBalanceThreshold = int64(1000)

	defaultPaymentTimeout = 10 * time.Second
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the wallet service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Shared with the identity provider; access tokens are verified with it
	SecretKey string

	// Environment
	Environment string

	// Payment provider connection
	PaymentBaseURL       string
	PaymentAPIKey        string
	PaymentWebhookSecret string
	PaymentTimeout       time.Duration

	// ClickFee is charged per billable click, cents
	ClickFee int64

	// LowBalanceThreshold marks wallets below it in the summary, cents
	LowBalanceThreshold int64
}

func NewConfig() *Config {
	return &Config{
		LogLevel:            defaultLoggingLevel,
		ListenAddr:          defaultListenAddr,
		Environment:         defaultEnvironment,
		ClickFee:            defaultClickFee,
		LowBalanceThreshold: defaultLowBalanceThreshold,
		PaymentTimeout:      defaultPaymentTimeout,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setCents := func(o *int64) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				*o = n
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
		"PAYMENT_BASE_URL":       setString(&c.PaymentBaseURL),
		"PAYMENT_API_KEY":        setString(&c.PaymentAPIKey),
		"PAYMENT_WEBHOOK_SECRET": setString(&c.PaymentWebhookSecret),
		"CLICK_FEE":              setCents(&c.ClickFee),
		"LOW_BALANCE_THRESHOLD":  setCents(&c.LowBalanceThreshold),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("prowallet", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key for access token verification")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.PaymentBaseURL, "payment-url", "p", c.PaymentBaseURL, "Payment provider base URL")
	fs.StringVar(&c.PaymentAPIKey, "payment-api-key", c.PaymentAPIKey, "Payment provider API key")
	fs.StringVar(&c.PaymentWebhookSecret, "payment-webhook-secret", c.PaymentWebhookSecret, "Payment provider webhook signing secret")
	fs.Int64Var(&c.ClickFee, "click-fee", c.ClickFee, "Fee charged per billable click, cents")
	fs.Int64Var(&c.LowBalanceThreshold, "low-balance", c.LowBalanceThreshold, "Low balance warning threshold, cents")

	return fs.Parse(args)
}
