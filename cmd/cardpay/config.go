package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/service/deviceauth"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultDeviceAuth   = deviceauth.ModeStatic
	defaultStatusPage   = "/approved_transaction_page.html"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the server will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Shared key card readers send with every scan
	// In token mode it is the HMAC key device tokens are signed with
	DeviceKey string

	// How card readers are authenticated: static or token
	DeviceAuth string

	// Kiosk page the create transaction endpoint redirects to
	StatusPage string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		DeviceAuth:  defaultDeviceAuth,
		StatusPage:  defaultStatusPage,
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

	envMap := map[string]func(string){
		"RUN_ADDRESS":  setString(&c.ListenAddr),
		"DATABASE_URI": setString(&c.DatabaseDSN),
		"DEVICE_KEY":   setString(&c.DeviceKey),
		"DEVICE_AUTH":  setString(&c.DeviceAuth),
		"STATUS_PAGE":  setString(&c.StatusPage),
		"LOG_LEVEL":    setString(&c.LogLevel),
		"ENVIRONMENT":  setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("cardpay", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.DeviceKey, "device-key", "k", c.DeviceKey, "Card reader shared key or token signing key")
	fs.StringVarP(&c.DeviceAuth, "device-auth", "m", c.DeviceAuth, "Card reader auth mode (static, token)")
	fs.StringVarP(&c.StatusPage, "status-page", "p", c.StatusPage, "Kiosk status page to redirect to")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database connection string is required")
	case c.DeviceKey == "":
		return errors.New("device key is required")
	case c.DeviceAuth != deviceauth.ModeStatic && c.DeviceAuth != deviceauth.ModeToken:
		return fmt.Errorf("unknown device auth mode %q", c.DeviceAuth)
	default:
		return nil
	}
}
