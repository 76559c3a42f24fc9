package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/log"
)

type Config struct {
	Port    string
	Debug   bool
	Storage string

	JWTSecret string

	DB DBConfig

	// Component addresses fixed at deployment. The marketplace address is
	// also the custody account that holds escrowed assets and collects fees.
	CreditTokenAddress   string
	AssetContractAddress string
	MarketAddress        string

	// Initial credit token admin. Applied only when the token state does
	// not exist yet; afterwards setAdmin / the transferadmin CLI own it.
	CreditAdminAddress string

	// Fee withheld at settlement, in basis points. Default 0.
	MarketFeeBps int64
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

func Init() {
	if err := godotenv.Load(".env"); err != nil {
		// .env is optional outside local dev
		zap.L().Debug("no .env file loaded")
	}

	log.NewLogger(Get().Debug)
}

func Get() *Config {
	return &Config{
		Port:                 getString("PORT", "8080"),
		Debug:                getBool("DEBUG", false),
		Storage:              getString("STORAGE", "postgres"),
		JWTSecret:            getString("JWT_SECRET", "supersecret"),
		CreditTokenAddress:   getString("CREDIT_TOKEN_ADDRESS", "0x0000000000000000000000000000000000001001"),
		AssetContractAddress: getString("ASSET_CONTRACT_ADDRESS", "0x0000000000000000000000000000000000001002"),
		MarketAddress:        getString("MARKET_ADDRESS", "0x0000000000000000000000000000000000001003"),
		CreditAdminAddress:   getString("CREDIT_ADMIN_ADDRESS", "0x0000000000000000000000000000000000000001"),
		MarketFeeBps:         getInt64("MARKET_FEE_BPS", 0),
		DB: DBConfig{
			User:     getString("DB_USER", "postgres"),
			Password: getString("DB_PASSWORD", "postgres"),
			Host:     getString("DB_HOST", "localhost"),
			Port:     getString("DB_PORT", "5432"),
			Name:     getString("DB_NAME", "decentroz"),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	valStr := getString(key, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}
