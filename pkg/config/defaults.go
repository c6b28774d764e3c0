// Package config provides centralized default values for xolo
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Proxy harness
	ProxyPort         string
	DashboardPort     string
	ServerReadTimeout time.Duration
	ServerIdleTimeout time.Duration

	// Dashboard auth
	DashboardPassword string
	DashboardSecret   string
	DashboardTokenTTL time.Duration

	// Correlation cache capacities
	GamePassProductCacheSize   int
	DeveloperProductCacheSize  int
	UniverseCacheSize          int
	ItemInfoCacheSize          int
	RenderCacheSize            int
	LowestResaleCacheSize      int
	ResellerFeedCacheSize      int
	RenderURLListSize          int

	// Simulated credit and its attributed source
	AddedCredit     int64
	PayoutGroupID   int64
	PayoutGroupName string

	// Remote API client
	RemoteTimeout      time.Duration
	RenderRetryCount   int
	RenderRetryBackoff time.Duration
	BatchChunkSize     int

	// Randomized cosmetic id ranges for injected entries
	VersionIDMin      int64
	VersionIDMax      int64
	AccessoryOrderMin int
	AccessoryOrderMax int
	UserAssetIDMin    int64
	UserAssetIDMax    int64

	// Persistence
	StatePath   string
	AuditDBPath string

	// Logging
	LogDirectory    string
	LogToFile       bool
	LogDefaultLevel string
)

func init() {
	loadEnvFile()

	// Proxy harness
	ProxyPort = getEnvString("XOLO_PROXY_PORT", "8080")
	DashboardPort = getEnvString("XOLO_DASHBOARD_PORT", "8787")
	ServerReadTimeout = getEnvDuration("XOLO_SERVER_READ_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("XOLO_SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Dashboard auth
	DashboardPassword = getEnvString("XOLO_DASHBOARD_PASSWORD", "")
	DashboardSecret = getEnvString("XOLO_DASHBOARD_SECRET", "xolo-dev-secret")
	DashboardTokenTTL = getEnvDuration("XOLO_DASHBOARD_TOKEN_TTL", 12*time.Hour)

	// Correlation cache capacities
	GamePassProductCacheSize = getEnvInt("XOLO_GAMEPASS_PRODUCT_CACHE_SIZE", 100)
	DeveloperProductCacheSize = getEnvInt("XOLO_DEVELOPER_PRODUCT_CACHE_SIZE", 250)
	UniverseCacheSize = getEnvInt("XOLO_UNIVERSE_CACHE_SIZE", 250)
	ItemInfoCacheSize = getEnvInt("XOLO_ITEM_INFO_CACHE_SIZE", 250)
	RenderCacheSize = getEnvInt("XOLO_RENDER_CACHE_SIZE", 250)
	LowestResaleCacheSize = getEnvInt("XOLO_LOWEST_RESALE_CACHE_SIZE", 1000)
	ResellerFeedCacheSize = getEnvInt("XOLO_RESELLER_FEED_CACHE_SIZE", 10000)
	RenderURLListSize = getEnvInt("XOLO_RENDER_URL_LIST_SIZE", 100)

	// Simulated credit and its attributed source
	AddedCredit = getEnvInt64("XOLO_ADDED_CREDIT", 3640478)
	PayoutGroupID = getEnvInt64("XOLO_PAYOUT_GROUP_ID", 14116868)
	PayoutGroupName = getEnvString("XOLO_PAYOUT_GROUP_NAME", "Dust bunnys")

	// Remote API client
	RemoteTimeout = getEnvDuration("XOLO_REMOTE_TIMEOUT", 10*time.Second)
	RenderRetryCount = getEnvInt("XOLO_RENDER_RETRY_COUNT", 30)
	RenderRetryBackoff = getEnvDuration("XOLO_RENDER_RETRY_BACKOFF", time.Second)
	BatchChunkSize = getEnvInt("XOLO_BATCH_CHUNK_SIZE", 100)

	// Randomized cosmetic id ranges for injected entries
	VersionIDMin = getEnvInt64("XOLO_VERSION_ID_MIN", 999999)
	VersionIDMax = getEnvInt64("XOLO_VERSION_ID_MAX", 999999999)
	AccessoryOrderMin = getEnvInt("XOLO_ACCESSORY_ORDER_MIN", 1)
	AccessoryOrderMax = getEnvInt("XOLO_ACCESSORY_ORDER_MAX", 20)
	UserAssetIDMin = getEnvInt64("XOLO_USER_ASSET_ID_MIN", 99999999)
	UserAssetIDMax = getEnvInt64("XOLO_USER_ASSET_ID_MAX", 9999999999)

	// Persistence
	StatePath = getEnvString("XOLO_STATE_PATH", "state.json")
	AuditDBPath = getEnvString("XOLO_AUDIT_DB_PATH", "xolo-audit.db")

	// Logging
	LogDirectory = getEnvString("XOLO_LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("XOLO_LOG_TO_FILE", false)
	LogDefaultLevel = getEnvString("XOLO_LOG_LEVEL", "INFO")
}

// AccessoryAssetTypes lists the asset type ids that carry per-accessory
// ordering metadata in the v2 avatar shape.
var AccessoryAssetTypes = []int{41, 42, 43, 44, 45, 46}
