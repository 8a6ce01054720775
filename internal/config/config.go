package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort  string `json:"http_port"`
	HTTPSPort string `json:"https_port"`
	Domain    string `json:"domain"`
	// HTTPOnly disables TLS; the server then sits behind FrontendURI.
	HTTPOnly    bool   `json:"http_only"`
	FrontendURI string `json:"frontend_uri"`
	// SiteURL is the public base of QR codes and media links.
	SiteURL      string   `json:"site_url"`
	DatabasePath string   `json:"database_path"`
	MediaDir     string   `json:"media_dir"`
	FontDirs     []string `json:"font_dirs"`
	LogLevel     string   `json:"log_level"`

	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"-"`
	VAPIDKeys *VAPIDKeys    `json:"-"`
}

type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

var defaultFontDirs = []string{
	"static/fonts",
	"/usr/share/fonts/truetype",
	"/System/Library/Fonts",
	"C:/Windows/Fonts",
}

// LoadConfigFromJSON loads configuration from config.json file
func LoadConfigFromJSON() (*Config, error) {
	data, err := os.ReadFile(getConfigFilePath())
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config.json: %w", err)
	}
	return &cfg, nil
}

// SaveConfigToJSON saves configuration to config.json file. Secrets are
// kept in the keys directory, never in config.json.
func SaveConfigToJSON(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(getConfigFilePath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config.json: %w", err)
	}
	return nil
}

func getConfigFilePath() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(execDir(), "config.json")
}

// Load reads config.json (if present), fills the gaps from the environment
// and applies the command-line flags.
func Load(httpOnly bool) *Config {
	cfg, err := LoadConfigFromJSON()
	if err == nil {
		log.Info().Str("path", getConfigFilePath()).Msg("custom configuration loaded from config.json")
	} else {
		cfg = &Config{}
	}

	cfg.HTTPPort = orEnv(cfg.HTTPPort, "HTTP_PORT", "8080")
	cfg.HTTPSPort = orEnv(cfg.HTTPSPort, "HTTPS_PORT", "8443")
	cfg.Domain = orEnv(cfg.Domain, "DOMAIN", "localhost")
	cfg.FrontendURI = orEnv(cfg.FrontendURI, "FRONTEND_URI", "")
	cfg.DatabasePath = orEnv(cfg.DatabasePath, "DATABASE_PATH", "weddingcards.db")
	cfg.MediaDir = orEnv(cfg.MediaDir, "MEDIA_DIR", "media")
	cfg.LogLevel = orEnv(cfg.LogLevel, "LOG_LEVEL", "info")
	if dirs := os.Getenv("FONT_DIRS"); dirs != "" {
		cfg.FontDirs = filepath.SplitList(dirs)
	}
	if len(cfg.FontDirs) == 0 {
		cfg.FontDirs = append([]string(nil), defaultFontDirs...)
	}
	if httpOnly {
		cfg.HTTPOnly = true
	}

	cfg.SiteURL = strings.TrimRight(orEnv(cfg.SiteURL, "SITE_URL", defaultSiteURL(cfg)), "/")
	cfg.TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24*7)) * time.Hour

	cfg.JWTSecret = loadOrGenerateJWTSecret()
	cfg.VAPIDKeys = loadVAPIDKeys()
	return cfg
}

func defaultSiteURL(cfg *Config) string {
	if cfg.HTTPOnly {
		if cfg.FrontendURI != "" {
			return cfg.FrontendURI
		}
		return "http://localhost:" + cfg.HTTPPort
	}
	return "https://" + cfg.Domain
}

func orEnv(current, key, defaultValue string) string {
	if current != "" {
		return current
	}
	return getEnv(key, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func generateRandomSecret() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}

func loadOrGenerateJWTSecret() string {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return secret
	}

	keysDir := getKeysDirectory()
	secretFile := filepath.Join(keysDir, "jwt-secret.key")
	if secretData, err := os.ReadFile(secretFile); err == nil {
		if secret := strings.TrimSpace(string(secretData)); secret != "" {
			return secret
		}
	}

	secret := generateRandomSecret()
	if err := os.MkdirAll(keysDir, 0700); err == nil {
		if err := os.WriteFile(secretFile, []byte(secret), 0600); err != nil {
			log.Warn().Err(err).Msg("failed to save JWT secret, it will change on restart unless JWT_SECRET is set")
		}
	}
	return secret
}

func loadVAPIDKeys() *VAPIDKeys {
	subject := getEnv("VAPID_SUBJECT", "mailto:admin@weddingcards.app")
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	privateKey := os.Getenv("VAPID_PRIVATE_KEY")
	if publicKey != "" && privateKey != "" {
		return &VAPIDKeys{PublicKey: publicKey, PrivateKey: privateKey, Subject: subject}
	}

	keysDir := getKeysDirectory()
	publicKeyFile := filepath.Join(keysDir, "vapid-public.key")
	privateKeyFile := filepath.Join(keysDir, "vapid-private.key")

	publicKeyData, pubErr := os.ReadFile(publicKeyFile)
	privateKeyData, privErr := os.ReadFile(privateKeyFile)
	if pubErr == nil && privErr == nil {
		privateKey = strings.TrimSpace(string(privateKeyData))
		// webpush expects the raw 32 byte scalar
		if decoded, err := base64.RawURLEncoding.DecodeString(privateKey); err == nil && len(decoded) == 32 {
			return &VAPIDKeys{
				PublicKey:  strings.TrimSpace(string(publicKeyData)),
				PrivateKey: privateKey,
				Subject:    subject,
			}
		}
		log.Warn().Str("path", privateKeyFile).Msg("VAPID private key has an unexpected format, regenerating")
	}

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		panic("failed to generate VAPID keys: " + err.Error())
	}
	if err := saveVAPIDKeys(keysDir, publicKey, privateKey); err != nil {
		log.Warn().Err(err).Msg("failed to save VAPID keys, they will change on restart unless set via environment")
	}
	return &VAPIDKeys{PublicKey: publicKey, PrivateKey: privateKey, Subject: subject}
}

func saveVAPIDKeys(keysDir, publicKey, privateKey string) error {
	if err := os.MkdirAll(keysDir, 0700); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(keysDir, "vapid-public.key"), []byte(publicKey), 0600); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(keysDir, "vapid-private.key"), []byte(privateKey), 0600); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	log.Info().Str("dir", keysDir).Msg("VAPID keys saved")
	return nil
}

func getKeysDirectory() string {
	if dir := os.Getenv("KEYS_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(execDir(), "keys")
}

// GetCertsDirectory is where autocert caches certificates.
func GetCertsDirectory() string {
	return filepath.Join(execDir(), "certs")
}

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}
