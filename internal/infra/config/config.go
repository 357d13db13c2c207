// Пакет config отвечает за сбор и предоставление конфигурации приложения
// tg-stats (клиент статистики каналов на MTProto). Он:
//  1. читает переменные окружения из .env (через godotenv),
//  2. нормализует и валидирует входные значения,
//  3. разбирает список «особых дней недели» для отчёта,
//  4. предоставляет результат через singleton и проекцию Settings для ядра.
//
// Обязательные параметры (API_ID, API_HASH) фатальны при отсутствии. Остальные
// подменяются значениями по умолчанию с накоплением предупреждений.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tg-stats/internal/infra/timeutil"

	"github.com/joho/godotenv"
)

// EnvConfig описывает параметры, приходящие из окружения (.env): учётные данные
// приложения Telegram, файлы сессии и кэша пиров, логирование, лимиты запросов,
// паспорт устройства и настройки отчёта.
type EnvConfig struct {
	APIID           int
	APIHash         string
	PhoneNumber     string
	Password        string
	SessionFile     string
	PeersCacheFile  string
	LogLevel        string
	ThrottleRPS     int
	TestDC          bool
	AppVersion      string
	DeviceModel     string
	LanguageCode    string
	DisplayTimezone string
	LogoutOnExit    bool
	SpecialDays     []SpecialDay
	// Файловое логирование
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
}

// SpecialDay: день недели, по которому в отчёте выводится отдельный счётчик постов.
type SpecialDay struct {
	Label   string
	Weekday time.Weekday
}

// Settings: провалидированная проекция конфигурации, которую потребляет ядро
// (аутентификация и статистика). Не содержит инфраструктурных настроек.
type Settings struct {
	AppID        int
	AppHash      string
	AppVersion   string
	DeviceModel  string
	LanguageCode string
	PhoneNumber  string
	Password     string
	SpecialDays  []SpecialDay
}

// Config хранит конфигурацию среды и предупреждения, накопленные при загрузке.
type Config struct {
	Env      EnvConfig
	warnings []string
	mu       sync.RWMutex
}

// Значения по умолчанию для параметров окружения.
const (
	defaultThrottleRPS     = 3
	defaultLogLevel        = "info"
	defaultSessionFile     = "data/session.json"
	defaultPeersCacheFile  = "data/peers_cache.bbolt"
	defaultAppVersion      = "1.0.0"
	defaultDeviceModel     = "PC"
	defaultLanguageCode    = "en"
	defaultDisplayTimezone = "UTC"
	defaultLogoutOnExit    = true
	defaultSpecialDays     = "Wednesday posts:Wednesday,Thursday posts:Thursday"
	// Файловое логирование (LOG_FILE не имеет дефолта - должен быть явно указан для активации)
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

var (
	cfgInstance *Config
	cfgDone     bool
)

// Load: точка входа для инициализации глобальной конфигурации. Повторный вызов
// запрещён (возвращается ошибка).
func Load(envPath string) error {
	if cfgDone {
		return errors.New("config already loaded")
	}
	newCfg, err := loadConfig(envPath)
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	cfgDone = true
	return nil
}

// loadConfig выполняет фактическую загрузку/валидацию без установки глобального
// состояния. Отсутствующий .env не фатален: переменные могут прийти из окружения процесса.
func loadConfig(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return fromEnviron()
}

// fromEnviron собирает EnvConfig из текущего окружения процесса.
func fromEnviron() (*Config, error) {
	apiID, err := parseRequiredInt("API_ID")
	if err != nil {
		return nil, err
	}
	if apiID <= 0 {
		return nil, errors.New("env API_ID must be a positive integer")
	}

	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if apiHash == "" {
		return nil, errors.New("env API_HASH must be set")
	}

	var warnings []string

	env := EnvConfig{
		APIID:           apiID,
		APIHash:         apiHash,
		PhoneNumber:     strings.TrimSpace(os.Getenv("PHONE_NUMBER")),
		Password:        strings.TrimSpace(os.Getenv("TG_PASSWORD")),
		SessionFile:     sanitizeFile("SESSION_FILE", os.Getenv("SESSION_FILE"), defaultSessionFile, &warnings),
		PeersCacheFile:  sanitizeFile("PEERS_CACHE_FILE", os.Getenv("PEERS_CACHE_FILE"), defaultPeersCacheFile, &warnings),
		LogLevel:        sanitizeLogLevel(os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings),
		ThrottleRPS:     parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, &warnings),
		TestDC:          strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DC")), "true"),
		AppVersion:      stringDefault("APP_VERSION", defaultAppVersion),
		DeviceModel:     stringDefault("DEVICE_MODEL", defaultDeviceModel),
		LanguageCode:    stringDefault("LANGUAGE_CODE", defaultLanguageCode),
		DisplayTimezone: sanitizeTimezone(os.Getenv("DISPLAY_TIMEZONE"), defaultDisplayTimezone, &warnings),
		LogoutOnExit:    parseBoolDefault("LOGOUT_ON_EXIT", defaultLogoutOnExit, &warnings),
		SpecialDays:     parseSpecialDays(os.Getenv("SPECIAL_DAYS"), &warnings),
		// Файловое логирование
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
		LogFileLevel:      sanitizeLogLevel(os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings),
		LogFileMaxSize:    parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings),
		LogFileMaxBackups: parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings),
		LogFileMaxAge:     parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings),
		LogFileCompress:   parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings),
	}

	return &Config{Env: env, warnings: warnings}, nil
}

// Warnings возвращает копию предупреждений, накопленных при загрузке .env.
func Warnings() []string {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	result := make([]string, len(cfgInstance.warnings))
	copy(result, cfgInstance.warnings)
	return result
}

// Env возвращает EnvConfig из глобального singleton.
func Env() EnvConfig {
	return cfgInstance.Env
}

// Settings возвращает проекцию конфигурации для ядра приложения.
func (c *Config) Settings() Settings {
	days := make([]SpecialDay, len(c.Env.SpecialDays))
	copy(days, c.Env.SpecialDays)
	return Settings{
		AppID:        c.Env.APIID,
		AppHash:      c.Env.APIHash,
		AppVersion:   c.Env.AppVersion,
		DeviceModel:  c.Env.DeviceModel,
		LanguageCode: c.Env.LanguageCode,
		PhoneNumber:  c.Env.PhoneNumber,
		Password:     c.Env.Password,
		SpecialDays:  days,
	}
}

// Current возвращает глобальный Config. До Load возвращает nil.
func Current() *Config {
	return cfgInstance
}

// parseRequiredInt читает обязательную целочисленную переменную окружения name.
func parseRequiredInt(name string) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, fmt.Errorf("env %s must be set", name)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("env %s must be a valid integer: %w", name, err)
	}
	return v, nil
}

// parseIntDefault читает name как int. Если пусто/некорректно/не проходит
// validator: возвращает defaultVal и пишет предупреждение.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }

// parseBoolDefault читает name как bool. Если пусто/некорректно: возвращает defaultVal.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// stringDefault возвращает значение переменной name без пробелов по краям либо fallback.
func stringDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// sanitizeLogLevel ограничивает уровень набором {debug, info, warn, error}.
func sanitizeLogLevel(level string, defaultVal string, warnings *[]string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		return defaultVal
	}
	switch lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "log level %q is invalid; using default %q", level, defaultVal)
		return defaultVal
	}
}

// sanitizeFile возвращает путь из окружения либо fallback с предупреждением.
func sanitizeFile(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}

// sanitizeTimezone проверяет, что значение: IANA‑зона или UTC‑смещение.
func sanitizeTimezone(value string, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	if _, err := timeutil.ParseLocation(v); err != nil {
		appendWarningf(warnings, "timezone %q is invalid; using default %q", v, fallback)
		return fallback
	}
	return v
}

// parseSpecialDays разбирает CSV вида "Метка:Weekday,Метка:Weekday". Записи с
// нераспознанным днём недели отбрасываются с предупреждением; порядок сохраняется.
// Пустое значение означает набор по умолчанию (среда и четверг).
func parseSpecialDays(value string, warnings *[]string) []SpecialDay {
	raw := strings.TrimSpace(value)
	if raw == "" {
		raw = defaultSpecialDays
	}

	result := make([]SpecialDay, 0)
	for _, part := range strings.Split(raw, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		idx := strings.LastIndex(token, ":")
		if idx <= 0 || idx == len(token)-1 {
			appendWarningf(warnings, "env SPECIAL_DAYS entry %q is invalid; expected Label:Weekday", token)
			continue
		}
		label := strings.TrimSpace(token[:idx])
		day, ok := timeutil.ParseWeekday(token[idx+1:])
		if !ok || label == "" {
			appendWarningf(warnings, "env SPECIAL_DAYS entry %q has unknown weekday; skipped", token)
			continue
		}
		result = append(result, SpecialDay{Label: label, Weekday: day})
	}
	return result
}
