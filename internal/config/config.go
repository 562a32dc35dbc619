package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Shop             ShopConfig              `env:",prefix=SHOP_"`
	Payment          PaymentConfig           `env:",prefix=PAYMENT_"`
	LinkCheck        LinkCheckConfig         `env:",prefix=LINKCHECK_"`
	Reports          ReportsConfig           `env:",prefix=REPORTS_"`
}

// Validate проверяет то, что envconfig проверить не может
func (c Config) Validate() error {
	if c.Payment.FeePercent < 0 {
		return fmt.Errorf("PAYMENT_FEE_PERCENT must not be negative, got %v", c.Payment.FeePercent)
	}
	if c.Telegram.AdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID must be set")
	}
	if c.Payment.CardNumber == "" && len(c.Payment.Wallets()) == 0 {
		return fmt.Errorf("no payment method configured: set PAYMENT_CARD_NUMBER or PAYMENT_CRYPTO_WALLETS")
	}
	return nil
}

type TelegramConfig struct {
	BotToken    string  `env:"BOT_TOKEN,required"`
	AdminIDs    []int64 `env:"ADMIN_IDS"`
	AdminChatID int64   `env:"ADMIN_CHAT_ID,required"`
}

// IsAdmin проверяет, входит ли пользователь в список администраторов
func (c TelegramConfig) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}

type ShopConfig struct {
	FeedbackURL string `env:"FEEDBACK_URL"`
	ContactURL  string `env:"CONTACT_URL"`
}

type PaymentConfig struct {
	FeePercent    float64  `env:"FEE_PERCENT,default=10"`
	CardNumber    string   `env:"CARD_NUMBER"`
	CryptoWallets []string `env:"CRYPTO_WALLETS"`
}

// Wallet - криптокошелёк для приёма оплаты
type Wallet struct {
	Name    string
	Address string
}

// Wallets разбирает PAYMENT_CRYPTO_WALLETS вида "USDT-TRC20:addr,BTC:addr".
// Записи без двоеточия пропускаются.
func (c PaymentConfig) Wallets() []Wallet {
	wallets := make([]Wallet, 0, len(c.CryptoWallets))
	for _, raw := range c.CryptoWallets {
		name, address, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok || name == "" || address == "" {
			continue
		}
		wallets = append(wallets, Wallet{
			Name:    strings.TrimSpace(name),
			Address: strings.TrimSpace(address),
		})
	}
	return wallets
}

type LinkCheckConfig struct {
	Enabled bool          `env:"ENABLED,default=true"`
	Timeout time.Duration `env:"TIMEOUT,default=5s"`
}

type ReportsConfig struct {
	DailyCron string `env:"DAILY_CRON,default=0 9 * * *"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/cnorder.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=1"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=1"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
