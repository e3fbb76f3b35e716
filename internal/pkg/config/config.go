package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"fleetbook/internal/domain/pricing"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, policies, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	Booking BookingConfig
	Events  EventsConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,X-Requester-ID,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// BookingConfig carries the operational policies of the reservation core.
// Pricing-relevant pieces are converted into an immutable pricing snapshot
// at catalog build time, never read ambiently.
type BookingConfig struct {
	Currency string `envconfig:"BOOKING_CURRENCY" default:"USD"`

	// Windows starting earlier than now minus PastGrace are rejected.
	PastGrace time.Duration `envconfig:"BOOKING_PAST_GRACE" default:"5m"`

	// Lifetime of a provisional hold placed while payment authorization runs.
	HoldTTL time.Duration `envconfig:"BOOKING_HOLD_TTL" default:"2m"`

	// A confirmed booking not picked up within NoShowGrace after window start
	// is swept into no-show.
	NoShowGrace   time.Duration `envconfig:"BOOKING_NO_SHOW_GRACE" default:"1h"`
	SweepInterval time.Duration `envconfig:"BOOKING_SWEEP_INTERVAL" default:"5m"`

	IncludedMilesPerDay    int64         `envconfig:"BOOKING_INCLUDED_MILES_PER_DAY" default:"100"`
	MileageOverageCents    int64         `envconfig:"BOOKING_MILEAGE_OVERAGE_CENTS" default:"20"`
	LateReturnFeeCentsHour int64         `envconfig:"BOOKING_LATE_FEE_CENTS_PER_HOUR" default:"1500"`
	LateReturnGrace        time.Duration `envconfig:"BOOKING_LATE_RETURN_GRACE" default:"30m"`

	// Cancellation tiers, "leadTime=penaltyPercent" pairs. The tier with the
	// largest lead time not exceeded by the actual lead applies; cancelling
	// inside the smallest lead pays the highest percent.
	CancellationTiers string `envconfig:"BOOKING_CANCELLATION_TIERS" default:"24h=100,72h=50,168h=25"`

	// Whether multiple eligible promotions may stack on one quote.
	PromotionStacking bool `envconfig:"BOOKING_PROMOTION_STACKING" default:"false"`
}

type EventsConfig struct {
	Brokers []string `envconfig:"EVENTS_KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"EVENTS_KAFKA_TOPIC" default:"fleetbook.bookings"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

// CancellationPolicy parses the tier string into the pricing policy.
func (c *BookingConfig) CancellationPolicy() (pricing.CancellationPolicy, error) {
	pairs := strings.Split(c.CancellationTiers, ",")
	tiers := make([]pricing.CancellationTier, 0, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return pricing.CancellationPolicy{}, fmt.Errorf("malformed cancellation tier %q", pair)
		}
		lead, err := time.ParseDuration(strings.TrimSpace(kv[0]))
		if err != nil {
			return pricing.CancellationPolicy{}, fmt.Errorf("malformed cancellation tier lead %q: %w", kv[0], err)
		}
		percent, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || percent < 0 || percent > 100 {
			return pricing.CancellationPolicy{}, fmt.Errorf("malformed cancellation tier percent %q", kv[1])
		}
		tiers = append(tiers, pricing.CancellationTier{Within: lead, Percent: percent})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Within < tiers[j].Within })
	return pricing.CancellationPolicy{Tiers: tiers}, nil
}

func (c *BookingConfig) MileagePolicy() pricing.MileagePolicy {
	return pricing.MileagePolicy{
		IncludedMilesPerDay: c.IncludedMilesPerDay,
		OverageCentsPerMile: c.MileageOverageCents,
	}
}

func (c *BookingConfig) LateReturnPolicy() pricing.LateReturnPolicy {
	return pricing.LateReturnPolicy{
		Grace:           c.LateReturnGrace,
		FeeCentsPerHour: c.LateReturnFeeCentsHour,
	}
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Booking: BookingConfig{
			Currency:               "USD",
			PastGrace:              5 * time.Minute,
			HoldTTL:                2 * time.Minute,
			NoShowGrace:            time.Hour,
			SweepInterval:          5 * time.Minute,
			IncludedMilesPerDay:    100,
			MileageOverageCents:    20,
			LateReturnFeeCentsHour: 1500,
			LateReturnGrace:        30 * time.Minute,
			CancellationTiers:      "24h=100,72h=50,168h=25",
		},
		Events: EventsConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "fleetbook.bookings.test",
		},
	}
}
