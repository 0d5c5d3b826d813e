package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "PAYLINK"

	sqliteDb = "sqlite"
	badgerDb = "badger"
	mysqlDb  = "mysql"

	defaultDatadir = "paylink"
)

type Config struct {
	Datadir  string `mapstructure:"DATADIR" envDefault:"paylink" envInfo:"Data directory for paylink state"`
	DbType   string `mapstructure:"DB_TYPE" envDefault:"sqlite" envInfo:"Database backend: sqlite, badger or mysql"`
	MySQLDSN string `mapstructure:"MYSQL_DSN" envDefault:"" envInfo:"MySQL DSN, required with DB_TYPE=mysql (e.g., user:pass@tcp(mysql:3306)/paylink)"`
	GRPCPort uint32 `mapstructure:"GRPC_PORT" envDefault:"7000" envInfo:"gRPC health server port"`
	HTTPPort uint32 `mapstructure:"HTTP_PORT" envDefault:"7001" envInfo:"HTTP server port"`
	LogLevel uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`

	SolanaRPCURL  string `mapstructure:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com" envInfo:"Solana JSON RPC endpoint"`
	SolanaNetwork string `mapstructure:"SOLANA_NETWORK" envDefault:"devnet" envInfo:"Cluster name stored with every payment"`
	Commitment    string `mapstructure:"COMMITMENT" envDefault:"confirmed" envInfo:"Commitment required to confirm a payment, confirmed or finalized"`
	StableMint    string `mapstructure:"STABLE_MINT" envDefault:"4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU" envInfo:"Mint of the stable asset (devnet USDC by default)"`

	DefaultWallet     string `mapstructure:"DEFAULT_WALLET" envDefault:"" envInfo:"Recipient wallet for merchants without one"`
	DefaultFeePercent string `mapstructure:"DEFAULT_FEE_PERCENT" envDefault:"0" envInfo:"Platform fee in percent for merchants without an override"`
	MatchTolerance    string `mapstructure:"MATCH_TOLERANCE" envDefault:"0.00002" envInfo:"Allowed shortfall between received and expected amount"`

	LedgerTimeout uint32 `mapstructure:"LEDGER_TIMEOUT" envDefault:"10" envInfo:"Ledger query timeout in seconds"`
	PendingTTL    uint32 `mapstructure:"PENDING_TTL" envDefault:"3600" envInfo:"Seconds before an unpaid request is evicted, 0 keeps them forever"`
	SweepInterval uint32 `mapstructure:"SWEEP_INTERVAL" envDefault:"60" envInfo:"Seconds between two evictions of expired requests"`
	Timezone      string `mapstructure:"TIMEZONE" envDefault:"UTC" envInfo:"IANA timezone for payment display date and time"`

	NostrRelayURL  string `mapstructure:"NOSTR_RELAY_URL" envDefault:"" envInfo:"Relay for customer notifications, empty disables them"`
	NostrSecretKey string `mapstructure:"NOSTR_SECRET_KEY" envDefault:"" envInfo:"Hex or nsec key signing notifications, random if empty"`

	defaultFeePercent decimal.Decimal
	matchTolerance    decimal.Decimal
	location          *time.Location
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) DefaultFee() decimal.Decimal {
	return c.defaultFeePercent
}

func (c *Config) Tolerance() decimal.Decimal {
	return c.matchTolerance
}

func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) LedgerTimeoutDuration() time.Duration {
	return time.Duration(c.LedgerTimeout) * time.Second
}

func (c *Config) PendingTTLDuration() time.Duration {
	return time.Duration(c.PendingTTL) * time.Second
}

func (c *Config) SweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

func (c *Config) NotificationsEnabled() bool {
	return c.NostrRelayURL != ""
}

// DbConfig is the backend specific argument list of db.ServiceConfig.
func (c *Config) DbConfig() []any {
	switch c.DbType {
	case mysqlDb:
		return []any{c.MySQLDSN}
	case badgerDb:
		return []any{c.Datadir, log.StandardLogger()}
	default:
		return []any{c.Datadir}
	}
}

func (c *Config) initDb() error {
	supportedDbType := map[string]struct{}{
		sqliteDb: {},
		badgerDb: {},
		mysqlDb:  {},
	}

	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	if c.DbType == mysqlDb {
		if c.MySQLDSN == "" {
			return fmt.Errorf("missing mysql dsn")
		}
		return nil
	}

	if c.Datadir == defaultDatadir {
		c.Datadir = appDatadir(defaultDatadir, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.Datadir)
}

func (c *Config) validate() error {
	if c.SolanaRPCURL == "" {
		return fmt.Errorf("missing solana rpc url")
	}

	switch c.Commitment {
	case "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment %q, must be confirmed or finalized", c.Commitment)
	}

	if _, err := solana.PublicKeyFromBase58(c.StableMint); err != nil {
		return fmt.Errorf("invalid stable mint: %w", err)
	}

	if c.DefaultWallet != "" {
		if _, err := solana.PublicKeyFromBase58(c.DefaultWallet); err != nil {
			return fmt.Errorf("invalid default wallet: %w", err)
		}
	}

	fee, err := decimal.NewFromString(c.DefaultFeePercent)
	if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("invalid default fee percent %q, must be within 0 and 100", c.DefaultFeePercent)
	}
	c.defaultFeePercent = fee

	tolerance, err := decimal.NewFromString(c.MatchTolerance)
	if err != nil || tolerance.IsNegative() {
		return fmt.Errorf("invalid match tolerance %q", c.MatchTolerance)
	}
	c.matchTolerance = tolerance

	if c.LedgerTimeout == 0 {
		return fmt.Errorf("ledger timeout must be positive")
	}
	if c.PendingTTL > 0 && c.SweepInterval == 0 {
		return fmt.Errorf("sweep interval must be positive when pending ttl is set")
	}

	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = location

	return nil
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDatadir returns an operating system specific directory to be used for
// storing application data for an application.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "."
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
