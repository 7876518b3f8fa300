// Package config loads settings from a YAML file, STUDYNOTES_ environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/conorfennell/studynotes/internal/domain"
)

const envPrefix = "STUDYNOTES_"

type Config struct {
	Addr        string   `koanf:"addr" validate:"required"`
	DB          string   `koanf:"db" validate:"required"`
	NotesDir    string   `koanf:"notes_dir"`
	ReposDir    string   `koanf:"repos_dir" validate:"required"`
	Timezone    string   `koanf:"timezone" validate:"required,timezone"`
	Sources     []string `koanf:"sources" validate:"dive,required"`
	SyncOnStart bool     `koanf:"sync_on_start"`
	SyncOnly    bool     `koanf:"sync_only"`

	Log       LogConfig       `koanf:"log"`
	Timer     TimerConfig     `koanf:"timer"`
	Review    ReviewConfig    `koanf:"review"`
	Stats     StatsConfig     `koanf:"stats"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Documents DocumentsConfig `koanf:"documents"`

	// Notes is the note catalog. It can only be set from the config file.
	Notes []domain.NoteSection `koanf:"notes" validate:"dive"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type TimerConfig struct {
	Study                  time.Duration `koanf:"study" validate:"min=1s"`
	ShortBreak             time.Duration `koanf:"short_break" validate:"min=1s"`
	LongBreak              time.Duration `koanf:"long_break" validate:"min=1s"`
	SessionsUntilLongBreak int           `koanf:"sessions_until_long_break" validate:"min=1"`
	AutoStart              bool          `koanf:"auto_start"`
}

type ReviewConfig struct {
	InitialEase        float64 `koanf:"initial_ease" validate:"gtefield=MinEase"`
	MinEase            float64 `koanf:"min_ease" validate:"gt=0"`
	EaseBonus          float64 `koanf:"ease_bonus" validate:"gte=0"`
	EasePenalty        float64 `koanf:"ease_penalty" validate:"gte=0"`
	SecondIntervalDays int     `koanf:"second_interval_days" validate:"min=1"`
}

type StatsConfig struct {
	// DwellThreshold is how long a note must stay open to count as a study session.
	DwellThreshold time.Duration `koanf:"dwell_threshold" validate:"min=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type DocumentsConfig struct {
	// AllowedHosts are the hosts remote documents may be fetched from. Empty disables remote documents.
	AllowedHosts []string `koanf:"allowed_hosts"`
}

type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// Location returns the time zone used for calendar-day calculations.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timezone %s", c.Timezone)
	}
	return loc, nil
}

// Flags returns the command-line flags. Their defaults are the defaults of every key.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("studynotes", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("db", "studynotes.db", "path to the SQLite database file")
	fs.String("notes-dir", "notes", "directory holding note documents")
	fs.String("repos-dir", "repos", "directory git sources are cloned into")
	fs.String("timezone", "UTC", "IANA time zone used to decide calendar days")
	fs.StringSlice("sources", nil, "card sources: local directories or git URLs")
	fs.Bool("sync-on-start", false, "sync card sources when the server starts")
	fs.Bool("sync-only", false, "sync card sources, print a report and exit")

	fs.String("log.level", "info", "log level: debug, info, warn or error")
	fs.String("log.format", "text", "log format: text or json")

	fs.Duration("timer.study", 25*time.Minute, "length of a study interval")
	fs.Duration("timer.short-break", 5*time.Minute, "length of a short break")
	fs.Duration("timer.long-break", 15*time.Minute, "length of a long break")
	fs.Int("timer.sessions-until-long-break", 4, "study intervals between long breaks")
	fs.Bool("timer.auto-start", true, "start the next interval automatically")

	fs.Float64("review.initial-ease", 2.5, "ease factor of a new card")
	fs.Float64("review.min-ease", 1.3, "lowest ease factor a card can reach")
	fs.Float64("review.ease-bonus", 0.1, "ease added by a correct review")
	fs.Float64("review.ease-penalty", 0.2, "ease removed by an incorrect review")
	fs.Int("review.second-interval-days", 6, "days until the review after a second correct answer")

	fs.Duration("stats.dwell-threshold", 30*time.Second, "time a note must be open to count as studied")

	fs.StringSlice("cors.allowed-origins", []string{"*"}, "origins allowed to call the API")
	fs.Float64("rate-limit.rps", 20, "requests per second allowed per client, 0 disables limiting")
	fs.Int("rate-limit.burst", 40, "request burst allowed per client")
	fs.StringSlice("documents.allowed-hosts", nil, "hosts remote documents may be fetched from")
	return fs
}

// Load parses args and merges every configuration source.
func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "failed to parse flags")
	}

	k := koanf.New(".")
	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	// Flags override the other sources only when set; otherwise their defaults fill the gaps.
	// --timer.short-break becomes timer.short_break.
	flagKey := func(f *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := domain.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// envKey maps STUDYNOTES_TIMER__SHORT_BREAK to timer.short_break.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}
