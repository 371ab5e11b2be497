// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/partyhub/board-server/internal/game"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	MaxConns int    `mapstructure:"max_conns"`
}

// URL renders the pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?pool_max_conns=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.MaxConns)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GameConfig struct {
	BoardSize              int            `mapstructure:"board_size"`
	MinigameReward         int            `mapstructure:"minigame_reward"`
	MinigamePlayersPerTeam int            `mapstructure:"minigame_players_per_team"`
	BonusDice              map[string]int `mapstructure:"bonus_dice"`
	ContentDir             string         `mapstructure:"content_dir"`
}

// EngineConfig converts the file representation into the engine's config.
// Bonus dice keys are placement ranks; non-numeric keys are ignored.
func (g GameConfig) EngineConfig() game.Config {
	cfg := game.Config{
		BoardSize:              g.BoardSize,
		MinigameReward:         g.MinigameReward,
		MinigamePlayersPerTeam: g.MinigamePlayersPerTeam,
		PlacementBonusDice:     make(map[int]int, len(g.BonusDice)),
	}
	for place, sides := range g.BonusDice {
		if rank, err := strconv.Atoi(place); err == nil {
			cfg.PlacementBonusDice[rank] = sides
		}
	}
	return cfg
}

// Load reads config.yaml from the given directory (or ./config when empty)
// with BOARD_* environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "board")
	v.SetDefault("database.password", "board")
	v.SetDefault("database.name", "board")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.board_size", 73)
	v.SetDefault("game.minigame_reward", 5)
	v.SetDefault("game.minigame_players_per_team", 1)
	v.SetDefault("game.bonus_dice", map[string]int{"1": 6, "2": 4, "3": 2})
	v.SetDefault("game.content_dir", "./content")
}
