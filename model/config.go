package model

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	LLM struct {
		CredentialPath string        `yaml:"credential_path"`
		Temperature    float64       `yaml:"temperature"`
		MaxAttempts    int           `yaml:"max_attempts"`
		MaxToolRounds  int           `yaml:"max_tool_rounds"`
		MaxRetries     int           `yaml:"max_retries"`
		Timeout        time.Duration `yaml:"timeout"`
		Stream         bool          `yaml:"stream"`
	} `yaml:"llm"`
	Server struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		Authentication struct {
			Enable bool   `yaml:"enable"`
			Secret string `yaml:"secret"`
		} `yaml:"authentication"`
	} `yaml:"server"`
	Game struct {
		AgentCount            int                    `yaml:"agent_count"`
		Count                 int                    `yaml:"count"`
		MaxDay                int                    `yaml:"max_day"`
		MaxContinueErrorRatio float64                `yaml:"max_continue_error_ratio"`
		Roles                 map[int]map[string]int `yaml:"roles"`
		Talk                  TalkConfig             `yaml:"talk"`
		Whisper               TalkConfig             `yaml:"whisper"`
		Vote                  struct {
			MaxCount      int  `yaml:"max_count"`
			AllowSelfVote bool `yaml:"allow_self_vote"`
		} `yaml:"vote"`
		Attack struct {
			MaxCount      int  `yaml:"max_count"`
			AllowNoTarget bool `yaml:"allow_no_target"`
		} `yaml:"attack"`
		Guard struct {
			ForbidConsecutive bool `yaml:"forbid_consecutive"`
		} `yaml:"guard"`
		Witch struct {
			OneActionPerNight bool `yaml:"one_action_per_night"`
		} `yaml:"witch"`
		LastWords struct {
			Enable bool `yaml:"enable"`
		} `yaml:"last_words"`
	} `yaml:"game"`
	Profile             ProfileConfig             `yaml:"profile"`
	Narrator            NarratorConfig            `yaml:"narrator"`
	JSONLogger          LoggerConfig              `yaml:"json_logger"`
	GameLogger          LoggerConfig              `yaml:"game_logger"`
	RealtimeBroadcaster RealtimeBroadcasterConfig `yaml:"realtime_broadcaster"`
	Store               struct {
		Enable bool   `yaml:"enable"`
		Path   string `yaml:"path"`
	} `yaml:"store"`
}

type TalkConfig struct {
	MaxCount struct {
		PerAgent int `yaml:"per_agent"`
		PerDay   int `yaml:"per_day"`
	} `yaml:"max_count"`
	MaxLength struct {
		PerTalk int `yaml:"per_talk"`
	} `yaml:"max_length"`
	MaxSkip int `yaml:"max_skip"`
}

type ProfileConfig struct {
	Dynamic  bool      `yaml:"dynamic"`
	Prompt   string    `yaml:"prompt"`
	Attempts int       `yaml:"attempts"`
	Personas []Profile `yaml:"personas"`
}

type NarratorConfig struct {
	Enable bool `yaml:"enable"`
	Color  bool `yaml:"color"`
	Flavor bool `yaml:"flavor"`
}

type LoggerConfig struct {
	Enable    bool   `yaml:"enable"`
	OutputDir string `yaml:"output_dir"`
	Filename  string `yaml:"filename"`
}

type RealtimeBroadcasterConfig struct {
	Enable    bool   `yaml:"enable"`
	OutputDir string `yaml:"output_dir"`
	Filename  string `yaml:"filename"`
}

func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("設定ファイルの読み込みに失敗しました", "error", err)
		return nil, err
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Error("設定ファイルのパースに失敗しました", "error", err)
		return nil, err
	}
	config.LLM.CredentialPath = ExpandHome(config.LLM.CredentialPath)
	return &config, nil
}

func DefaultConfig() Config {
	var config Config
	config.Log.Level = "info"
	config.Log.Format = "text"
	config.LLM.CredentialPath = ExpandHome("~/.apikey")
	config.LLM.Temperature = 0.7
	config.LLM.MaxAttempts = 3
	config.LLM.MaxToolRounds = 4
	config.LLM.MaxRetries = 2
	config.LLM.Timeout = 2 * time.Minute
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 8080
	config.Game.AgentCount = 7
	config.Game.Count = 1
	config.Game.MaxDay = 10
	config.Game.MaxContinueErrorRatio = 0.5
	config.Game.Talk.MaxCount.PerAgent = 3
	config.Game.Talk.MaxCount.PerDay = 3
	config.Game.Talk.MaxLength.PerTalk = -1
	config.Game.Talk.MaxSkip = 1
	config.Game.Whisper.MaxCount.PerAgent = 2
	config.Game.Whisper.MaxCount.PerDay = 2
	config.Game.Whisper.MaxLength.PerTalk = -1
	config.Game.Whisper.MaxSkip = 1
	config.Game.Vote.MaxCount = 2
	config.Game.Attack.MaxCount = 3
	config.Game.Guard.ForbidConsecutive = true
	config.Game.Witch.OneActionPerNight = true
	config.Game.LastWords.Enable = true
	config.Profile.Attempts = 3
	config.Narrator.Enable = true
	config.Narrator.Color = true
	config.JSONLogger.OutputDir = "./log/json"
	config.GameLogger.OutputDir = "./log/game"
	config.RealtimeBroadcaster.OutputDir = "./log/realtime"
	config.Store.Path = "./data/turandot.db"
	return config
}

func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
