package util

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aiwolfdial/turandot/llm"
	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
)

type ProfileDecider interface {
	Decide(ctx context.Context, messages []model.Message, tool llm.ToolSpec, temperature float64) (map[string]any, error)
}

func profileTool() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "create_profile",
		Description: "Create one character for the game.",
		Parameters: []llm.ParameterSpec{
			{Name: "name", Description: "A short first name.", Type: llm.TypeString, Required: true},
			{Name: "personality", Description: "One sentence describing how the character talks and behaves.", Type: llm.TypeString, Required: true},
		},
	}
}

func generateProfile(ctx context.Context, decider ProfileDecider, config model.ProfileConfig, ignoreNames []string, temperature float64) (*model.Profile, error) {
	slog.Info("ダイナミックプロフィールの生成をリクエストしました")
	args, err := decider.Decide(ctx, prompt.Profile(config.Prompt, ignoreNames), profileTool(), temperature)
	if err != nil {
		return nil, err
	}
	profile := &model.Profile{
		Name:        strings.TrimSpace(llm.StringArg(args, "name")),
		Personality: strings.TrimSpace(llm.StringArg(args, "personality")),
	}
	if profile.Name == "" {
		return nil, errors.New("名前が空です")
	}
	return profile, nil
}

func isTakenName(name string, taken []string) bool {
	if strings.EqualFold(name, model.NoTarget) {
		return true
	}
	return slices.ContainsFunc(taken, func(n string) bool { return strings.EqualFold(n, name) })
}

func generateProfileWithIgnoreNames(ctx context.Context, decider ProfileDecider, config model.ProfileConfig, ignoreNames []string, temperature float64) (*model.Profile, error) {
	for range max(config.Attempts, 1) {
		profile, err := generateProfile(ctx, decider, config, ignoreNames, temperature)
		if err != nil {
			return nil, err
		}
		if !isTakenName(profile.Name, ignoreNames) {
			slog.Info("ダイナミックプロフィールを生成しました", "name", profile.Name)
			return profile, nil
		}
		slog.Warn("使用できない名前が生成されました", "name", profile.Name)
	}
	return nil, errors.New("ユニークな名前を生成できませんでした")
}

func GenerateProfiles(ctx context.Context, decider ProfileDecider, config model.ProfileConfig, size int, temperature float64) ([]model.Profile, error) {
	var profiles []model.Profile
	names := make([]string, 0, size)
	for range size {
		profile, err := generateProfileWithIgnoreNames(ctx, decider, config, names, temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to generate profile: %w", err)
		}
		profiles = append(profiles, *profile)
		names = append(names, profile.Name)
	}
	return profiles, nil
}

// StaticProfiles takes the configured personas and fills any empty seats with
// numbered names. Duplicate and reserved names are skipped.
func StaticProfiles(config model.ProfileConfig, size int) []model.Profile {
	profiles := make([]model.Profile, 0, size)
	names := make([]string, 0, size)
	for _, persona := range config.Personas {
		if len(profiles) == size {
			break
		}
		if isTakenName(persona.Name, names) {
			slog.Warn("使用できない名前のため、ペルソナを無視します", "name", persona.Name)
			continue
		}
		profiles = append(profiles, persona)
		names = append(names, persona.Name)
	}
	for i := len(profiles); i < size; i++ {
		profiles = append(profiles, model.Profile{Name: fmt.Sprintf("Agent[%02d]", i+1)})
	}
	return profiles
}
