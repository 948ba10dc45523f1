package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aiwolfdial/turandot/logic"
	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/service"
	"github.com/aiwolfdial/turandot/store"
	"github.com/aiwolfdial/turandot/util"
)

// Runner plays the configured number of games one after another and wires
// every enabled sink into each of them.
type Runner struct {
	config              model.Config
	gameSetting         *model.Setting
	responder           logic.Responder
	profileDecider      util.ProfileDecider
	narrator            logic.Narrator
	jsonLogger          *service.JSONLogger
	gameLogger          *service.GameLogger
	realtimeBroadcaster *service.RealtimeBroadcaster
	store               *store.Store
}

func NewRunner(config model.Config, responder logic.Responder) (*Runner, error) {
	gameSetting, err := model.NewSetting(config)
	if err != nil {
		return nil, fmt.Errorf("ゲーム設定の作成に失敗しました: %w", err)
	}
	runner := &Runner{
		config:      config,
		gameSetting: gameSetting,
		responder:   responder,
	}
	if config.JSONLogger.Enable {
		runner.jsonLogger = service.NewJSONLogger(config)
	}
	if config.GameLogger.Enable {
		runner.gameLogger = service.NewGameLogger(config)
	}
	if config.RealtimeBroadcaster.Enable {
		realtimeBroadcaster, err := service.NewRealtimeBroadcaster(config)
		if err != nil {
			return nil, err
		}
		runner.realtimeBroadcaster = realtimeBroadcaster
	}
	if config.Store.Enable {
		st, err := store.Open(config.Store.Path)
		if err != nil {
			return nil, err
		}
		runner.store = st
	}
	return runner, nil
}

func (r *Runner) SetNarrator(narrator logic.Narrator) {
	r.narrator = narrator
}

func (r *Runner) SetProfileDecider(decider util.ProfileDecider) {
	r.profileDecider = decider
}

func (r *Runner) RealtimeBroadcaster() *service.RealtimeBroadcaster {
	return r.realtimeBroadcaster
}

func (r *Runner) Store() *store.Store {
	return r.store
}

// Run plays the games and returns the winning team of each one that
// finished.
func (r *Runner) Run(ctx context.Context) ([]model.Team, error) {
	count := max(r.config.Game.Count, 1)
	results := make([]model.Team, 0, count)
	for i := range count {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		game, err := r.newGame(ctx)
		if err != nil {
			return results, err
		}
		slog.Info("ゲームを開始します", "id", game.ID, "index", i+1, "count", count)
		results = append(results, game.Start(ctx))
	}
	return results, nil
}

func (r *Runner) newGame(ctx context.Context) (*logic.Game, error) {
	profiles := r.resolveProfiles(ctx)
	game, err := logic.NewGame(&r.config, r.gameSetting, profiles, r.responder)
	if err != nil {
		return nil, err
	}
	if r.jsonLogger != nil {
		game.SetJSONLogger(r.jsonLogger)
	}
	if r.gameLogger != nil {
		game.SetGameLogger(r.gameLogger)
	}
	if r.realtimeBroadcaster != nil {
		game.SetRealtimeBroadcaster(r.realtimeBroadcaster)
	}
	if r.store != nil {
		game.SetStore(r.store)
	}
	if r.narrator != nil {
		game.SetNarrator(r.narrator)
	}
	return game, nil
}

func (r *Runner) resolveProfiles(ctx context.Context) []model.Profile {
	size := r.gameSetting.AgentCount
	if r.config.Profile.Dynamic && r.profileDecider != nil {
		profiles, err := util.GenerateProfiles(ctx, r.profileDecider, r.config.Profile, size, r.config.LLM.Temperature)
		if err == nil {
			return profiles
		}
		slog.Warn("プロフィールの生成に失敗したため、静的プロフィールを使用します", "error", err)
	}
	return util.StaticProfiles(r.config.Profile, size)
}

func (r *Runner) Close() error {
	var errs []error
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}
