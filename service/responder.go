package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aiwolfdial/turandot/llm"
	"github.com/aiwolfdial/turandot/model"
)

type DeltaHandler func(agent model.Agent, request model.Request, delta string)

type LLMResponder struct {
	client      *llm.Client
	temperature float64
	stream      bool
	onDelta     DeltaHandler
}

func NewLLMResponder(client *llm.Client, config model.Config) *LLMResponder {
	return &LLMResponder{
		client:      client,
		temperature: config.LLM.Temperature,
		stream:      config.LLM.Stream,
	}
}

func (r *LLMResponder) SetDeltaHandler(handler DeltaHandler) {
	r.onDelta = handler
}

func (r *LLMResponder) Respond(ctx context.Context, agent model.Agent, request model.Request, messages []model.Message, candidates []string) (string, error) {
	if request.IsTalk() {
		return r.talk(ctx, agent, request, messages)
	}
	if len(candidates) == 0 {
		return "", errors.New("候補がありません")
	}
	args, err := r.client.Decide(ctx, messages, DecisionTool(request, candidates), r.temperature)
	if err != nil {
		return "", err
	}
	target := llm.StringArg(args, "target")
	slog.Info("判断を受信しました", "agent", agent.String(), "request", request.String(), "target", target, "reason", llm.StringArg(args, "reason"))
	return target, nil
}

func (r *LLMResponder) talk(ctx context.Context, agent model.Agent, request model.Request, messages []model.Message) (string, error) {
	if !r.stream {
		text, err := r.client.Send(ctx, messages, nil, r.temperature)
		return strings.TrimSpace(text), err
	}
	var onDelta func(string)
	if r.onDelta != nil {
		onDelta = func(delta string) { r.onDelta(agent, request, delta) }
	}
	text, err := r.client.Stream(ctx, messages, r.temperature, onDelta)
	return strings.TrimSpace(text), err
}

var decisionDescriptions = map[model.Request]string{
	model.R_VOTE:         "Vote for the agent the village should execute today.",
	model.R_ATTACK:       "Choose the agent the werewolves attack tonight.",
	model.R_DIVINE:       "Choose the agent to divine tonight.",
	model.R_GUARD:        "Choose the agent to protect tonight.",
	model.R_WITCH_SAVE:   "Decide whether to use the healing potion on tonight's victim.",
	model.R_WITCH_POISON: "Decide whether to poison an agent tonight.",
}

// DecisionTool builds the single tool a decision must be made through. The
// target parameter only accepts the legal candidates.
func DecisionTool(request model.Request, candidates []string) llm.ToolSpec {
	description, ok := decisionDescriptions[request]
	if !ok {
		description = fmt.Sprintf("Answer the %s request.", strings.ToLower(request.String()))
	}
	return llm.ToolSpec{
		Name:        strings.ToLower(request.String()),
		Description: description,
		Parameters: []llm.ParameterSpec{
			{Name: "target", Description: "One of the candidates, spelled exactly.", Type: llm.TypeString, Enum: candidates, Required: true},
			{Name: "reason", Description: "One short sentence explaining the choice.", Type: llm.TypeString},
		},
	}
}
