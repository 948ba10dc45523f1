package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/charmbracelet/lipgloss"
)

type Streamer interface {
	Stream(ctx context.Context, messages []model.Message, temperature float64, onDelta func(string)) (string, error)
}

type ConsoleNarrator struct {
	mu          sync.Mutex
	out         io.Writer
	styles      map[model.EventKind]lipgloss.Style
	header      lipgloss.Style
	speaker     lipgloss.Style
	muted       lipgloss.Style
	flavor      Streamer
	temperature float64
	streamed    map[model.Agent]bool
}

func NewConsoleNarrator(config model.Config, out io.Writer, flavor Streamer) *ConsoleNarrator {
	renderer := lipgloss.NewRenderer(out)
	style := func(color string) lipgloss.Style {
		if !config.Narrator.Color {
			return renderer.NewStyle()
		}
		return renderer.NewStyle().Foreground(lipgloss.Color(color))
	}
	n := &ConsoleNarrator{
		out:         out,
		header:      style("11").Bold(config.Narrator.Color),
		speaker:     style("14").Bold(config.Narrator.Color),
		muted:       style("8").Italic(config.Narrator.Color),
		temperature: config.LLM.Temperature,
		streamed:    make(map[model.Agent]bool),
		styles: map[model.EventKind]lipgloss.Style{
			model.E_WHISPER:  style("5"),
			model.E_ATTACK_V: style("5"),
			model.E_ATTACK:   style("1"),
			model.E_DEATH:    style("9").Bold(config.Narrator.Color),
			model.E_EXECUTE:  style("9").Bold(config.Narrator.Color),
			model.E_DIVINE:   style("12"),
			model.E_GUARD:    style("10"),
			model.E_SAVE:     style("10"),
			model.E_POISON:   style("13"),
			model.E_VOTE:     style("3"),
			model.E_RESULT:   style("11").Bold(config.Narrator.Color),
		},
	}
	if config.Narrator.Flavor {
		n.flavor = flavor
	}
	return n
}

func (n *ConsoleNarrator) Narrate(ctx context.Context, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch event.Kind {
	case model.E_TALK, model.E_WHISPER, model.E_LAST:
		if event.From != nil && n.streamed[*event.From] {
			delete(n.streamed, *event.From)
			fmt.Fprintln(n.out)
			return
		}
	}

	line := n.line(event)
	if line == "" {
		return
	}
	fmt.Fprintln(n.out, line)

	if n.flavor != nil && event.To != nil && (event.Kind == model.E_DEATH || event.Kind == model.E_EXECUTE) {
		n.narrateFlavor(ctx, event)
	}
}

// StreamDelta echoes a reply while it is being generated.
func (n *ConsoleNarrator) StreamDelta(agent model.Agent, request model.Request, delta string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.streamed[agent] {
		n.streamed[agent] = true
		prefix := agent.Name + ": "
		if request == model.R_WHISPER {
			prefix = "  (whisper) " + prefix
		}
		fmt.Fprint(n.out, n.speaker.Render(prefix))
	}
	fmt.Fprint(n.out, delta)
}

func (n *ConsoleNarrator) narrateFlavor(ctx context.Context, event model.Event) {
	fmt.Fprint(n.out, "  ")
	_, err := n.flavor.Stream(ctx, prompt.Flavor(event), n.temperature, func(delta string) {
		fmt.Fprint(n.out, n.muted.Render(delta))
	})
	fmt.Fprintln(n.out)
	if err != nil {
		slog.Warn("ナレーションの生成に失敗しました", "error", err)
	}
}

func (n *ConsoleNarrator) line(event model.Event) string {
	style, ok := n.styles[event.Kind]
	if !ok {
		style = lipgloss.NewStyle()
	}
	from, to := agentName(event.From), agentName(event.To)
	switch event.Kind {
	case model.E_START:
		return n.header.Render("=== " + event.Text + " ===")
	case model.E_STATUS:
		if event.Phase == model.P_DAY {
			return n.header.Render(fmt.Sprintf("--- Day %d ---", event.Day))
		}
		return n.header.Render(fmt.Sprintf("--- Night %d ---", event.Day))
	case model.E_TALK:
		return n.speaker.Render(from+": ") + event.Text
	case model.E_LAST:
		return n.speaker.Render(from+" (last words): ") + event.Text
	case model.E_WHISPER:
		return style.Render(fmt.Sprintf("  (whisper) %s: %s", from, event.Text))
	case model.E_VOTE:
		return style.Render(fmt.Sprintf("  %s votes for %s", from, to))
	case model.E_ATTACK_V:
		return style.Render(fmt.Sprintf("  (wolves) %s wants to attack %s", from, to))
	case model.E_EXECUTE:
		if event.To == nil {
			return style.Render("Nobody is executed today.")
		}
		return style.Render(fmt.Sprintf("%s is executed. They were %s.", to, event.Text))
	case model.E_ATTACK:
		if event.To == nil {
			return style.Render("  The wolves could not agree on a victim.")
		}
		return style.Render(fmt.Sprintf("  The wolves attack %s.", to))
	case model.E_DIVINE:
		return style.Render(fmt.Sprintf("  %s divines %s: %s", from, to, strings.ToLower(event.Text)))
	case model.E_GUARD:
		return style.Render(fmt.Sprintf("  %s guards %s", from, to))
	case model.E_SAVE:
		return style.Render(fmt.Sprintf("  %s heals %s", from, to))
	case model.E_POISON:
		return style.Render(fmt.Sprintf("  %s poisons %s", from, to))
	case model.E_DEATH:
		if event.To == nil {
			return style.Render("Nobody died last night.")
		}
		return style.Render(fmt.Sprintf("%s was found dead. They were %s.", to, event.Text))
	case model.E_RESULT:
		return style.Render("Result: " + event.Text)
	}
	return event.Text
}

func agentName(agent *model.Agent) string {
	if agent == nil {
		return "nobody"
	}
	return agent.Name
}
