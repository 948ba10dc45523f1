package prompt

import (
	"fmt"
	"strings"

	"github.com/aiwolfdial/turandot/model"
)

// Describe renders an event as the line an agent observes in its transcript.
func Describe(event model.Event) string {
	from, to := name(event.From), name(event.To)
	switch event.Kind {
	case model.E_START:
		return fmt.Sprintf("The game begins. %s", event.Text)
	case model.E_STATUS:
		if event.Phase == model.P_DAY {
			return fmt.Sprintf("Day %d begins. %s", event.Day, event.Text)
		}
		return fmt.Sprintf("Night %d falls. %s", event.Day, event.Text)
	case model.E_TALK:
		return fmt.Sprintf("%s: %s", from, event.Text)
	case model.E_WHISPER:
		return fmt.Sprintf("(whisper) %s: %s", from, event.Text)
	case model.E_VOTE:
		return fmt.Sprintf("%s voted for %s.", from, to)
	case model.E_ATTACK_V:
		return fmt.Sprintf("(attack vote) %s chose %s.", from, to)
	case model.E_EXECUTE:
		if event.To == nil {
			return "Nobody was executed today."
		}
		return fmt.Sprintf("%s was executed by the village.", to)
	case model.E_LAST:
		return fmt.Sprintf("%s's last words: %s", from, event.Text)
	case model.E_ATTACK:
		if event.To == nil {
			return "The pack attacked nobody tonight."
		}
		return fmt.Sprintf("The pack attacked %s.", to)
	case model.E_DIVINE:
		return fmt.Sprintf("Your divination: %s is %s.", to, strings.ToLower(event.Text))
	case model.E_GUARD:
		return fmt.Sprintf("You guard %s tonight.", to)
	case model.E_SAVE:
		return fmt.Sprintf("You used the healing potion on %s.", to)
	case model.E_POISON:
		return fmt.Sprintf("You poisoned %s.", to)
	case model.E_DEATH:
		if event.To == nil {
			return "Nobody died last night."
		}
		return fmt.Sprintf("%s was found dead this morning.", to)
	case model.E_RESULT:
		return fmt.Sprintf("The game is over. %s", event.Text)
	}
	return event.Text
}

func name(agent *model.Agent) string {
	if agent == nil {
		return "nobody"
	}
	return agent.Name
}

// Flavor builds the messages asking a narrator model for one or two sentences
// of atmosphere about an event.
func Flavor(event model.Event) []model.Message {
	return []model.Message{
		{Role: model.MessageSystem, Content: "You narrate a village werewolf game. Write one or two vivid sentences in the past tense. Do not invent new facts or reveal roles."},
		{Role: model.MessageUser, Content: Describe(event)},
	}
}

func Profile(instruction string, taken []string) []model.Message {
	if instruction == "" {
		instruction = DefaultProfilePrompt
	}
	content := instruction
	if len(taken) > 0 {
		content += "\nThese names are already taken: " + strings.Join(taken, ", ") + "."
	}
	return []model.Message{
		{Role: model.MessageSystem, Content: "You create characters for a social deduction game."},
		{Role: model.MessageUser, Content: content},
	}
}
