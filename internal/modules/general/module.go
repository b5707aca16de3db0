package general

import (
	"github.com/bwmarrin/discordgo"
	"github.com/hikawa-dev/cadenza/internal/bot"
	"github.com/hikawa-dev/cadenza/internal/modules/general/presentation"
)

func init() {
	bot.Register(&GeneralModule{})
}

// GeneralModule provides utility commands like /ping.
type GeneralModule struct {
	pingHandler *presentation.PingHandler
}

// Name returns the module name.
func (m *GeneralModule) Name() string {
	return "general"
}

// Commands returns the slash commands for this module.
func (m *GeneralModule) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check bot responsiveness and gateway latency",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *GeneralModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping": m.pingHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *GeneralModule) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *GeneralModule) Init(deps bot.ModuleDependencies) error {
	m.pingHandler = presentation.NewPingHandler()
	return nil
}

// Shutdown cleans up module resources.
func (m *GeneralModule) Shutdown() error {
	return nil
}
