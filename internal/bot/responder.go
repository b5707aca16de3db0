package bot

import "github.com/bwmarrin/discordgo"

// Responder is the narrow surface handlers use to answer an
// interaction. Keeping it an interface lets handler tests capture
// responses without a gateway connection.
type Responder interface {
	Respond(response *discordgo.InteractionResponse) error
}

// DiscordResponder answers interactions through a live session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a responder bound to one interaction.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends the response over the Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// MockResponder records the last response for assertions in tests.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	Err          error
}

// Respond stores the response and returns the configured error.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	return m.Err
}
