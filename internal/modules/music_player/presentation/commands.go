package presentation

import "github.com/sglre6355/tunebot/internal/bot"

// Commands returns all text commands for the music player module.
func Commands() []bot.Command {
	return []bot.Command{
		{
			Name:        "join",
			Description: "Join your voice channel",
			GuildOnly:   true,
		},
		{
			Name:        "play",
			Usage:       "<url or search>",
			Description: "Queue a track and start playing if idle",
			GuildOnly:   true,
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
			GuildOnly:   true,
		},
		{
			Name:        "queue",
			Usage:       "[page]",
			Description: "Show the current track and the queue",
			GuildOnly:   true,
		},
		{
			Name:        "stop",
			Description: "Clear the queue, stop playback and leave voice",
			GuildOnly:   true,
		},
	}
}
