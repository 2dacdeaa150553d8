package bridge

import (
	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
)

// hostmask builds the IRC source for a Discord user:
//
//	<@id>!name#discriminator@discord/user/<@id>
func hostmask(u *discordgo.User) *girc.Source {
	kind := "user"
	if u.Bot {
		kind = "bot"
	}
	return &girc.Source{
		Name:  u.Mention(),
		Ident: u.String(),
		Host:  "discord/" + kind + "/" + u.Mention(),
	}
}

// welcomeSource is the source of the synthetic 001 numeric.
func welcomeSource() *girc.Source {
	return &girc.Source{Name: girc.RPL_WELCOME, Ident: girc.RPL_WELCOME, Host: girc.RPL_WELCOME}
}
