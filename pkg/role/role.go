// Package role is the boundary to the chat platform's role-granting
// capability. Grant failures are logged and swallowed; a purchase never
// fails because the platform refused a role.
package role

import (
	"errors"
	"regexp"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoClient     = errors.New("no discord client is configured")
	ErrRoleNotFound = errors.New("the role does not exist on the server")
)

var roleTag = regexp.MustCompile(`^<@&(\d+)>$`)

// Granter grants a role, identified by a "<@&ID>" tag, to a member of a
// guild.
type Granter interface {
	GrantRole(guildID string, memberID string, roleTag string) error
}

// ParseRoleTag extracts the role ID from a "<@&ID>" tag. The second result
// reports whether the tag was well formed.
func ParseRoleTag(tag string) (string, bool) {
	match := roleTag.FindStringSubmatch(tag)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// discordGranter grants roles through a discordgo session.
type discordGranter struct {
	session *discordgo.Session
}

// NewDiscordGranter creates a Granter over the session.
func NewDiscordGranter(session *discordgo.Session) Granter {
	return &discordGranter{session: session}
}

// GrantRole adds the role to the member. A malformed tag or a missing
// session is an error; the caller decides whether to surface it.
func (g *discordGranter) GrantRole(guildID string, memberID string, tag string) error {
	log.Trace("--> GrantRole")
	defer log.Trace("<-- GrantRole")

	if g.session == nil {
		return ErrNoClient
	}
	roleID, ok := ParseRoleTag(tag)
	if !ok {
		return ErrRoleNotFound
	}
	if err := g.session.GuildMemberRoleAdd(guildID, memberID, roleID); err != nil {
		log.Errorf("Unable to assign role %s to member %s in guild %s, error=%s", roleID, memberID, guildID, err.Error())
		return err
	}
	return nil
}
