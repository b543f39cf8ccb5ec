package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/roomwarden/internal/discord"
)

const guildPollInterval = 100 * time.Millisecond

type Client struct {
	session        *discordgo.Session
	token          string
	guildID        string
	requestTimeout time.Duration
	botUserID      string
}

func NewClient(token, guildID string, requestTimeout time.Duration) discordpkg.Client {
	return &Client{
		token:          token,
		guildID:        guildID,
		requestTimeout: requestTimeout,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates)
	s.State.TrackVoice = true
	s.State.TrackChannels = true
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	c.waitForGuild(ctx)
	return nil
}

// waitForGuild blocks until the guild create event has filled the state
// cache, since voice membership is only available from there.
func (c *Client) waitForGuild(ctx context.Context) {
	ticker := time.NewTicker(guildPollInterval)
	defer ticker.Stop()
	for {
		if channels, members, ok := c.guildSnapshot(); ok {
			slog.Info("guild state ready", "guild_id", c.guildID, "channels", len(channels), "occupied_channels", len(members))
			return
		}
		select {
		case <-ctx.Done():
			slog.Warn("guild state not ready before connect deadline", "guild_id", c.guildID, "error", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

// ListVoiceChannels returns every voice channel under parentID together with
// its connected members. Membership comes from the gateway voice-state cache,
// which is the only place Discord exposes it.
func (c *Client) ListVoiceChannels(ctx context.Context, parentID string) ([]discordpkg.Channel, error) {
	if c.session == nil || c.session.State == nil {
		return nil, &discordpkg.GatewayError{Op: "list voice channels", ID: parentID, Err: errors.New("discord session is not initialized")}
	}
	channels, members, ok := c.guildSnapshot()
	if !ok {
		return nil, &discordpkg.GatewayError{Op: "list voice channels", ID: parentID, Err: fmt.Errorf("guild %s is not in the state cache", c.guildID)}
	}
	if len(channels) == 0 {
		ctx, cancel := c.withTimeout(ctx)
		defer cancel()
		fetched, err := c.session.GuildChannels(c.guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, &discordpkg.GatewayError{Op: "list voice channels", ID: parentID, Err: err}
		}
		channels = fetched
	}
	list := make([]discordpkg.Channel, 0)
	for _, ch := range channels {
		if ch == nil || !isVoiceChannel(ch) || ch.ParentID != parentID {
			continue
		}
		list = append(list, toChannel(ch, members[ch.ID]))
	}
	return list, nil
}

func (c *Client) FetchChannel(ctx context.Context, channelID string) (*discordpkg.Channel, error) {
	if c.session == nil {
		return nil, &discordpkg.GatewayError{Op: "fetch channel", ID: channelID, Err: errors.New("discord session is not initialized")}
	}
	ch := c.cachedChannel(channelID)
	if ch == nil {
		ctx, cancel := c.withTimeout(ctx)
		defer cancel()
		fetched, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			if isRESTNotFound(err) {
				return nil, discordpkg.ErrChannelNotFound
			}
			return nil, &discordpkg.GatewayError{Op: "fetch channel", ID: channelID, Err: err}
		}
		ch = fetched
	}
	var members map[string][]string
	if c.session.State != nil {
		_, members, _ = c.guildSnapshot()
	}
	out := toChannel(ch, members[ch.ID])
	return &out, nil
}

func (c *Client) DisconnectMember(ctx context.Context, userID string) error {
	if c.session == nil {
		return &discordpkg.GatewayError{Op: "disconnect member", ID: userID, Err: errors.New("discord session is not initialized")}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.session.GuildMemberMove(c.guildID, userID, nil, discordgo.WithContext(ctx)); err != nil {
		if isRESTNotFound(err) {
			return discordpkg.ErrMemberNotFound
		}
		return &discordpkg.GatewayError{Op: "disconnect member", ID: userID, Err: err}
	}
	slog.Info("disconnected member from voice", "guild_id", c.guildID, "user_id", userID)
	return nil
}

func (c *Client) RenameChannel(ctx context.Context, channelID, name string) error {
	if c.session == nil {
		return &discordpkg.GatewayError{Op: "rename channel", ID: channelID, Err: errors.New("discord session is not initialized")}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx)); err != nil {
		if isRESTNotFound(err) {
			return discordpkg.ErrChannelNotFound
		}
		return &discordpkg.GatewayError{Op: "rename channel", ID: channelID, Err: err}
	}
	return nil
}

func (c *Client) FetchMember(ctx context.Context, userID string) (*discordpkg.Member, error) {
	if c.session == nil {
		return nil, &discordpkg.GatewayError{Op: "fetch member", ID: userID, Err: errors.New("discord session is not initialized")}
	}
	member := c.resolveGuildMember(ctx, userID)
	if member == nil {
		return nil, discordpkg.ErrMemberNotFound
	}
	out := &discordpkg.Member{
		UserID:      userID,
		DisplayName: userID,
	}
	if member.Nick != "" {
		out.DisplayName = member.Nick
	}
	if member.User != nil {
		if out.DisplayName == userID {
			out.DisplayName = preferredDiscordName(member.User.GlobalName, member.User.Username, userID)
		}
		out.IsBot = member.User.Bot
	}
	channelID, err := c.userVoiceChannelID(ctx, userID)
	if err != nil {
		return nil, &discordpkg.GatewayError{Op: "fetch member voice state", ID: userID, Err: err}
	}
	out.VoiceChannelID = channelID
	return out, nil
}

func (c *Client) JoinVoiceChannel(ctx context.Context, channelID string) (discordpkg.VoiceConnection, error) {
	if c.session == nil {
		return nil, &discordpkg.GatewayError{Op: "join voice channel", ID: channelID, Err: errors.New("discord session is not initialized")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &discordpkg.GatewayError{Op: "join voice channel", ID: channelID, Err: err}
	}
	vc, err := c.session.ChannelVoiceJoin(c.guildID, channelID, false, true)
	if err != nil {
		return nil, &discordpkg.GatewayError{Op: "join voice channel", ID: channelID, Err: err}
	}
	return &voiceConnectionImpl{vc: vc}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// cachedChannel returns a copy of the cached channel. Gateway handlers
// overwrite cached channels in place under the state lock.
func (c *Client) cachedChannel(channelID string) *discordgo.Channel {
	if c.session.State == nil {
		return nil
	}
	ch, err := c.session.State.Channel(channelID)
	if err != nil || ch == nil {
		return nil
	}
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	cp := *ch
	return &cp
}

// guildSnapshot copies the guild's channels and voice membership in one read
// of the state cache, so a tick never sees a half-applied voice state update.
func (c *Client) guildSnapshot() ([]*discordgo.Channel, map[string][]string, bool) {
	guild, err := c.session.State.Guild(c.guildID)
	if err != nil || guild == nil {
		return nil, nil, false
	}
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	channels := make([]*discordgo.Channel, 0, len(guild.Channels))
	for _, ch := range guild.Channels {
		if ch == nil {
			continue
		}
		cp := *ch
		channels = append(channels, &cp)
	}
	return channels, membersByChannel(guild.VoiceStates), true
}

func (c *Client) userVoiceChannelID(ctx context.Context, userID string) (string, error) {
	if c.session.State != nil {
		vs, err := c.session.State.VoiceState(c.guildID, userID)
		if err == nil && vs != nil {
			return vs.ChannelID, nil
		}
	}

	// Cache may be cold right after bot startup; ask Discord API directly as fallback.
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	vs, err := c.session.UserVoiceState(c.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isRESTNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if vs == nil {
		return "", nil
	}
	return vs.ChannelID, nil
}

func (c *Client) resolveGuildMember(ctx context.Context, userID string) *discordgo.Member {
	if c.session.State != nil {
		member, err := c.session.State.Member(c.guildID, userID)
		if err == nil && member != nil {
			return member
		}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	member, err := c.session.GuildMember(c.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil
	}
	return member
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

func isVoiceChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildVoice || ch.Type == discordgo.ChannelTypeGuildStageVoice
}

func membersByChannel(states []*discordgo.VoiceState) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, state := range states {
		if state == nil || state.ChannelID == "" || state.UserID == "" {
			continue
		}
		if _, exists := seen[state.UserID]; exists {
			continue
		}
		seen[state.UserID] = struct{}{}
		out[state.ChannelID] = append(out[state.ChannelID], state.UserID)
	}
	return out
}

func toChannel(ch *discordgo.Channel, memberIDs []string) discordpkg.Channel {
	return discordpkg.Channel{
		ID:        ch.ID,
		Name:      ch.Name,
		ParentID:  ch.ParentID,
		MemberIDs: memberIDs,
	}
}

func preferredDiscordName(globalName, username, fallback string) string {
	if globalName != "" {
		return globalName
	}
	if username != "" {
		return username
	}
	return fallback
}

type voiceConnectionImpl struct {
	vc *discordgo.VoiceConnection
}

func (v *voiceConnectionImpl) Speaking(speaking bool) error {
	return v.vc.Speaking(speaking)
}

func (v *voiceConnectionImpl) SendOpus(ctx context.Context, frame []byte) error {
	select {
	case v.vc.OpusSend <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *voiceConnectionImpl) Disconnect() error {
	return v.vc.Disconnect()
}
