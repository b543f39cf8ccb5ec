package discord

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrChannelNotFound = errors.New("discord channel not found")
	ErrMemberNotFound  = errors.New("discord member not found")
)

// GatewayError is a transient platform failure: rate limits, unreachable
// members, network errors.
type GatewayError struct {
	Op  string
	ID  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("discord %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Channel is a voice channel with the members currently connected to it.
type Channel struct {
	ID        string
	Name      string
	ParentID  string
	MemberIDs []string
}

func (c Channel) MemberCount() int {
	return len(c.MemberIDs)
}

type Member struct {
	UserID         string
	DisplayName    string
	IsBot          bool
	VoiceChannelID string
}

// Gateway is the capability surface the schedulers need from the chat platform.
type Gateway interface {
	ListVoiceChannels(ctx context.Context, parentID string) ([]Channel, error)
	FetchChannel(ctx context.Context, channelID string) (*Channel, error)
	DisconnectMember(ctx context.Context, userID string) error
	RenameChannel(ctx context.Context, channelID, name string) error
	FetchMember(ctx context.Context, userID string) (*Member, error)
}

type Client interface {
	Gateway
	Connect(ctx context.Context) error
	Close() error
	GetBotUserID() (string, error)
	JoinVoiceChannel(ctx context.Context, channelID string) (VoiceConnection, error)
}

type VoiceConnection interface {
	Speaking(speaking bool) error
	SendOpus(ctx context.Context, frame []byte) error
	Disconnect() error
}
