package repository

import (
	"context"
	"time"
)

type CreateLifecycleRecordInput struct {
	VoiceChannelID string
	OriginalName   string
	CreatedAt      time.Time
}

type CreateJoinCallInput struct {
	ChannelID string
	UserID    string
	StartTime time.Time
}

type SoloTimerRepository interface {
	ListActiveSoloTimers(ctx context.Context) ([]SoloTimer, error)
	// CreateSoloTimer inserts an active timer unless one is already active for
	// the channel; created reports whether a row was written.
	CreateSoloTimer(ctx context.Context, channelID string, startTime time.Time) (created bool, err error)
	ResolveSoloTimer(ctx context.Context, id string, at time.Time) (bool, error)
	ResolveActiveSoloTimerByChannel(ctx context.Context, channelID string, at time.Time) (bool, error)
}

type LifecycleRepository interface {
	CreateLifecycleRecord(ctx context.Context, input CreateLifecycleRecordInput) (*LifecycleRecord, error)
	// ListPendingLifecycleRecords returns start records created within [from, to].
	ListPendingLifecycleRecords(ctx context.Context, from, to time.Time) ([]LifecycleRecord, error)
	FinishLifecycleRecord(ctx context.Context, id string) (bool, error)
}

type JoinCallRepository interface {
	CreateJoinCall(ctx context.Context, input CreateJoinCallInput) (*JoinCall, error)
	GetJoinCall(ctx context.Context, id int64) (*JoinCall, error)
	FinishJoinCall(ctx context.Context, id int64, endTime time.Time) (bool, error)
	// CloseStaleJoinCalls finishes every joining call started at or before
	// cutoff in one conditional update and returns the number of rows closed.
	CloseStaleJoinCalls(ctx context.Context, cutoff, endTime time.Time) (int64, error)
}

type Repository interface {
	SoloTimerRepository
	LifecycleRepository
	JoinCallRepository
	Migrate(ctx context.Context) error
	Close()
}
