package repository

import "time"

type SoloTimerStatus string

const (
	SoloTimerStatusActive   SoloTimerStatus = "active"
	SoloTimerStatusResolved SoloTimerStatus = "resolved"
)

// SoloTimer tracks one continuous episode of a voice channel holding exactly
// one member. At most one active timer exists per channel.
type SoloTimer struct {
	ID         string
	ChannelID  string
	StartTime  time.Time
	Status     SoloTimerStatus
	ResolvedAt *time.Time
}

type LifecycleStatus string

const (
	LifecycleStatusStart    LifecycleStatus = "start"
	LifecycleStatusFinished LifecycleStatus = "finished"
)

// LifecycleRecord remembers the name a voice channel had before a temporary rename.
type LifecycleRecord struct {
	ID             string
	VoiceChannelID string
	OriginalName   string
	Status         LifecycleStatus
	CreatedAt      time.Time
}

type JoinCallStatus string

const (
	JoinCallStatusJoining JoinCallStatus = "joining"
	JoinCallStatusFinish  JoinCallStatus = "finish"
)

type JoinCall struct {
	ID        int64
	ChannelID string
	UserID    string
	Status    JoinCallStatus
	StartTime time.Time
	EndTime   *time.Time
}
