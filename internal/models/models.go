package models

import (
	"time"
)

// Interview types
const (
	TypeDataStructures = "data-structures-algorithms"
	TypeSystemDesign   = "system-design"
	TypeBehavioral     = "behavioral"
)

// Practice modes. Peer mode means both users interview each other in
// turn, so the merged session reserves a second question slot.
const (
	ModePeer   = "peer"
	ModeSingle = "single"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// ScheduledRequest statuses
const (
	RequestScheduled  = "scheduled"
	RequestInProgress = "in_progress"
	RequestCompleted  = "completed"
	RequestCancelled  = "cancelled"
)

// MatchRequest statuses
const (
	MatchPending   = "pending"
	MatchMatched   = "matched"
	MatchConfirmed = "confirmed"
	MatchCancelled = "cancelled"
	MatchExpired   = "expired"
)

// LiveSession statuses
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

// Participant roles
const (
	RoleInterviewer = "interviewer"
	RoleInterviewee = "interviewee"
)

// MatchTTL is how long a match request stays eligible after creation.
const MatchTTL = 10 * time.Minute

// ScheduledRequest is a user's booked intent to practice at a time.
// Rows are never deleted, only status-transitioned.
type ScheduledRequest struct {
	ID                    string     `gorm:"primaryKey" json:"id"`
	UserID                string     `gorm:"not null;index" json:"userId"`
	InterviewType         string     `gorm:"not null" json:"interviewType"`
	PracticeMode          string     `gorm:"not null" json:"practiceMode"`
	Level                 string     `gorm:"not null" json:"level"`
	StartAt               time.Time  `json:"startAt"`
	Status                string     `gorm:"not null;index" json:"status"`
	PreassignedQuestionID *int       `json:"preassignedQuestionId,omitempty"`
	LiveSessionID         *string    `gorm:"index" json:"liveSessionId,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"-"`
}

// MatchRequest is one side's attempt to pair with another user. It is
// tied 1:1 to a ScheduledRequest while active. The compatibility
// attributes are denormalized from the scheduled request so the
// candidate scan is a single-table query.
type MatchRequest struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	ScheduledRequestID string    `gorm:"not null;index" json:"scheduledRequestId"`
	UserID             string    `gorm:"not null;index" json:"userId"`
	InterviewType      string    `gorm:"not null" json:"interviewType"`
	PracticeMode       string    `gorm:"not null" json:"practiceMode"`
	Level              string    `gorm:"not null" json:"level"`
	Status             string    `gorm:"not null;index" json:"status"`
	CounterpartID      *string   `gorm:"index" json:"counterpartId,omitempty"`
	Confirmed          bool      `gorm:"not null;default:false" json:"confirmed"`
	CreatedAt          time.Time `json:"createdAt"`
	ExpiresAt          time.Time `gorm:"not null;index" json:"expiresAt"`
	UpdatedAt          time.Time `json:"-"`
}

// Expired reports whether the request is past its expiry timestamp.
// Expiry is detected lazily on read; there is no background sweep.
func (m *MatchRequest) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// Active reports whether the request is in a non-terminal status.
func (m *MatchRequest) Active() bool {
	return m.Status == MatchPending || m.Status == MatchMatched || m.Status == MatchConfirmed
}

// LiveSession is the merged interview instance shared by two
// participants. AttemptedQuestionIDs records every question asked in
// this session so reassignment never repeats one.
type LiveSession struct {
	ID                   string     `gorm:"primaryKey" json:"id"`
	InterviewType        string     `gorm:"not null" json:"interviewType"`
	PracticeMode         string     `gorm:"not null" json:"practiceMode"`
	Level                string     `gorm:"not null" json:"level"`
	Status               string     `gorm:"not null;index" json:"status"`
	FirstQuestionID      int        `json:"firstQuestionId"`
	SecondQuestionID     *int       `json:"secondQuestionId,omitempty"`
	ActiveQuestionID     int        `json:"activeQuestionId"`
	AttemptedQuestionIDs []int      `gorm:"serializer:json" json:"attemptedQuestionIds"`
	StartedAt            time.Time  `json:"startedAt"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`
}

// Attempted reports whether the question was already asked in this session.
func (s *LiveSession) Attempted(questionID int) bool {
	for _, id := range s.AttemptedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Participant is one user's membership in a live session. Exactly one
// interviewer and one interviewee exist per session at any moment.
type Participant struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	LiveSessionID string     `gorm:"not null;uniqueIndex:idx_session_user" json:"liveSessionId"`
	UserID        string     `gorm:"not null;uniqueIndex:idx_session_user" json:"userId"`
	Role          string     `gorm:"not null" json:"role"`
	Connected     bool       `gorm:"not null;default:true" json:"connected"`
	JoinedAt      time.Time  `json:"joinedAt"`
	LeftAt        *time.Time `json:"leftAt,omitempty"`
}
