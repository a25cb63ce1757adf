package matchmakingqueue

// Job kinds. Expiry jobs carry the id of the record they expire; the service
// re-checks status and deadline, so a job that fires late or twice is harmless.
const (
	KindPairingExpiry  = "matchmaking_pairing_expiry"
	KindRematchExpiry  = "matchmaking_rematch_expiry"
	KindSparringExpiry = "matchmaking_sparring_expiry"
	KindWeeklyRotation = "matchmaking_weekly_rotation"
)

// PairingExpiryJob expires a pending pairing nobody accepted.
type PairingExpiryJob struct {
	PairingID string `json:"pairing_id"`
}

// Kind returns the job type identifier for River
func (PairingExpiryJob) Kind() string { return KindPairingExpiry }

// RematchExpiryJob expires an unanswered rematch request.
type RematchExpiryJob struct {
	RequestID string `json:"request_id"`
}

// Kind returns the job type identifier for River
func (RematchExpiryJob) Kind() string { return KindRematchExpiry }

// SparringExpiryJob expires a sparring invitation or an accepted session past its window.
type SparringExpiryJob struct {
	InvitationID string `json:"invitation_id"`
}

// Kind returns the job type identifier for River
func (SparringExpiryJob) Kind() string { return KindSparringExpiry }

// WeeklyRotationJob rotates stale auto pairings and re-runs the sweep.
type WeeklyRotationJob struct{}

// Kind returns the job type identifier for River
func (WeeklyRotationJob) Kind() string { return KindWeeklyRotation }

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	SubjectID   string `json:"subject_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
