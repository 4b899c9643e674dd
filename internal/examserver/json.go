package examserver

// Payload shapes for the DATA responses the protocol defines,
// including the practice data shape. Field names and
// nesting are wire contract — do not rename without updating §6.1.

type roomsPayload struct {
	Rooms []roomListing `json:"rooms"`
}

type roomListing struct {
	RoomID           string `json:"room_id"`
	RoomName         string `json:"room_name"`
	Creator          string `json:"creator"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participant_count"`
	MaxParticipants  int    `json:"max_participants"`
	NumQuestions     int    `json:"num_questions"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	CreatedAt        string `json:"created_at"`
}

type examPayload struct {
	Questions []examQuestion `json:"questions"`
}

type examQuestion struct {
	QuestionID int64    `json:"question_id"`
	Content    string   `json:"content"`
	Options    []string `json:"options"`
}

type resultPayload struct {
	Leaderboard []leaderboardRow `json:"leaderboard"`
}

type leaderboardRow struct {
	Rank       int    `json:"rank"`
	Username   string `json:"username"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	SubmitTime string `json:"submit_time"`
	TimeTaken  int    `json:"time_taken"`
}

type practicePayload struct {
	PracticeID string         `json:"practice_id"`
	TimeLimit  int            `json:"time_limit"`
	Questions  []examQuestion `json:"questions"`
}
