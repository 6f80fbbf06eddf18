package domain

// Stats are the figures derived from the collection after every mutation.
// They are never persisted.
type Stats struct {
	Total             int          `json:"total"`
	Read              int          `json:"read"`
	Unread            int          `json:"unread"`
	Favorites         int          `json:"favorites"`
	CompletionPercent int          `json:"completion_percent"`
	TotalPages        int          `json:"total_pages"`
	AverageRating     float64      `json:"average_rating"`
	Genres            int          `json:"genres"`
	AddedThisMonth    int          `json:"added_this_month"`
	AddedLast30Days   int          `json:"added_last_30_days"`
	ReadDecades       int          `json:"read_decades"`
	Goals             GoalProgress `json:"goals"`
}

// GoalProgress holds progress toward each goal.
type GoalProgress struct {
	Yearly   Progress `json:"yearly"`
	Variety  Progress `json:"variety"`
	Lifetime Progress `json:"lifetime"`
}

// Progress is progress toward a single target. Percent is capped at 100.
type Progress struct {
	Current int     `json:"current"`
	Target  int     `json:"target"`
	Percent float64 `json:"percent"`
}

// NewProgress computes capped progress toward target.
func NewProgress(current, target int) Progress {
	p := Progress{Current: current, Target: target}
	if target > 0 {
		p.Percent = min(float64(current)/float64(target)*100, 100)
	}
	return p
}
