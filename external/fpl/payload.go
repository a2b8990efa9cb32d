package fpl

// Wire shapes of the public fantasy API. Top-level arrays are pointers so a
// missing key can be told apart from an empty list.

type bootstrapEnvelope struct {
	Elements     *[]elementDTO     `json:"elements"`
	Teams        *[]teamDTO        `json:"teams"`
	ElementTypes *[]elementTypeDTO `json:"element_types"`
	Events       *[]eventDTO       `json:"events"`
}

type elementDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	WebName     string `json:"web_name"`
	Team        int64  `json:"team"`
	ElementType int    `json:"element_type"`
	NowCost     int    `json:"now_cost"`
}

type teamDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Position  int    `json:"position"`
}

type elementTypeDTO struct {
	ID           int    `json:"id"`
	SingularName string `json:"singular_name"`
}

type eventDTO struct {
	ID        int  `json:"id"`
	IsNext    bool `json:"is_next"`
	IsCurrent bool `json:"is_current"`
	Finished  bool `json:"finished"`
}

type fixtureDTO struct {
	ID          int64   `json:"id"`
	Event       *int    `json:"event"`
	TeamH       int64   `json:"team_h"`
	TeamA       int64   `json:"team_a"`
	KickoffTime *string `json:"kickoff_time"`
	Finished    bool    `json:"finished"`
	TeamHScore  *int    `json:"team_h_score"`
	TeamAScore  *int    `json:"team_a_score"`
}

type summaryEnvelope struct {
	History *[]historyDTO `json:"history"`
}

type historyDTO struct {
	Round                         int `json:"round"`
	Minutes                       int `json:"minutes"`
	TotalPoints                   int `json:"total_points"`
	Tackles                       int `json:"tackles"`
	ClearancesBlocksInterceptions int `json:"clearances_blocks_interceptions"`
}

// bootstrap is the decoded bootstrap-static document with team and position
// ids resolved.
type bootstrap struct {
	Players   []elementDTO
	TeamNames map[int64]string
	Teams     []teamDTO
	Positions map[int]string
	Events    []eventDTO
}
