package model

type BroadcastAgent struct {
	Idx         int    `json:"idx"`
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
	Role        string `json:"role"`
	IsAlive     bool   `json:"is_alive"`
}

type BroadcastPacket struct {
	Id        string           `json:"id"`
	Idx       int              `json:"idx"`
	Day       int              `json:"day"`
	IsDay     bool             `json:"is_day"`
	Agents    []BroadcastAgent `json:"agents"`
	Event     string           `json:"event"`
	Message   *string          `json:"message,omitempty"`
	FromIdx   *int             `json:"from_idx,omitempty"`
	ToIdx     *int             `json:"to_idx,omitempty"`
	BubbleIdx *int             `json:"bubble_idx,omitempty"`
}
