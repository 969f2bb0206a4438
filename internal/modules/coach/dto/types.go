package dto

import trackerdto "flux/internal/modules/tracker/dto"

type CheckInInput struct {
	Level int
	Tags  []string
	Note  string
}

type CheckInOutput struct {
	trackerdto.CheckInOutput
	Source string
}

type TipOutput struct {
	HabitID string
	Mode    string
	Tip     string
	Source  string
	Cached  bool
}

type SummaryOutput struct {
	Date    string
	Summary string
	Source  string
}
