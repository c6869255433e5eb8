package model

// Preset is a labelled millilitre amount offered as a shortcut.
type Preset struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}

// GoalPresets are the suggested daily goals by activity level.
var GoalPresets = []Preset{
	{Label: "Low Activity", Amount: 1500},
	{Label: "Moderate Activity", Amount: 2000},
	{Label: "High Activity", Amount: 2500},
	{Label: "Athletic", Amount: 3000},
}

// IntakePresets are the quick-add drink sizes.
var IntakePresets = []Preset{
	{Label: "Small Glass", Amount: 200},
	{Label: "Medium Glass", Amount: 300},
	{Label: "Large Glass", Amount: 400},
	{Label: "Bottle", Amount: 500},
}

// ReminderMessages are the predefined reminder texts.
var ReminderMessages = []string{
	DefaultReminderMessage,
	"Hydration break!",
	"Don't forget your water!",
	"Stay hydrated, stay healthy!",
	"Water time!",
}
