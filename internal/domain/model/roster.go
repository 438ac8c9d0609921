package model

import "time"

// Currency is what a round is scored in.
type Currency string

// Supported round currencies.
const (
	CurrencyMarks Currency = "marks"
	CurrencyMoney Currency = "money"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyMarks || c == CurrencyMoney
}

// Player is a tournament participant.
type Player struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Active bool   `json:"Active"`
	// Immune players cannot be voted out.
	Immune bool `json:"Immune"`
}

// Team groups players for team standings.
type Team struct {
	ID        string    `json:"Id"`
	Name      string    `json:"Name"`
	Members   []string  `json:"Members"`
	CreatedAt time.Time `json:"CreatedAt"`
}

// Round is one stage of the tournament.
type Round struct {
	ID        string    `json:"Id"`
	Name      string    `json:"Name"`
	Currency  Currency  `json:"Currency"`
	Variant   string    `json:"Variant"`
	CreatedAt time.Time `json:"CreatedAt"`
}

// MoneyResult is a money total recorded for a subject in a money round.
type MoneyResult struct {
	ID            string    `json:"Id"`
	RoundID       string    `json:"RoundId"`
	SubjectID     string    `json:"SubjectId"`
	Amount        float64   `json:"Amount"`
	TimeSubmitted time.Time `json:"TimeSubmitted"`
}
