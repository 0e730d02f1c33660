package dto

import "time"

type CreateNoteRequest struct {
	Text string `json:"text" example:"Call the plumber about the kitchen sink."`
}

type NoteResponse struct {
	ID        string    `json:"id" example:"5f1d7c2e-8a8b-4b62-9a3f-0c6f4b7d9e21"`
	Text      string    `json:"text" example:"Call the plumber about the kitchen sink."`
	Title     string    `json:"title" example:"Call the plumber about the kitchen sink."`
	Timestamp time.Time `json:"timestamp"`
}

type NoteSearchResult struct {
	Note  NoteResponse `json:"note"`
	Score float32      `json:"score" example:"0.82"`
}

type NoteSearchResponse struct {
	Query   string             `json:"query" example:"plumber"`
	Results []NoteSearchResult `json:"results"`
}
