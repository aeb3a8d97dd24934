package model

import "time"

// Project is a portfolio entry shown on the public site.
type Project struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LiveURL     string `json:"live_url"`
	RepoURL     string `json:"repo_url"`
	SortOrder   int    `json:"sort_order"`
	IsFeatured  bool   `json:"is_featured"`
}

// Admin is a site operator allowed to triage submissions.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
