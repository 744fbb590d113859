// Package repository holds the relational queries behind participants and
// completed task runs.
package repository

import "gorm.io/gorm"

// Repository wraps the database handle shared by every query.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}
