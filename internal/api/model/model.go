package model

import "time"

// Item is a row of the items table
type Item struct {
	ID        int64     `db:"id"`
	UUID      string    `db:"uuid"`
	CreatedAt time.Time `db:"created_at"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
}
