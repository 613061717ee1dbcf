package model

import "time"

// ChatSession is the navigation history of one bot chat.  Menus is never
// empty once a session exists; the last element is the current menu.
type ChatSession struct {
	ChatID    int64     `json:"chatId"`
	Menus     []string  `json:"menus"`
	UpdatedAt time.Time `json:"-"`
}
