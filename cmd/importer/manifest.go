package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/midzapp/midz/internal/core/domain"
)

// Manifest is the seed file format: users with their friends and boards.
type Manifest struct {
	Source string      `json:"source"`
	Users  []UserEntry `json:"users"`
}

type UserEntry struct {
	ID        string       `json:"id"`
	FullName  string       `json:"full_name"`
	Username  string       `json:"username"`
	Address   string       `json:"address"`
	FriendIDs []string     `json:"friend_ids"`
	Boards    []BoardEntry `json:"boards"`
}

type BoardEntry struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Emoji  string       `json:"emoji"`
	Color  string       `json:"color"`
	Places []PlaceEntry `json:"places"`
}

type PlaceEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func parseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Validate reports every problem in the manifest at once. Friend IDs must
// point at users in the same manifest.
func (m *Manifest) Validate() error {
	var errs []error

	ids := make(map[string]bool, len(m.Users))
	usernames := make(map[string]bool, len(m.Users))
	boardIDs := make(map[string]bool)

	for i, u := range m.Users {
		if _, err := uuid.Parse(u.ID); err != nil {
			errs = append(errs, fmt.Errorf("users[%d]: invalid id %q", i, u.ID))
		} else if ids[u.ID] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate id %s", i, u.ID))
		}
		ids[u.ID] = true

		if strings.TrimSpace(u.FullName) == "" {
			errs = append(errs, fmt.Errorf("users[%d]: full_name is required", i))
		}
		if strings.TrimSpace(u.Username) == "" {
			errs = append(errs, fmt.Errorf("users[%d]: username is required", i))
		} else if usernames[u.Username] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username))
		}
		usernames[u.Username] = true

		for j, b := range u.Boards {
			if _, err := uuid.Parse(b.ID); err != nil {
				errs = append(errs, fmt.Errorf("users[%d].boards[%d]: invalid id %q", i, j, b.ID))
			} else if boardIDs[b.ID] {
				errs = append(errs, fmt.Errorf("users[%d].boards[%d]: duplicate id %s", i, j, b.ID))
			}
			boardIDs[b.ID] = true
			if strings.TrimSpace(b.Name) == "" {
				errs = append(errs, fmt.Errorf("users[%d].boards[%d]: name is required", i, j))
			}
			for k, p := range b.Places {
				if strings.TrimSpace(p.Name) == "" {
					errs = append(errs, fmt.Errorf("users[%d].boards[%d].places[%d]: name is required", i, j, k))
				}
			}
		}
	}

	for i, u := range m.Users {
		for _, f := range u.FriendIDs {
			if f == u.ID {
				errs = append(errs, fmt.Errorf("users[%d]: cannot befriend themselves", i))
			} else if !ids[f] {
				errs = append(errs, fmt.Errorf("users[%d]: unknown friend %s", i, f))
			}
		}
	}

	return errors.Join(errs...)
}

// DomainUsers returns the directory entries in manifest order.
func (m *Manifest) DomainUsers() []domain.User {
	users := make([]domain.User, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, domain.User{
			ID:        u.ID,
			FullName:  u.FullName,
			Username:  u.Username,
			Address:   u.Address,
			FriendIDs: u.FriendIDs,
		})
	}
	return users
}

// DomainBoards returns every board with its owner set, places in manifest order.
func (m *Manifest) DomainBoards() []domain.Board {
	var boards []domain.Board
	for _, u := range m.Users {
		for _, b := range u.Boards {
			board := domain.Board{
				ID:      b.ID,
				OwnerID: u.ID,
				Name:    b.Name,
				Emoji:   b.Emoji,
				Color:   b.Color,
			}
			for _, p := range b.Places {
				board.Places = append(board.Places, domain.SavedPlace{
					BoardID: b.ID,
					Name:    p.Name,
					Address: p.Address,
					Notes:   p.Notes,
				})
			}
			boards = append(boards, board)
		}
	}
	return boards
}
