// Package rooms implements the in-memory access group directory. Rooms are
// never persisted; permanent rooms are seeded once at startup and cannot be
// created, edited or deleted afterwards.
package rooms

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNotFound        = errors.New("room not found")
	ErrPermanentRoom   = errors.New("permanent room cannot be modified")
	ErrRoomExists      = errors.New("room already exists")
	ErrDuplicateMember = errors.New("member already in room")
	ErrMemberNotFound  = errors.New("member not in room")
	ErrEmptyName       = errors.New("name must not be empty")
)

// Room is an access group. Members keep insertion order and contain no
// duplicates (compared case- and diacritic-insensitively).
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	Permanent bool     `json:"permanent"`
}

// HasMember reports whether identity belongs to the room roster. Comparison
// folds case and diacritics so "José García" matches "jose garcia".
func (r Room) HasMember(identity string) bool {
	want := NormalizeIdentity(identity)
	if want == "" {
		return false
	}
	for _, m := range r.Members {
		if NormalizeIdentity(m) == want {
			return true
		}
	}
	return false
}

func (r Room) clone() Room {
	c := r
	c.Members = make([]string, len(r.Members))
	copy(c.Members, r.Members)
	return c
}

// Directory holds all rooms, seeded permanent ones first, then user-created
// rooms in creation order.
type Directory struct {
	mu    sync.Mutex
	order []string
	rooms map[string]*Room
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room)}
}

// Seed installs the permanent rooms. Ids are slugged from the seed id (or
// name when the id is empty). Duplicate seed ids are rejected.
func (d *Directory) Seed(seed Seed) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sr := range seed.Rooms {
		id := Slug(sr.ID)
		if id == "" {
			id = Slug(sr.Name)
		}
		if id == "" {
			return fmt.Errorf("seed room %q: %w", sr.Name, ErrEmptyName)
		}
		if _, ok := d.rooms[id]; ok {
			return fmt.Errorf("seed room %q: %w", id, ErrRoomExists)
		}

		room := &Room{ID: id, Name: sr.Name, Permanent: true}
		if room.Name == "" {
			room.Name = sr.ID
		}
		for _, m := range sr.Members {
			m = strings.TrimSpace(m)
			if m == "" || room.HasMember(m) {
				continue
			}
			room.Members = append(room.Members, m)
		}
		d.rooms[id] = room
		d.order = append(d.order, id)
	}
	return nil
}

// List returns copies of all rooms in display order.
func (d *Directory) List() []Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Room, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.rooms[id].clone())
	}
	return out
}

// Get returns a copy of the room with the given id.
func (d *Directory) Get(id string) (Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return room.clone(), nil
}

// Create adds a new non-permanent room named name. The id is derived from
// the name; a collision with any existing room is a conflict.
func (d *Directory) Create(name string) (Room, error) {
	name = strings.TrimSpace(name)
	id := Slug(name)
	if id == "" {
		return Room{}, ErrEmptyName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[id]; ok {
		return Room{}, fmt.Errorf("%q: %w", id, ErrRoomExists)
	}
	room := &Room{ID: id, Name: name}
	d.rooms[id] = room
	d.order = append(d.order, id)
	return room.clone(), nil
}

// Delete removes a non-permanent room.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	if room.Permanent {
		return fmt.Errorf("%q: %w", id, ErrPermanentRoom)
	}
	delete(d.rooms, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddMember appends member to a non-permanent room roster.
func (d *Directory) AddMember(id, member string) (Room, error) {
	member = strings.TrimSpace(member)
	if member == "" {
		return Room{}, ErrEmptyName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	if room.Permanent {
		return Room{}, fmt.Errorf("%q: %w", id, ErrPermanentRoom)
	}
	if room.HasMember(member) {
		return Room{}, fmt.Errorf("%q in %q: %w", member, id, ErrDuplicateMember)
	}
	room.Members = append(room.Members, member)
	return room.clone(), nil
}

// RemoveMember removes member from a non-permanent room roster.
func (d *Directory) RemoveMember(id, member string) (Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	if room.Permanent {
		return Room{}, fmt.Errorf("%q: %w", id, ErrPermanentRoom)
	}
	want := NormalizeIdentity(member)
	for i, m := range room.Members {
		if NormalizeIdentity(m) == want {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			return room.clone(), nil
		}
	}
	return Room{}, fmt.Errorf("%q in %q: %w", member, id, ErrMemberNotFound)
}
