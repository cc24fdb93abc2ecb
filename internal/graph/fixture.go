package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jason-s-yu/friendgraph/internal/models"
)

// Fixture is the on-disk seed format shared by the memory driver and cmd/seed.
type Fixture struct {
	Users       []models.User       `json:"users"`
	Friendships []models.Friendship `json:"friendships"`
}

// ReadFixture decodes a fixture from r.
func ReadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// ReadFixtureFile opens and decodes the fixture at path.
func ReadFixtureFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer fh.Close()
	return ReadFixture(fh)
}

// Load applies every user and edge of f to g.
func (g *Graph) Load(f *Fixture) error {
	for _, u := range f.Users {
		if err := g.AddUser(u); err != nil {
			return err
		}
	}
	for _, e := range f.Friendships {
		if err := g.SetEdge(e.UserID, e.FriendUserID, e.Status); err != nil {
			return err
		}
	}
	return nil
}
