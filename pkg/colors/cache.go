package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	cacheFile = "org_colors.json"

	// Google Calendar event colors 1..11.
	firstColor   = 1
	lastColor    = 11
	defaultColor = "8" // graphite, for sessions with no organization
)

type OrgState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache gives each organization a stable calendar color. When every
// color is taken, the least recently used organization gives up its color.
type ColorCache struct {
	Path  string
	Orgs  map[string]*OrgState `json:"orgs"`
	now   func() time.Time
	dirty bool
}

func DefaultPath(configDir string) string {
	return filepath.Join(configDir, cacheFile)
}

func NewColorCache(path string) (*ColorCache, error) {
	cache := &ColorCache{
		Path: path,
		Orgs: make(map[string]*OrgState),
		now:  time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c.Orgs); err != nil {
		return err
	}
	if c.Orgs == nil {
		c.Orgs = make(map[string]*OrgState)
	}
	return nil
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(c.Orgs); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the color for orgID, assigning one on first use.
func (c *ColorCache) GetColorID(orgID string) string {
	if orgID == "" {
		return defaultColor
	}

	if state, ok := c.Orgs[orgID]; ok {
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(orgID)
}

func (c *ColorCache) assign(orgID string) string {
	used := make(map[string]bool, len(c.Orgs))
	for _, s := range c.Orgs {
		used[s.ColorID] = true
	}

	colorID := ""
	for i := firstColor; i <= lastColor; i++ {
		if id := strconv.Itoa(i); id != defaultColor && !used[id] {
			colorID = id
			break
		}
	}

	if colorID == "" {
		var oldest string
		for org, s := range c.Orgs {
			if oldest == "" || s.LastUsed.Before(c.Orgs[oldest].LastUsed) {
				oldest = org
			}
		}
		colorID = c.Orgs[oldest].ColorID
		delete(c.Orgs, oldest)
	}

	c.Orgs[orgID] = &OrgState{ColorID: colorID, LastUsed: c.now()}
	c.dirty = true
	return colorID
}
