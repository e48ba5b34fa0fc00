package skills

import (
	"sort"
	"sync"
)

// Cache is a goroutine-safe store of skills keyed by normalized name
type Cache struct {
	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewCache creates an empty skill cache
func NewCache() *Cache {
	return &Cache{skills: make(map[string]*Skill)}
}

// Set inserts or overwrites the skill under its normalized name
func (c *Cache) Set(skill *Skill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills[skill.Key()] = skill
}

// Get looks up a skill by name, ignoring case and surrounding whitespace
func (c *Cache) Get(name string) (*Skill, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	skill, ok := c.skills[NormalizeName(name)]
	return skill, ok
}

// Has reports whether a skill with the given name is cached
func (c *Cache) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Delete removes the named skill; it is a no-op when absent
func (c *Cache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.skills, NormalizeName(name))
}

// Clear removes every skill
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills = make(map[string]*Skill)
}

// All returns every cached skill ordered by normalized name
func (c *Cache) All() []*Skill {
	c.mu.RLock()
	result := make([]*Skill, 0, len(c.skills))
	for _, skill := range c.skills {
		result = append(result, skill)
	}
	c.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key() < result[j].Key()
	})
	return result
}

// Len returns the number of cached skills
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.skills)
}

// Replace swaps in a copy of other's contents in a single step,
// so readers see either the old snapshot or the new one.
func (c *Cache) Replace(other *Cache) {
	other.mu.RLock()
	skills := make(map[string]*Skill, len(other.skills))
	for key, skill := range other.skills {
		skills[key] = skill
	}
	other.mu.RUnlock()

	c.mu.Lock()
	c.skills = skills
	c.mu.Unlock()
}
