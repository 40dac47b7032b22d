package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/liuran001/MusicDesk-Go/server/config"
	logpkg "github.com/liuran001/MusicDesk-Go/server/logger"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// Contribution describes the components a provider package can provide.
type Contribution struct {
	Provider  music.Provider
	Providers []music.Provider
}

// Factory creates a provider contribution based on config and logger.
type Factory func(cfg *config.Config, logger *logpkg.Logger) (*Contribution, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a provider factory by name. Provider packages call
// this from init(); the application imports them for side effect.
func Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("provider name required")
	}
	if factory == nil {
		return fmt.Errorf("provider factory required")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	factories[name] = factory
	return nil
}

// Get returns a registered factory by name.
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := factories[name]
	return factory, ok
}

// Names returns all registered factory names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	nameList := make([]string, 0, len(factories))
	for name := range factories {
		nameList = append(nameList, name)
	}
	sort.Strings(nameList)
	return nameList
}
