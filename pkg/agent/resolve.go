package agent

import "github.com/manroop79/coding-arena/pkg/config"

// MockAgentID is the id of the always-available scripted reference
// adapter. It is the default selection when a submission names no usable
// agents.
const MockAgentID = "mock-agent"

// Available filters adapters to those usable under cfg.
func Available(adapters []Adapter, cfg *config.Config) []Adapter {
	usable := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		if a.Available(cfg) {
			usable = append(usable, a)
		}
	}
	return usable
}

// Resolve maps requested agent ids onto usable adapters, preserving
// request order. Unrecognized or unavailable ids are silently dropped and
// reported in unavailable. When nothing resolves — including an empty
// request — the selection falls back to the mock adapter.
func Resolve(requested []string, adapters []Adapter, cfg *config.Config) (selected []Adapter, unavailable []string) {
	usable := Available(adapters, cfg)

	byID := make(map[string]Adapter, len(usable))
	for _, a := range usable {
		byID[a.ID()] = a
	}

	if len(requested) == 0 {
		requested = []string{MockAgentID}
	}

	unavailable = make([]string, 0)
	for _, id := range requested {
		if a, ok := byID[id]; ok {
			selected = append(selected, a)
		} else {
			unavailable = append(unavailable, id)
		}
	}

	if len(selected) == 0 {
		for _, a := range adapters {
			if a.ID() == MockAgentID {
				selected = []Adapter{a}
				break
			}
		}
	}

	return selected, unavailable
}
