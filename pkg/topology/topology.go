// Package topology loads the router link-cost map used to weight trie nodes.
package topology

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/trie"
	"github.com/newtron-network/netpec/pkg/util"
)

// File is the top-level structure of a topology YAML file.
type File struct {
	Name    string                    `yaml:"name"`
	Routers map[string]map[string]int `yaml:"routers"`
	Links   []Link                    `yaml:"links"`
}

// Link is a symmetric link between two routers. Its cost overrides any
// per-router entry for the same pair.
type Link struct {
	Endpoints []string `yaml:"endpoints" validate:"len=2,dive,required"`
	Cost      int      `yaml:"cost" validate:"gte=0"`
}

// Load reads and validates a topology file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates topology YAML
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing topology YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating topology: %w", err)
	}
	return &f, nil
}

// Default returns a topology naming each router with no links, so every
// router gets trie.DefaultWeight.
func Default(routers ...string) *File {
	f := &File{Name: "default", Routers: make(map[string]map[string]int, len(routers))}
	for _, r := range routers {
		if r != "" {
			f.Routers[r] = map[string]int{}
		}
	}
	return f
}

// Validate checks link shape and that every cost is non-negative
func (f *File) Validate() error {
	vb := &util.ValidationBuilder{}

	for i, link := range f.Links {
		if err := model.ValidateStruct(link); err != nil {
			vb.Wrap(fmt.Sprintf("link %d", i), err)
			continue
		}
		vb.Add(link.Endpoints[0] != link.Endpoints[1],
			fmt.Sprintf("link %d: endpoints must be two different routers", i))
	}

	for _, router := range f.RouterNames() {
		vb.Add(router != "", "router name must not be empty")
		for _, neighbor := range sortedKeys(f.Routers[router]) {
			if cost := f.Routers[router][neighbor]; cost < 0 {
				vb.AddErrorf("router %s: cost to %s must be at least 0, got %d", router, neighbor, cost)
			}
		}
	}

	return vb.Build()
}

// RouterNames returns every router named in Routers or Links, sorted.
func (f *File) RouterNames() []string {
	seen := make(map[string]bool)
	for r := range f.Routers {
		seen[r] = true
	}
	for _, link := range f.Links {
		for _, ep := range link.Endpoints {
			seen[ep] = true
		}
	}
	return sortedKeys(seen)
}

// AddRouters adds routers that are not yet present with no links
func (f *File) AddRouters(routers ...string) {
	if f.Routers == nil {
		f.Routers = make(map[string]map[string]int)
	}
	for _, r := range routers {
		if _, ok := f.Routers[r]; !ok && r != "" {
			f.Routers[r] = map[string]int{}
		}
	}
}

// Costs flattens the file into the router -> neighbor -> cost map the trie
// weights nodes with. The result shares nothing with f.
func (f *File) Costs() trie.Topology {
	topo := make(trie.Topology, len(f.Routers))
	for r, neighbors := range f.Routers {
		topo[r] = make(map[string]int, len(neighbors))
		for n, cost := range neighbors {
			topo[r][n] = cost
		}
	}
	for _, link := range f.Links {
		if len(link.Endpoints) != 2 {
			continue
		}
		a, b := link.Endpoints[0], link.Endpoints[1]
		for _, pair := range [][2]string{{a, b}, {b, a}} {
			if topo[pair[0]] == nil {
				topo[pair[0]] = map[string]int{}
			}
			topo[pair[0]][pair[1]] = link.Cost
		}
	}
	return topo
}

// Neighbors returns router's neighbors sorted by name
func (f *File) Neighbors(router string) []string {
	return sortedKeys(f.Costs()[router])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
