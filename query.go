package custody

import (
	"fmt"
)

// Query modifiers, taken from the part of the ABCI query path after "?".
// An empty modifier looks up the exact key.
const (
	KeyQueryMod    = ""
	PrefixQueryMod = "prefix"
)

// Model is a stored key and its value.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler answers ABCI queries for one path, such as "/vaults".
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister mounts the query handlers of one extension.
type QueryRegister func(QueryRouter)

// QueryRouter maps query paths to handlers, much like http.ServeMux but
// without pattern matching.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

// RegisterAll runs every register function against the router.
func (r QueryRouter) RegisterAll(registers ...QueryRegister) {
	for _, register := range registers {
		register(r)
	}
}

// Register panics when path is already taken.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, taken := r.routes[path]; taken {
		panic(fmt.Sprintf("query path %q registered twice", path))
	}
	r.routes[path] = h
}

// Handler returns nil for an unknown path.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}
