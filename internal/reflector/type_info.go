// Package reflector derives stable, cached names for Go types. The names are
// used as message type labels in logs and metrics.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the name cache. Programs have a small, fixed set of
// message types, so the limit is only hit by pathological callers.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]string)
)

// NameOf returns the name of the dynamic type of x.
func NameOf(x any) string {
	return NameForType(reflect.TypeOf(x))
}

// NameFor returns the name of T.
func NameFor[T any]() string {
	return NameForType(reflect.TypeFor[T]())
}

// NameForType returns "pkg/path.TypeName" for named types and the Go syntax
// for unnamed or predeclared ones. Pointers are unwrapped once, so *T and T
// share a name.
func NameForType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	name, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return name
	}

	if t.PkgPath() != "" && t.Name() != "" {
		name = t.PkgPath() + "." + t.Name()
	} else {
		name = t.String()
	}

	muCache.Lock()
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]string)
	}
	cache[t] = name
	muCache.Unlock()

	return name
}
