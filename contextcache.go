package xmlkit

import (
	"reflect"
	"sync"
)

// ContextCache caches marshalling contexts per value type.
//
// Entries live for the lifetime of the cache; there is no eviction.
// The zero value is ready to use and builds contexts with StdProvider.
type ContextCache struct {
	// Provider builds the Context for a type seen the first time.
	//
	// Default: StdProvider
	Provider ContextProvider

	contexts sync.Map // reflect.Type -> Context
}

// GetOrCreate returns the cached marshalling context of the given type,
// building it through the provider on first use.
//
// Concurrent callers racing on an unseen type may each trigger a build,
// but only the first stored context is retained,
// and every caller observes that retained instance.
// Build failures are reported as ContextUnavailable and are not cached,
// so a later call may attempt the build again.
func (c *ContextCache) GetOrCreate(t reflect.Type) (Context, error) {
	if t == nil {
		return nil, &EncodingError{Kind: ContextUnavailable, Cause: ErrNilType}
	}
	if ctx, ok := c.contexts.Load(t); ok {
		return ctx.(Context), nil
	}
	mctx, err := c.provider().ContextFor(t)
	if err != nil {
		return nil, &EncodingError{Kind: ContextUnavailable, Type: t, Cause: err}
	}
	actual, _ := c.contexts.LoadOrStore(t, mctx)
	return actual.(Context), nil
}

func (c *ContextCache) provider() ContextProvider {
	if c.Provider != nil {
		return c.Provider
	}
	return StdProvider{}
}
