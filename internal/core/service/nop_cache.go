package service

import (
	"context"
	"time"
)

// NopCache satisfies ports.Cache with no storage: every read is a miss and
// writes are discarded. Injecting it turns the product service into its
// uncached variant.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }

func (NopCache) Set(context.Context, string, any, time.Duration) error { return nil }

func (NopCache) Remove(context.Context, ...string) error { return nil }
