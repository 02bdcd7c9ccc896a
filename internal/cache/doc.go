// Package cache provides a keyed cache of device resources.
//
// Cache[K, V] creates each value at most once, under its lock, and hands
// drained values back to the caller so they can be released:
//
//	c := cache.New[KernelVariant, Kernel](func(_ KernelVariant, k Kernel) { k.Release() })
//	k, err := c.GetOrCreate(v, func() (Kernel, error) { return dev.LoadKernel(v) })
//	...
//	c.Drain()
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
