package texsource

import (
	"fmt"
	"sync"

	"github.com/gogpu/texsource/internal/cache"
)

// KernelCache loads each kernel variant at most once per device and keeps
// it until Close. Transformers sharing a device share its kernels.
type KernelCache struct {
	device  Device
	kernels *cache.Cache[KernelVariant, Kernel]

	mu     sync.Mutex
	closed bool
}

// NewKernelCache creates an empty cache for device.
func NewKernelCache(device Device) *KernelCache {
	return &KernelCache{
		device: device,
		kernels: cache.New[KernelVariant, Kernel](func(_ KernelVariant, k Kernel) {
			k.Release()
		}),
	}
}

// Device returns the device the kernels are loaded on.
func (c *KernelCache) Device() Device {
	return c.device
}

// Kernel returns the kernel for variant, loading it on first use.
func (c *KernelCache) Kernel(variant KernelVariant) (Kernel, error) {
	if c == nil || c.device == nil {
		return nil, fmt.Errorf("%w: no device", ErrConfiguration)
	}
	if !variant.IsValid() {
		return nil, fmt.Errorf("%w: unknown kernel variant %d", ErrConfiguration, uint8(variant))
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: kernel cache closed", ErrLifetime)
	}

	k, err := c.kernels.GetOrCreate(variant, func() (Kernel, error) {
		k, err := c.device.LoadKernel(variant)
		if err != nil {
			return nil, err
		}
		Logger().Debug("texsource: kernel loaded", "kernel", variant.String(), "device", c.device.Name())
		return k, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load kernel %s: %v", ErrConfiguration, variant, err)
	}
	return k, nil
}

// Preload loads the given variants ahead of the first dispatch.
func (c *KernelCache) Preload(variants ...KernelVariant) error {
	for _, v := range variants {
		if _, err := c.Kernel(v); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of loaded kernels.
func (c *KernelCache) Len() int {
	return c.kernels.Len()
}

// Close releases every loaded kernel. Further loads fail with ErrLifetime.
func (c *KernelCache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	st := c.kernels.Stats()
	Logger().Debug("texsource: kernel cache closed",
		"device", c.device.Name(),
		"kernels", st.Len,
		"hits", st.Hits,
		"misses", st.Misses,
		"hit_rate", st.HitRate,
	)
	c.kernels.Drain()
}
