package backend

import (
	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/backend/software"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() (texsource.Device, error) {
		return software.New(), nil
	})
}
