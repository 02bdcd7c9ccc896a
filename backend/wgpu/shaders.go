// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/texsource"
)

//go:embed shaders/common.wgsl
var commonShaderWGSL string

//go:embed shaders/standard.wgsl
var standardShaderWGSL string

//go:embed shaders/ycbcr.wgsl
var ycbcrShaderWGSL string

//go:embed shaders/ycbcr_depth.wgsl
var ycbcrDepthShaderWGSL string

// shaderSource returns the complete WGSL module of variant.
func shaderSource(variant texsource.KernelVariant) (string, error) {
	var main string
	switch variant {
	case texsource.KernelStandard:
		main = standardShaderWGSL
	case texsource.KernelMultiPlaneChroma:
		main = ycbcrShaderWGSL
	case texsource.KernelMultiPlaneChromaDepth:
		main = ycbcrDepthShaderWGSL
	default:
		return "", fmt.Errorf("wgpu: no shader for %v", variant)
	}
	return commonShaderWGSL + "\n" + main, nil
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}
