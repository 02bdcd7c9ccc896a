// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"strings"
	"testing"

	"github.com/gogpu/texsource"
)

func TestShadersCompile(t *testing.T) {
	variants := []texsource.KernelVariant{
		texsource.KernelStandard,
		texsource.KernelMultiPlaneChroma,
		texsource.KernelMultiPlaneChromaDepth,
	}
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			src, err := shaderSource(v)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(src, "fn main(") {
				t.Fatal("shader has no entry point")
			}
			code, err := compileSPIRV(src)
			if err != nil {
				msg := err.Error()
				if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") ||
					strings.Contains(msg, "lowering error") {
					t.Skipf("Skipping: naga limitation: %v", err)
				}
				t.Fatalf("compile %s: %v", v, err)
			}
			// SPIR-V magic number.
			if len(code) == 0 || code[0] != 0x07230203 {
				t.Errorf("not a SPIR-V module (len %d)", len(code))
			}
		})
	}

	if _, err := shaderSource(texsource.KernelVariant(9)); err == nil {
		t.Error("shaderSource accepted an unknown variant")
	}
}
