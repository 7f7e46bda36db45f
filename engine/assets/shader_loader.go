package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ember2d/ember/engine/gfx"
)

// LoadShader reads a shader source file from the assets tree.
func LoadShader(name string) (string, error) {
	path := filepath.Join("assets", "shaders", name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load shader %q: %w", name, err)
	}
	return string(b), nil
}

// LoadPipeline reads a vertex/fragment source pair and compiles it on the
// device. For WGSL modules carrying both stages, pass the same name twice
// minus the fragment file (empty fragName skips the second read).
func LoadPipeline(dev gfx.Device, vertName, fragName string, blend bool) (gfx.PipelineID, error) {
	vs, err := LoadShader(vertName)
	if err != nil {
		return 0, err
	}
	var fs string
	if fragName != "" {
		if fs, err = LoadShader(fragName); err != nil {
			return 0, err
		}
	}
	return dev.CreatePipeline(gfx.PipelineDesc{
		VertexSource:   vs,
		FragmentSource: fs,
		Blend:          blend,
	})
}
