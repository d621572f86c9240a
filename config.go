package ylscene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Options configures a scene build.
type Options struct {
	// DrawUnsupported synthesizes translucent boxes for blocks no lookup
	// table knows.
	DrawUnsupported         bool
	UnsupportedTransparency float32
	// CombineSimilarMaterials merges entities sharing a material signature
	// into batch meshes instead of attaching them one by one.
	CombineSimilarMaterials bool
	MaxSurfaces             int
	LookupOrder             []LookupKind
	StdUnit                 float32
	NormalMode              NormalMode
	// CommitPerGroup commits the batch whenever a top-level group has been
	// walked, giving one batch set per group.
	CommitPerGroup bool
}

func DefaultOptions() Options {
	return Options{
		DrawUnsupported:         true,
		UnsupportedTransparency: 0.5,
		CombineSimilarMaterials: false,
		MaxSurfaces:             DefaultMaxSurfaces,
		LookupOrder:             DefaultLookupOrder,
		StdUnit:                 StdUnit,
		NormalMode:              NormalsInverseTranspose,
	}
}

func (o Options) resolverOptions() ResolverOptions {
	return ResolverOptions{
		Order:                   o.LookupOrder,
		DrawUnsupported:         o.DrawUnsupported,
		UnsupportedTransparency: o.UnsupportedTransparency,
		StdUnit:                 o.StdUnit,
	}
}

// Config is the on-disk TOML configuration.
type Config struct {
	Scene   SceneConfig   `toml:"scene"`
	Build   BuildConfig   `toml:"build"`
	Assets  AssetsConfig  `toml:"assets"`
	Preview PreviewConfig `toml:"preview"`
	Log     LogConfig     `toml:"log"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

type SceneConfig struct {
	BlockdefFile string `toml:"blockdef_file"`
	SceneFile    string `toml:"scene_file"`
}

type BuildConfig struct {
	DrawUnsupported         bool     `toml:"draw_unsupported"`
	UnsupportedTransparency float32  `toml:"unsupported_transparency"`
	CombineSimilarMaterials bool     `toml:"combine_similar_materials"`
	MaxSurfaces             int      `toml:"max_surfaces"`
	LookupOrder             []string `toml:"lookup_order"`
	StdUnit                 float32  `toml:"std_unit"`
	LegacyNormals           bool     `toml:"legacy_normals"`
	CommitPerGroup          bool     `toml:"commit_per_group"`
}

// AssetsConfig maps lookup keys to OBJ files.
type AssetsConfig struct {
	ID    map[string]string `toml:"id"`
	Type  map[string]string `toml:"type"`
	Shape map[string]string `toml:"shape"`
}

type PreviewConfig struct {
	Output      string `toml:"output"`
	Size        int    `toml:"size"`
	Supersample int    `toml:"supersample"`
	View        string `toml:"view"`
}

type LogConfig struct {
	Prefix string `toml:"prefix"`
	Debug  bool   `toml:"debug"`
}

func DefaultConfig() *Config {
	opts := DefaultOptions()
	return &Config{
		Build: BuildConfig{
			DrawUnsupported:         opts.DrawUnsupported,
			UnsupportedTransparency: opts.UnsupportedTransparency,
			CombineSimilarMaterials: opts.CombineSimilarMaterials,
			MaxSurfaces:             opts.MaxSurfaces,
			LookupOrder:             []string{"id", "type", "shape"},
			StdUnit:                 opts.StdUnit,
		},
		Preview: PreviewConfig{
			Size:        512,
			Supersample: 2,
			View:        "iso",
		},
		Log: LogConfig{Prefix: "ylscene"},
	}
}

// LoadConfig reads a TOML config on top of DefaultConfig. A missing file is
// not an error: the defaults are returned.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.dir = filepath.Dir(filename)
	return cfg, nil
}

// Path resolves p against the config file's directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Options converts the build section into build options.
func (c *Config) Options() (Options, error) {
	opts := DefaultOptions()
	b := c.Build
	opts.DrawUnsupported = b.DrawUnsupported
	opts.UnsupportedTransparency = clamp01(b.UnsupportedTransparency)
	opts.CombineSimilarMaterials = b.CombineSimilarMaterials
	opts.CommitPerGroup = b.CommitPerGroup
	if b.MaxSurfaces > 0 {
		opts.MaxSurfaces = b.MaxSurfaces
	}
	if b.StdUnit > 0 {
		opts.StdUnit = b.StdUnit
	}
	if b.LegacyNormals {
		opts.NormalMode = NormalsRotateOnly
	}
	if len(b.LookupOrder) > 0 {
		order := make([]LookupKind, 0, len(b.LookupOrder))
		for _, s := range b.LookupOrder {
			k, err := ParseLookupKind(s)
			if err != nil {
				return opts, fmt.Errorf("build.lookup_order: %w", err)
			}
			order = append(order, k)
		}
		opts.LookupOrder = order
	}
	return opts, nil
}

// LoadAssets registers the OBJ meshes listed in the assets section.
func (c *Config) LoadAssets(server *AssetServer) error {
	tables := []struct {
		kind  LookupKind
		files map[string]string
	}{
		{LookupID, c.Assets.ID},
		{LookupType, c.Assets.Type},
		{LookupShape, c.Assets.Shape},
	}
	for _, t := range tables {
		for key, file := range t.files {
			id, err := server.LoadOBJMesh(c.Path(file), nil)
			if err != nil {
				return fmt.Errorf("assets.%s %q: %w", t.kind, key, err)
			}
			server.Register(t.kind, strings.TrimSpace(key), id)
		}
	}
	return nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
