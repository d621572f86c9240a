package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gekko3d/ylscene"
	"github.com/gekko3d/ylscene/raster"
)

func main() {
	configFile := flag.String("config", "ylscene.toml", "Path to TOML config file")
	blockdefFile := flag.String("blockdef", "", "Block catalog document (JSON or YAML)")
	sceneFile := flag.String("scene", "", "Scene document (JSON or YAML)")
	combine := flag.Bool("combine", false, "Merge entities with the same material into batch meshes")
	noUnsupported := flag.Bool("no-unsupported", false, "Skip blocks without a mesh instead of drawing placeholder boxes")
	maxSurfaces := flag.Int("max-surfaces", 0, "Surface ceiling per batch mesh (default: 256)")
	preview := flag.String("preview", "", "Write a preview image (.png or .webp)")
	size := flag.Int("size", 0, "Preview size in pixels")
	view := flag.String("view", "", "Preview view: iso, front, top, side")
	watch := flag.Bool("watch", false, "Rebuild when the input documents change")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	cfg, err := ylscene.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "blockdef":
			cfg.Scene.BlockdefFile = *blockdefFile
		case "scene":
			cfg.Scene.SceneFile = *sceneFile
		case "combine":
			cfg.Build.CombineSimilarMaterials = *combine
		case "no-unsupported":
			cfg.Build.DrawUnsupported = !*noUnsupported
		case "max-surfaces":
			cfg.Build.MaxSurfaces = *maxSurfaces
		case "preview":
			cfg.Preview.Output = *preview
		case "size":
			cfg.Preview.Size = *size
		case "view":
			cfg.Preview.View = *view
		case "debug":
			cfg.Log.Debug = *debug
		}
	})

	log := ylscene.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)

	if cfg.Scene.BlockdefFile == "" || cfg.Scene.SceneFile == "" {
		fmt.Fprintln(os.Stderr, "Error: both a block catalog and a scene are required. Use -blockdef and -scene or the [scene] config section.")
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if *watch {
		if err := watchAndRebuild(cfg, log); err != nil {
			log.Errorf("watch: %v", err)
			os.Exit(1)
		}
	}
}

// run performs one full load, build and optional preview.
func run(cfg *ylscene.Config, log ylscene.Logger) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	assets := ylscene.DefaultAssetServer()
	if err := cfg.LoadAssets(assets); err != nil {
		return err
	}

	catalog, err := ylscene.LoadCatalogFile(cfg.Path(cfg.Scene.BlockdefFile))
	if err != nil {
		return err
	}
	scene, err := ylscene.LoadSceneFile(cfg.Path(cfg.Scene.SceneFile))
	if err != nil {
		return err
	}
	log.Infof("catalog: %d blocks, scene: %d nodes", catalog.Len(), scene.Count())

	builder := ylscene.NewBuilder(catalog, assets, opts, log)
	res, err := builder.Build(scene)
	if err != nil {
		return err
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Entities: %d, Groups: %d, Skipped: %d, Malformed: %d\n",
		res.Stats.Entities, res.Stats.Groups, res.Stats.Skipped, res.Stats.Malformed)
	fmt.Printf("Batches: %d, Surfaces: %d, Vertices: %d, Triangles: %d\n",
		res.Stats.Batches, res.Stats.Surfaces, res.Stats.Vertices, res.Stats.Triangles)
	fmt.Printf("Built in %s\n", res.Duration.Round(time.Microsecond))
	if cfg.Log.Debug {
		fmt.Print(res.Profile)
	}

	if cfg.Preview.Output == "" {
		return nil
	}
	return writePreview(cfg, res.Root, log)
}

func writePreview(cfg *ylscene.Config, root *ylscene.Node, log ylscene.Logger) error {
	ropts := raster.DefaultOptions()
	if cfg.Preview.Size > 0 {
		ropts.Size = cfg.Preview.Size
	}
	if cfg.Preview.Supersample > 0 {
		ropts.Supersample = cfg.Preview.Supersample
	}
	v, err := raster.ParseView(cfg.Preview.View)
	if err != nil {
		return err
	}
	ropts.View = v

	start := time.Now()
	img := raster.Render(root, ropts)
	out := cfg.Path(cfg.Preview.Output)
	if err := raster.WriteFile(out, img); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	log.Infof("preview written to %s in %s", out, time.Since(start))
	return nil
}

const debounce = 200 * time.Millisecond

// watchAndRebuild rebuilds whenever one of the input documents changes. The
// directories are watched rather than the files, since editors often replace
// files on save.
func watchAndRebuild(cfg *ylscene.Config, log ylscene.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := map[string]bool{}
	for _, p := range []string{cfg.Scene.BlockdefFile, cfg.Scene.SceneFile} {
		abs, err := filepath.Abs(cfg.Path(p))
		if err != nil {
			return err
		}
		targets[abs] = true
	}
	dirs := map[string]bool{}
	for p := range targets {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	log.Infof("watching %s", strings.Join(keys(targets), ", "))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-interrupt:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			abs, _ := filepath.Abs(event.Name)
			if !targets[abs] || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			log.Warnf("watch: %v", err)
		case <-fire:
			fire = nil
			if err := run(cfg, log); err != nil {
				log.Errorf("%v", err)
			}
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
