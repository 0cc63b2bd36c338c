// Command glfxdemo runs synthetic frames through an offscreen filter
// chain and reports per-frame results, optionally saving the last frame.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/glfx"
	"github.com/gogpu/glfx/gpu/gputest"
	"github.com/gogpu/glfx/interop"
)

func main() {
	var (
		width   = flag.Int("width", 640, "source frame width")
		height  = flag.Int("height", 480, "source frame height")
		filters = flag.String("filters", "identity:invert", "filter chain spec")
		frames  = flag.Int("frames", 30, "number of frames to run")
		output  = flag.String("output", "", "save the last frame as PNG")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		glfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	r, err := glfx.Open(glfx.Config{
		Width:   *width,
		Height:  *height,
		Filters: *filters,
		Device:  gputest.New(),
	})
	if err != nil {
		log.Fatalf("open pipeline: %v", err)
	}
	defer r.Close()

	out := r.OutputSize()
	log.Printf("pipeline %q: %dx%d -> %dx%d", *filters, *width, *height, out.Width, out.Height)

	var last *glfx.Image
	start := time.Now()
	for i := 0; i < *frames; i++ {
		im, err := r.Filter(syntheticFrame(*width, *height, i))
		if err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		if last != nil {
			last.Release()
		}
		last = im
	}
	elapsed := time.Since(start)
	log.Printf("%d frames in %v (%.1f fps)", *frames, elapsed,
		float64(*frames)/elapsed.Seconds())

	if last != nil {
		if *output != "" {
			if err := savePNG(*output, last); err != nil {
				log.Fatalf("save %s: %v", *output, err)
			}
			log.Printf("last frame saved to %s", *output)
		}
		last.Release()
	}
}

// syntheticFrame builds a moving color gradient for frame n.
func syntheticFrame(w, h, n int) *interop.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + n*4) * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8(n * 8),
				A: 255,
			})
		}
	}
	return interop.FromImage(img, w, h)
}

func savePNG(path string, im *glfx.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, im.ToRGBA())
}
