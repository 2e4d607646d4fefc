package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

// downloadTimeout bounds a single binary download.
const downloadTimeout = 10 * time.Minute

// Fetcher streams release binaries to disk, rendering a progress bar
// while the transfer runs. A nil progress writer disables rendering.
type Fetcher struct {
	client   *http.Client
	progress io.Writer
}

// NewFetcher creates a fetcher that renders download progress to w.
func NewFetcher(w io.Writer) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: downloadTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		progress: w,
	}
}

// Fetch downloads url to outputPath in a single attempt. The parent
// directory is created if needed. On any failure a partially written
// output file is removed before returning.
func (f *Fetcher) Fetch(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outputPath, err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	bar := f.newBar(resp.ContentLength, filepath.Base(outputPath))
	_, copyErr := io.Copy(io.MultiWriter(out, bar), resp.Body)
	bar.Close()

	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(outputPath)
		return fmt.Errorf("downloading %s: %w", url, copyErr)
	}
	if closeErr != nil {
		os.Remove(outputPath)
		return fmt.Errorf("closing %s: %w", outputPath, closeErr)
	}

	return nil
}

// newBar builds a byte-counting progress bar for one transfer. With no
// progress writer configured the bar still counts but renders nowhere.
func (f *Fetcher) newBar(total int64, desc string) *pb.ProgressBar {
	w := f.progress
	if w == nil {
		w = io.Discard
	}

	bar := pb.NewOptions64(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowBytes(true),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		pb.OptionSpinnerType(14),
	)
	bar.RenderBlank()
	return bar
}
