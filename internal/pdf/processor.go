package pdf

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docfactory/internal/fileutil"
	"docfactory/internal/logging"
	"docfactory/internal/services"
)

// Info describes a PDF document's basic shape.
type Info struct {
	PageCount int
}

// Processor performs the local PDF operations: page counting, page image
// extraction, blank page removal, and per-page splitting.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor returns a Processor that logs through the given logger.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{logger: logging.NewComponentLogger(logger, "pdf")}
}

// Inspect reads basic metadata from the PDF at path.
func (p *Processor) Inspect(path string) (Info, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrFile, "metadata_read", "inspect", fmt.Sprintf("read page count of %s", filepath.Base(path)), err)
	}
	return Info{PageCount: pageCount}, nil
}

// CopyOriginal copies the source file byte for byte into destPath, creating
// parent directories as needed. The source stays untouched.
func (p *Processor) CopyOriginal(sourcePath, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return services.Wrap(services.ErrFile, "original_copied", "copy_original", "create originals directory", err)
	}

	if err := fileutil.CopyFileAtomic(sourcePath, destPath); err != nil {
		return services.Wrap(services.ErrFile, "original_copied", "copy_original", fmt.Sprintf("copy %s", filepath.Base(sourcePath)), err)
	}
	return nil
}

var extractedPagePattern = regexp.MustCompile(`_(\d+)_[^_]+\.\w+$`)

// PageImages extracts the embedded page images of a scanned PDF in page
// order. Scanned documents carry one raster image per page, which is what
// fingerprinting and blank detection operate on.
func (p *Processor) PageImages(path string) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "docfactory-pages-*")
	if err != nil {
		return nil, services.Wrap(services.ErrFile, "fingerprinted", "page_images", "create temp directory", err)
	}
	defer os.RemoveAll(tempDir)

	if err := api.ExtractImagesFile(path, tempDir, nil, nil); err != nil {
		return nil, services.Wrap(services.ErrProcessing, "fingerprinted", "page_images", fmt.Sprintf("extract page images from %s", filepath.Base(path)), err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, services.Wrap(services.ErrFile, "fingerprinted", "page_images", "list extracted images", err)
	}

	type pageFile struct {
		page int
		path string
	}
	var files []pageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := extractedPagePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		page, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		files = append(files, pageFile{page: page, path: filepath.Join(tempDir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })

	images := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := imaging.Open(file.path)
		if err != nil {
			return nil, services.Wrap(services.ErrProcessing, "fingerprinted", "page_images", fmt.Sprintf("decode page %d image", file.page), err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrProcessing, "fingerprinted", "page_images", fmt.Sprintf("no page images in %s", filepath.Base(path)), nil)
	}
	return images, nil
}

// FirstPageImage extracts only the first page's image, used for
// fingerprinting.
func (p *Processor) FirstPageImage(path string) (image.Image, error) {
	images, err := p.PageImages(path)
	if err != nil {
		return nil, err
	}
	return images[0], nil
}

// RemoveBlankPages writes a copy of the PDF at outPath with blank pages
// dropped and reports how many were removed. A page is blank when its ink
// coverage falls strictly below threshold; pages exactly at the threshold
// are retained. When every page would be dropped, or nothing is blank, the
// document is copied unchanged.
func (p *Processor) RemoveBlankPages(path, outPath string, threshold float64) (int, error) {
	images, err := p.PageImages(path)
	if err != nil {
		return 0, err
	}

	var retained []int
	for i, img := range images {
		if IsBlank(img, threshold) {
			continue
		}
		retained = append(retained, i+1)
	}

	if len(retained) == len(images) || len(retained) == 0 {
		if len(retained) == 0 {
			p.logger.Warn("all pages look blank, keeping document unchanged",
				logging.String(logging.FieldSourceFile, filepath.Base(path)))
		}
		return 0, p.CopyOriginal(path, outPath)
	}

	if err := api.TrimFile(path, outPath, pageSelection(retained), nil); err != nil {
		return 0, services.Wrap(services.ErrProcessing, "blank_pages_removed", "remove_blank_pages", fmt.Sprintf("trim blank pages from %s", filepath.Base(path)), err)
	}

	removed := len(images) - len(retained)
	p.logger.Info("removed blank pages",
		logging.String(logging.FieldSourceFile, filepath.Base(path)),
		logging.Int("removed", removed),
		logging.Int("retained", len(retained)))
	return removed, nil
}

// Split writes one single-page PDF per page of the source into outDir and
// returns the generated file paths in page order.
func (p *Processor) Split(path, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrFile, "split", "split", "create split directory", err)
	}
	if err := api.SplitFile(path, outDir, 1, nil); err != nil {
		return nil, services.Wrap(services.ErrProcessing, "split", "split", fmt.Sprintf("split %s into pages", filepath.Base(path)), err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, services.Wrap(services.ErrFile, "split", "split", "list split pages", err)
	}
	var pages []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		pages = append(pages, filepath.Join(outDir, entry.Name()))
	}
	sortPagesByNumber(pages)
	return pages, nil
}

var splitPagePattern = regexp.MustCompile(`_(\d+)\.[^.]+$`)

// sortPagesByNumber orders split page files by the page number embedded in
// the filename. Lexicographic order would put page 10 before page 2.
func sortPagesByNumber(pages []string) {
	number := func(path string) int {
		match := splitPagePattern.FindStringSubmatch(filepath.Base(path))
		if match == nil {
			return 0
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return 0
		}
		return n
	}
	sort.Slice(pages, func(i, j int) bool {
		ni, nj := number(pages[i]), number(pages[j])
		if ni != nj {
			return ni < nj
		}
		return pages[i] < pages[j]
	})
}

// pageSelection renders retained page numbers in pdfcpu's selection syntax,
// collapsing runs into ranges.
func pageSelection(pages []int) []string {
	var out []string
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		if i == j {
			out = append(out, strconv.Itoa(pages[i]))
		} else {
			out = append(out, fmt.Sprintf("%d-%d", pages[i], pages[j]))
		}
		i = j + 1
	}
	return out
}
