package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/harvest/models"
)

// listSeparator joins multi-valued fields into one CSV cell.
const listSeparator = " | "

var header = []string{
	"task_id",
	"client_name",
	"category",
	"title",
	"price",
	"raw_price",
	"images",
	"colors",
	"sizes",
	"about_this_item",
	"product_url",
	"related_links",
	"scraped_at",
}

// CSV appends finished products to a local CSV file. It is a secondary
// sink: callers log append failures but never fail the task over them.
type CSV struct {
	mu   sync.Mutex
	path string
}

// NewCSV creates the sink. The file itself is created lazily on the first
// append, with the header written only when the file is new.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Append writes one product row, creating the file and header if needed.
func (c *CSV) Append(p *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	writeHeader := false
	if info, err := os.Stat(c.path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("export: open csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("export: write csv header: %w", err)
		}
	}
	if err := w.Write(row(p)); err != nil {
		return fmt.Errorf("export: write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}

func row(p *models.Product) []string {
	return []string{
		p.TaskID,
		p.ClientName,
		p.Category,
		p.Title,
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		p.RawPrice,
		strings.Join(p.Images, listSeparator),
		strings.Join(p.Colors, listSeparator),
		strings.Join(p.Sizes, listSeparator),
		strings.Join(p.AboutThisItem, listSeparator),
		p.ProductURL,
		strings.Join(p.RelatedLinks, listSeparator),
		p.ScrapedAt.UTC().Format(time.RFC3339),
	}
}
