package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// csvHeader is the fixed column layout of the ranking export.
var csvHeader = []string{"rank", "id", "name", "rating", "wins", "losses", "draws", "matches", "path"}

// ExportRanking writes the given items as CSV in the order provided,
// one row per item preceded by a header row. Ratings are rounded to
// two decimals; the caller supplies items already ranked.
func ExportRanking(w io.Writer, ranked []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, item := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.DisplayName,
			strconv.FormatFloat(item.Rating, 'f', 2, 64),
			strconv.Itoa(item.Wins),
			strconv.Itoa(item.Losses),
			strconv.Itoa(item.Draws),
			strconv.Itoa(item.Matches),
			item.SourceRef,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
