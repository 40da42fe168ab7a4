package tracker

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	seedIDHeaders    = []string{"arena_id", "grpid", "grp_id", "titleid", "title_id", "mtgaid", "cardid", "id"}
	seedCountHeaders = []string{"quantity", "qty", "count", "owned"}
)

// readSeedCSV reads a card-id/quantity CSV with tolerant header naming.
// Duplicate ids keep the last row, mirroring snapshot semantics.
func readSeedCSV(path string) (map[int]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("seed file %s is empty", path)
	}

	idCol := findColumn(records[0], seedIDHeaders)
	countCol := findColumn(records[0], seedCountHeaders)
	if idCol < 0 || countCol < 0 {
		return nil, fmt.Errorf("seed file %s has no recognizable id/quantity header", path)
	}

	cards := make(map[int]int)
	for _, record := range records[1:] {
		if idCol >= len(record) || countCol >= len(record) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(record[idCol]))
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(record[countCol]))
		if err != nil || count < 0 {
			continue
		}
		cards[id] = count
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("seed file %s contains no usable rows", path)
	}
	return cards, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), name) {
				return i
			}
		}
	}
	return -1
}
