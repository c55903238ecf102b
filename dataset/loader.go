// Package dataset reads the deal table and applies the cleaning policy:
// text is normalized, dates parse permissively, and rows without a usable
// deal amount or sales-cycle length are dropped.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"salesintel/logger"
	"salesintel/models"
	"salesintel/utils"
)

// Required input columns.
const (
	ColCreatedDate    = "created_date"
	ColClosedDate     = "closed_date"
	ColOutcome        = "outcome"
	ColDealAmount     = "deal_amount"
	ColSalesCycleDays = "sales_cycle_days"
	ColLeadSource     = "lead_source"

	colDealID = "deal_id"
)

var requiredColumns = []string{
	ColCreatedDate, ColClosedDate, ColOutcome, ColDealAmount, ColSalesCycleDays, ColLeadSource,
}

// Stats describes what a parse kept and discarded.
type Stats struct {
	RowsRead    int `json:"rows_read"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
}

// Loader opens a source and parses it into deals.
type Loader struct {
	opener Opener
	log    *logger.Entry
}

// NewLoader returns a Loader reading through opener.
func NewLoader(opener Opener) *Loader {
	return &Loader{
		opener: opener,
		log:    logger.GetLogger().WithComponent("dataset"),
	}
}

// Load reads and cleans the deals stored at source.
func (l *Loader) Load(ctx context.Context, source string) ([]models.Deal, error) {
	rc, err := l.opener.Open(ctx, source)
	if err != nil {
		l.log.WithError(err).WithFields(logger.Fields{"source": source}).Error("cannot open data source")
		return nil, err
	}
	defer rc.Close()

	deals, stats, err := Parse(rc)
	if err != nil {
		l.log.WithError(err).WithFields(logger.Fields{"source": source}).Error("cannot parse data source")
		return nil, err
	}

	l.log.WithFields(logger.Fields{
		"source":       source,
		"rows_read":    stats.RowsRead,
		"rows_kept":    stats.RowsKept,
		"rows_dropped": stats.RowsDropped,
	}).Info("dataset loaded")
	return deals, nil
}

// Parse reads a header-first CSV table. Header names are matched
// case-insensitively; unknown columns are ignored.
func Parse(r io.Reader) ([]models.Deal, Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, models.ErrEmptyDataset
		}
		return nil, stats, fmt.Errorf("%w: read header: %v", models.ErrSourceUnavailable, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = utils.NormalizeLabel(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, fmt.Errorf("%w: %s", models.ErrInvalidSchema, strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	deals := make([]models.Deal, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: row %d: %v", models.ErrSourceUnavailable, stats.RowsRead+1, err)
		}
		stats.RowsRead++

		amount, ok := utils.ParseAmount(field(row, ColDealAmount))
		if !ok {
			stats.RowsDropped++
			continue
		}
		cycle, ok := utils.ParseCycleDays(field(row, ColSalesCycleDays))
		if !ok {
			stats.RowsDropped++
			continue
		}

		id := strings.TrimSpace(field(row, colDealID))
		if id == "" {
			id = "row-" + strconv.Itoa(stats.RowsRead)
		}

		deals = append(deals, models.Deal{
			ID:             id,
			CreatedDate:    utils.ParseDate(field(row, ColCreatedDate)),
			ClosedDate:     utils.ParseDate(field(row, ColClosedDate)),
			Outcome:        utils.NormalizeLabel(field(row, ColOutcome)),
			DealAmount:     amount,
			SalesCycleDays: cycle,
			LeadSource:     strings.TrimSpace(field(row, ColLeadSource)),
		})
	}

	stats.RowsKept = len(deals)
	if len(deals) == 0 {
		return nil, stats, models.ErrEmptyDataset
	}
	return deals, stats, nil
}
