package marketplace

import (
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/marketplace"
	csvimport "github.com/erp/resale/internal/infrastructure/import"
)

// Payout CSV columns
const (
	ColExternalPayoutID = "external_payout_id"
	ColPayoutDate       = "payout_date"
	ColNetAmountEUR     = "net_amount_eur"
)

// PayoutCSVHeader lists the columns every payout CSV must have
var PayoutCSVHeader = []string{ColChannel, ColExternalPayoutID, ColPayoutDate, ColNetAmountEUR}

// PayoutRow is one validated line of a payout CSV
type PayoutRow struct {
	RowNumber        int
	Channel          marketplace.Channel
	ExternalPayoutID string
	PayoutDate       time.Time
	NetAmountCents   int64
}

// PayoutRowsResult is the outcome of parsing a payout CSV
type PayoutRowsResult struct {
	TotalRows       int
	ValidRows       []PayoutRow
	Errors          []ImportRowError
	FailedCount     int
	ErrorsTruncated bool
}

// PayoutRowParser turns payout CSV text into validated payout rows
type PayoutRowParser struct {
	cfg RowParserConfig
}

// NewPayoutRowParser creates a new PayoutRowParser
func NewPayoutRowParser(cfg RowParserConfig) *PayoutRowParser {
	return &PayoutRowParser{cfg: normalizeRowParserConfig(cfg)}
}

// ValidationRules returns the per-row rules of the payout CSV.
// Net amounts may be negative.
func (p *PayoutRowParser) ValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(ColChannel).Required().Custom(channelRule(p.cfg.UnknownChannelPolicy)).Build(),
		csvimport.Field(ColExternalPayoutID).Required().MaxLength(100).Build(),
		csvimport.Field(ColPayoutDate).Required().Date().Build(),
		csvimport.Field(ColNetAmountEUR).Required().Money().Build(),
	}
}

// Parse reads the whole payout CSV, collecting row errors
func (p *PayoutRowParser) Parse(text, delimiter string) (*PayoutRowsResult, error) {
	parser, err := openCSV(text, delimiter, PayoutCSVHeader, p.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	rows, malformed := parser.ReadAllRows()
	validator := csvimport.NewFieldValidator(p.ValidationRules())
	errs := csvimport.NewCapped[ImportRowError](p.cfg.MaxErrors)
	for _, e := range malformed {
		errs.Add(ImportRowError{RowNumber: e.Row, Message: e.Message})
	}

	result := &PayoutRowsResult{
		TotalRows: parser.TotalRows(),
		ValidRows: make([]PayoutRow, 0, len(rows)),
	}

	for _, row := range rows {
		if rowErrors := validator.ValidateRow(row); len(rowErrors) > 0 {
			errs.Add(ImportRowError{
				RowNumber:        row.LineNumber,
				Message:          csvimport.JoinDetails(rowErrors),
				ExternalPayoutID: row.Get(ColExternalPayoutID),
			})
			continue
		}

		channel, _ := marketplace.ParseChannel(row.Get(ColChannel), p.cfg.UnknownChannelPolicy)
		payoutDate, _ := csvimport.ParseDate(row.Get(ColPayoutDate))
		net, _ := csvimport.ParseCents(row.Get(ColNetAmountEUR))
		result.ValidRows = append(result.ValidRows, PayoutRow{
			RowNumber:        row.LineNumber,
			Channel:          channel,
			ExternalPayoutID: strings.TrimSpace(row.Get(ColExternalPayoutID)),
			PayoutDate:       payoutDate,
			NetAmountCents:   net,
		})
	}

	result.Errors = errs.Items()
	result.FailedCount = errs.Total()
	result.ErrorsTruncated = errs.Truncated()
	return result, nil
}
