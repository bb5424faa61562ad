package marketplace

import (
	"errors"
	"strings"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	csvimport "github.com/erp/resale/internal/infrastructure/import"
)

// Order CSV columns
const (
	ColChannel          = "channel"
	ColExternalOrderID  = "external_order_id"
	ColOrderDate        = "order_date"
	ColSKU              = "sku"
	ColSaleGrossEUR     = "sale_gross_eur"
	ColShippingGrossEUR = "shipping_gross_eur"
	ColTitle            = "title"
	ColBuyerName        = "buyer_name"
	ColBuyerAddress     = "buyer_address"
)

// OrderCSVHeader lists the columns every order CSV must have
var OrderCSVHeader = []string{
	ColChannel, ColExternalOrderID, ColOrderDate, ColSKU, ColSaleGrossEUR, ColShippingGrossEUR,
}

// DefaultMaxImportErrors caps how many row errors an import reports
const DefaultMaxImportErrors = 500

// RowParserConfig configures CSV row parsing
type RowParserConfig struct {
	UnknownChannelPolicy marketplace.UnknownChannelPolicy
	MaxErrors            int
	MaxFileSize          int64
}

// OrderRowsResult is the outcome of parsing an order CSV
type OrderRowsResult struct {
	TotalRows       int
	ValidRows       []marketplace.OrderRow
	Errors          []ImportRowError
	FailedCount     int
	ErrorsTruncated bool
	Delimiter       rune
}

// OrderRowParser turns order CSV text into validated order rows
type OrderRowParser struct {
	cfg RowParserConfig
}

// NewOrderRowParser creates a new OrderRowParser
func NewOrderRowParser(cfg RowParserConfig) *OrderRowParser {
	return &OrderRowParser{cfg: normalizeRowParserConfig(cfg)}
}

func normalizeRowParserConfig(cfg RowParserConfig) RowParserConfig {
	if !cfg.UnknownChannelPolicy.IsValid() {
		cfg.UnknownChannelPolicy = marketplace.UnknownChannelReject
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxImportErrors
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = csvimport.DefaultMaxFileSize
	}
	return cfg
}

// ValidationRules returns the per-row rules of the order CSV
func (p *OrderRowParser) ValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(ColChannel).Required().Custom(channelRule(p.cfg.UnknownChannelPolicy)).Build(),
		csvimport.Field(ColExternalOrderID).Required().MaxLength(100).Build(),
		csvimport.Field(ColOrderDate).Required().Date().Build(),
		csvimport.Field(ColSKU).Required().MaxLength(100).Build(),
		csvimport.Field(ColSaleGrossEUR).Required().Money().NonNegative().Build(),
		csvimport.Field(ColShippingGrossEUR).Money().NonNegative().Build(),
		csvimport.Field(ColTitle).MaxLength(500).Build(),
		csvimport.Field(ColBuyerName).MaxLength(200).Build(),
		csvimport.Field(ColBuyerAddress).MaxLength(500).Build(),
	}
}

func channelRule(policy marketplace.UnknownChannelPolicy) func(string) error {
	return func(value string) error {
		_, err := marketplace.ParseChannel(value, policy)
		return err
	}
}

// Parse reads the whole CSV. File level problems (empty input, missing
// columns, bad delimiter) fail the call; row level problems are collected
// and the row is skipped.
func (p *OrderRowParser) Parse(text, delimiter string) (*OrderRowsResult, error) {
	parser, err := openCSV(text, delimiter, OrderCSVHeader, p.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	rows, malformed := parser.ReadAllRows()
	validator := csvimport.NewFieldValidator(p.ValidationRules())
	errs := csvimport.NewCapped[ImportRowError](p.cfg.MaxErrors)
	for _, e := range malformed {
		errs.Add(ImportRowError{RowNumber: e.Row, Message: e.Message})
	}

	result := &OrderRowsResult{
		TotalRows: parser.TotalRows(),
		ValidRows: make([]marketplace.OrderRow, 0, len(rows)),
		Delimiter: parser.Delimiter(),
	}

	for _, row := range rows {
		if rowErrors := validator.ValidateRow(row); len(rowErrors) > 0 {
			errs.Add(ImportRowError{
				RowNumber:       row.LineNumber,
				Message:         csvimport.JoinDetails(rowErrors),
				ExternalOrderID: row.Get(ColExternalOrderID),
				SKU:             row.Get(ColSKU),
			})
			continue
		}
		result.ValidRows = append(result.ValidRows, p.toOrderRow(row))
	}

	result.Errors = errs.Items()
	result.FailedCount = errs.Total()
	result.ErrorsTruncated = errs.Truncated()
	return result, nil
}

// toOrderRow converts a row that passed validation
func (p *OrderRowParser) toOrderRow(row *csvimport.Row) marketplace.OrderRow {
	channel, _ := marketplace.ParseChannel(row.Get(ColChannel), p.cfg.UnknownChannelPolicy)
	orderDate, _ := csvimport.ParseDate(row.Get(ColOrderDate))
	sale, _ := csvimport.ParseCents(row.Get(ColSaleGrossEUR))
	var shipping int64
	if v := row.Get(ColShippingGrossEUR); v != "" {
		shipping, _ = csvimport.ParseCents(v)
	}

	sku := strings.TrimSpace(row.Get(ColSKU))
	if upper := strings.ToUpper(sku); inventory.IsItemCode(upper) {
		sku = upper
	}

	return marketplace.OrderRow{
		RowNumber:          row.LineNumber,
		Channel:            channel,
		ExternalOrderID:    strings.TrimSpace(row.Get(ColExternalOrderID)),
		OrderDate:          orderDate,
		SKU:                sku,
		Title:              row.Get(ColTitle),
		BuyerName:          row.Get(ColBuyerName),
		BuyerAddress:       row.Get(ColBuyerAddress),
		SaleGrossCents:     sale,
		ShippingGrossCents: shipping,
	}
}

// openCSV creates a parser and checks the header
func openCSV(text, delimiter string, required []string, maxFileSize int64) (*csvimport.CSVParser, error) {
	d, err := csvimport.ParseDelimiter(delimiter)
	if err != nil {
		return nil, csvError(err)
	}

	parser, err := csvimport.ParseFromString(text,
		csvimport.WithDelimiter(d),
		csvimport.WithMaxFileSize(maxFileSize),
	)
	if err != nil {
		return nil, csvError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, csvError(err)
	}
	if missing := parser.ValidateHeaders(required); len(missing) > 0 {
		return nil, csvError(&csvimport.MissingHeadersError{Missing: missing})
	}
	return parser, nil
}

// csvError converts a file level CSV error to a domain error carrying the import code
func csvError(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewDomainError(csvimport.ErrorCode(err), err.Error())
}
