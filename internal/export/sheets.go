package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"

	"StockInsight/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNotConfigured means the sheet id or the service account key is missing.
var ErrNotConfigured = errors.New("sheets export not configured")

const preferredSheet = "Data"

// SheetsExporter appends one row per symbol to a Google spreadsheet.
type SheetsExporter struct {
	SheetID string
	svc     *sheets.Service
}

// NewSheetsExporter authenticates with a service-account key file. base is the HTTP
// client used underneath the token source (for proxies); nil means the default.
func NewSheetsExporter(ctx context.Context, sheetID, keyFile string, base *http.Client) (*SheetsExporter, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("%w: sheet id is empty", ErrNotConfigured)
	}
	key, err := os.ReadFile(keyFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: key file %s not found", ErrNotConfigured, keyFile)
		}
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return newSheetsExporter(ctx, sheetID, option.WithHTTPClient(conf.Client(ctx)))
}

func newSheetsExporter(ctx context.Context, sheetID string, opts ...option.ClientOption) (*SheetsExporter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{SheetID: sheetID, svc: svc}, nil
}

// Rows builds the exported rows: date, symbol, price, stance, confidence, rsi14, sma50,
// positive factors and negative factors.
func Rows(date string, records []*model.FeatureRecord, advice *model.Advice) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, f := range records {
		r, ok := advice.Lookup(f.Requested)
		stance := "-"
		var confidence interface{} = "-"
		if ok {
			if r.Stance != "" {
				stance = string(r.Stance)
			}
			if r.Confidence.Set {
				confidence = r.Confidence.Value
			} else if r.Confidence.Raw != "" {
				confidence = r.Confidence.Raw
			}
		}
		rows = append(rows, []interface{}{
			date,
			f.Requested,
			cell(f.Price),
			stance,
			confidence,
			cell(f.RSI14),
			cell(f.SMA50),
			r.PositiveFactors.Joined(),
			r.NegativeFactors.Joined(),
		})
	}
	return rows
}

// cell keeps numbers JSON-encodable; undefined values become empty cells.
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

// Export appends the rows for one run and returns how many were written.
func (s *SheetsExporter) Export(ctx context.Context, date string, records []*model.FeatureRecord, advice *model.Advice) (int, error) {
	rows := Rows(date, records, advice)
	if len(rows) == 0 {
		return 0, nil
	}
	sheet, err := s.worksheet(ctx)
	if err != nil {
		return 0, err
	}
	vr := &sheets.ValueRange{MajorDimension: "ROWS", Values: rows}
	_, err = s.svc.Spreadsheets.Values.Append(s.SheetID, fmt.Sprintf("'%s'!A1", sheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append rows: %w", err)
	}
	return len(rows), nil
}

// worksheet returns "Data" when the spreadsheet has it, else the first sheet.
func (s *SheetsExporter) worksheet(ctx context.Context) (string, error) {
	meta, err := s.svc.Spreadsheets.Get(s.SheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("load spreadsheet: %w", err)
	}
	var first string
	for _, sh := range meta.Sheets {
		if sh.Properties == nil {
			continue
		}
		if sh.Properties.Title == preferredSheet {
			return preferredSheet, nil
		}
		if first == "" {
			first = sh.Properties.Title
		}
	}
	if first == "" {
		return "", errors.New("spreadsheet has no sheets")
	}
	return first, nil
}
