package model

import "github.com/shopspring/decimal"

// PricePoint is the close time (Unix ms) and close price of one bar.
type PricePoint struct {
	CloseTime int64
	Close     decimal.Decimal
}

// ChangeEvent is a consecutive-bar close move whose magnitude exceeded the threshold.
type ChangeEvent struct {
	Magnitude float64         // |Percent|, always >= 0
	Percent   decimal.Decimal // (prev - cur) / prev * 100
	Previous  Record
	Current   Record
	From      PricePoint
	To        PricePoint
}
