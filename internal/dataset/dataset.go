package dataset

import (
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// Dataset describes one upstream dataset.
type Dataset struct {
	Name        string        // upstream dataset id
	ValueColumn string        // column carrying the value
	Resolution  time.Duration // native slot width
}

// Resolve returns the dataset serving key.
func Resolve(key model.SeriesKey) (Dataset, error) {
	unsupported := &model.UnsupportedCombinationError{ISO: key.ISO, Market: key.Market, PriceType: key.PriceType}

	switch key.ISO {
	case model.ISOERCOT:
		switch key.PriceType {
		case model.PriceTypeSPP:
			switch key.Market {
			case model.MarketDayAhead:
				return Dataset{Name: "ercot_spp_day_ahead_hourly", ValueColumn: "spp", Resolution: time.Hour}, nil
			case model.MarketRealTime:
				return Dataset{Name: "ercot_spp_real_time_15_min", ValueColumn: "spp", Resolution: 15 * time.Minute}, nil
			}
		case model.PriceTypeLMP:
			switch key.Market {
			case model.MarketRealTime:
				return Dataset{Name: "ercot_lmp_by_settlement_point", ValueColumn: "lmp", Resolution: 5 * time.Minute}, nil
			case model.MarketDayAhead:
				return Dataset{}, unsupported
			}
		case model.PriceTypeRegUp, model.PriceTypeRegDown, model.PriceTypeRRS:
			return Dataset{}, unsupported
		}
	case model.ISOCAISO:
		switch key.PriceType {
		case model.PriceTypeLMP:
			switch key.Market {
			case model.MarketDayAhead:
				return Dataset{Name: "caiso_lmp_day_ahead_hourly", ValueColumn: "lmp", Resolution: time.Hour}, nil
			case model.MarketRealTime:
				return Dataset{Name: "caiso_lmp_real_time_5_min", ValueColumn: "lmp", Resolution: 5 * time.Minute}, nil
			}
		case model.PriceTypeSPP, model.PriceTypeRegUp, model.PriceTypeRegDown, model.PriceTypeRRS:
			return Dataset{}, unsupported
		}
	}
	return Dataset{}, unsupported
}

// Supported reports whether key maps onto an upstream dataset.
func Supported(key model.SeriesKey) bool {
	_, err := Resolve(key)
	return err == nil
}
