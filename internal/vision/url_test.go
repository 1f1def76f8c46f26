package vision

import (
	"path/filepath"
	"testing"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
	"github.com/TC94615/binance-data-downloader/internal/task"
)

func TestResolve_DataURLs(t *testing.T) {
	builder := NewBuilder("", "/data")

	tests := []struct {
		name string
		task task.Task
		want string
	}{
		{
			name: "spot daily klines",
			task: task.Task{
				Market: catalog.MarketSpot, DataType: catalog.DataTypeKlines,
				Symbol: "BTCUSDT", Frequency: catalog.Freq1d,
				Period: catalog.PeriodDaily, Date: "2025-01-01",
			},
			want: "https://data.binance.vision/data/spot/daily/klines/BTCUSDT/1d/BTCUSDT-1d-2025-01-01.zip",
		},
		{
			name: "spot monthly trades",
			task: task.Task{
				Market: catalog.MarketSpot, DataType: catalog.DataTypeTrades,
				Symbol: "ETHUSDT", Period: catalog.PeriodMonthly, Date: "2024-12",
			},
			want: "https://data.binance.vision/data/spot/monthly/trades/ETHUSDT/ETHUSDT-trades-2024-12.zip",
		},
		{
			name: "um futures monthly funding rate",
			task: task.Task{
				Market: catalog.MarketFuturesUM, DataType: catalog.DataTypeFundingRate,
				Symbol: "BTCUSDT", Period: catalog.PeriodMonthly, Date: "2025-02",
			},
			want: "https://data.binance.vision/data/futures/um/monthly/fundingRate/BTCUSDT/BTCUSDT-fundingRate-2025-02.zip",
		},
		{
			name: "cm futures daily mark price klines",
			task: task.Task{
				Market: catalog.MarketFuturesCM, DataType: catalog.DataTypeMarkPriceKlines,
				Symbol: "BTCUSD_PERP", Frequency: catalog.Freq1h,
				Period: catalog.PeriodDaily, Date: "2025-03-15",
			},
			want: "https://data.binance.vision/data/futures/cm/daily/markPriceKlines/BTCUSD_PERP/1h/BTCUSD_PERP-1h-2025-03-15.zip",
		},
		{
			name: "option daily bvol index",
			task: task.Task{
				Market: catalog.MarketOption, DataType: catalog.DataTypeBVOLIndex,
				Symbol: "BTCBVOLUSDT", Period: catalog.PeriodDaily, Date: "2025-01-20",
			},
			want: "https://data.binance.vision/data/option/daily/BVOLIndex/BTCBVOLUSDT/BTCBVOLUSDT-BVOLIndex-2025-01-20.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := builder.Resolve(tt.task)
			if obj.DataURL != tt.want {
				t.Errorf("DataURL = %q, want %q", obj.DataURL, tt.want)
			}
			if obj.ChecksumURL != tt.want+".CHECKSUM" {
				t.Errorf("ChecksumURL = %q, want %q", obj.ChecksumURL, tt.want+".CHECKSUM")
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	builder := NewBuilder("", "/data")
	tk := task.Task{
		Market: catalog.MarketSpot, DataType: catalog.DataTypeKlines,
		Symbol: "BTCUSDT", Frequency: catalog.Freq1d,
		Period: catalog.PeriodDaily, Date: "2025-01-01",
	}

	if builder.Resolve(tk) != builder.Resolve(tk) {
		t.Error("Resolve() is not deterministic")
	}
}

func TestResolve_LocalPaths(t *testing.T) {
	builder := NewBuilder("", "/data")
	obj := builder.Resolve(task.Task{
		Market: catalog.MarketSpot, DataType: catalog.DataTypeKlines,
		Symbol: "BTCUSDT", Frequency: catalog.Freq1d,
		Period: catalog.PeriodDaily, Date: "2025-01-01",
	})

	wantDir := filepath.Join("/data", "spot", "klines", "1d", "BTCUSDT")
	if obj.ExtractDir != wantDir {
		t.Errorf("ExtractDir = %q, want %q", obj.ExtractDir, wantDir)
	}

	wantArchive := filepath.Join(wantDir, "BTCUSDT-1d-2025-01-01.zip")
	if obj.ArchivePath != wantArchive {
		t.Errorf("ArchivePath = %q, want %q", obj.ArchivePath, wantArchive)
	}
	if obj.PartPath != wantArchive+".part" {
		t.Errorf("PartPath = %q, want %q", obj.PartPath, wantArchive+".part")
	}
	if obj.ChecksumPath != wantArchive+".CHECKSUM" {
		t.Errorf("ChecksumPath = %q, want %q", obj.ChecksumPath, wantArchive+".CHECKSUM")
	}
	if obj.MarkerPath != wantArchive+".verified" {
		t.Errorf("MarkerPath = %q, want %q", obj.MarkerPath, wantArchive+".verified")
	}
}

func TestResolve_LocalPathOmitsFrequencyForNonKlines(t *testing.T) {
	builder := NewBuilder("", "/data")
	obj := builder.Resolve(task.Task{
		Market: catalog.MarketFuturesUM, DataType: catalog.DataTypeTrades,
		Symbol: "BTCUSDT", Period: catalog.PeriodDaily, Date: "2025-01-01",
	})

	wantDir := filepath.Join("/data", "futures-um", "trades", "BTCUSDT")
	if obj.ExtractDir != wantDir {
		t.Errorf("ExtractDir = %q, want %q", obj.ExtractDir, wantDir)
	}
}

func TestNewBuilder_TrimsTrailingSlash(t *testing.T) {
	builder := NewBuilder("http://localhost:9999/", "/data")
	obj := builder.Resolve(task.Task{
		Market: catalog.MarketSpot, DataType: catalog.DataTypeTrades,
		Symbol: "BTCUSDT", Period: catalog.PeriodDaily, Date: "2025-01-01",
	})

	want := "http://localhost:9999/spot/daily/trades/BTCUSDT/BTCUSDT-trades-2025-01-01.zip"
	if obj.DataURL != want {
		t.Errorf("DataURL = %q, want %q", obj.DataURL, want)
	}
}
