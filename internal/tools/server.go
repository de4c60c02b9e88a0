package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"tradestream/internal/stream"
)

const (
	serverName    = "tradestream"
	serverVersion = "1.0.0"
)

// NewServer builds the MCP server and registers the streaming tool set.
func NewServer(manager *stream.Manager, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	h := NewHandlers(manager, logger)

	s.AddTool(mcp.NewTool("start_global_stock_stream",
		mcp.WithDescription("Start the global real-time stock data stream. Only one stream can run at a time; all symbols share one connection."),
		mcp.WithArray("symbols",
			mcp.Required(),
			mcp.Description("Stock symbols to stream (e.g. [\"AAPL\", \"MSFT\"])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("data_types",
			mcp.Description("Data types to subscribe: trades, quotes, bars, updated_bars, daily_bars, statuses. Defaults to trades and quotes."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("feed",
			mcp.Description("Market data feed: sip or iex"),
		),
		mcp.WithNumber("duration_seconds",
			mcp.Description("Stop automatically after this many seconds. Omit for indefinite."),
		),
		mcp.WithNumber("buffer_size_per_symbol",
			mcp.Description("Ring buffer capacity per (symbol, data type) pair. Omit for unbounded."),
		),
		mcp.WithBoolean("replace_existing",
			mcp.Description("Stop and replace an already running stream"),
		),
	), h.StartStream)

	s.AddTool(mcp.NewTool("stop_global_stock_stream",
		mcp.WithDescription("Stop the active stock stream and report final statistics. Buffered data is retained."),
	), h.StopStream)

	s.AddTool(mcp.NewTool("add_symbols_to_stock_stream",
		mcp.WithDescription("Add symbols to the already running stock stream."),
		mcp.WithArray("symbols",
			mcp.Required(),
			mcp.Description("Stock symbols to add"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("data_types",
			mcp.Description("Data types for the new symbols. Defaults to the kinds already subscribed."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), h.AddSymbols)

	s.AddTool(mcp.NewTool("get_stock_stream_data",
		mcp.WithDescription("Read buffered streaming records for one symbol and data type."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol"),
		),
		mcp.WithString("data_type",
			mcp.Description("Data type to read (default trades)"),
		),
		mcp.WithNumber("recent_seconds",
			mcp.Description("Only records received within the last N seconds"),
		),
		mcp.WithNumber("limit",
			mcp.Description("At most N most recent records"),
		),
	), h.GetData)

	s.AddTool(mcp.NewTool("list_active_stock_streams",
		mcp.WithDescription("Show the status of the active stock stream: subscriptions, runtime, event counters, and buffer totals."),
	), h.ListStreams)

	s.AddTool(mcp.NewTool("get_stock_stream_buffer_stats",
		mcp.WithDescription("Detailed statistics for every stream buffer, grouped by symbol, with an estimated memory footprint."),
	), h.BufferStats)

	s.AddTool(mcp.NewTool("clear_stock_stream_buffers",
		mcp.WithDescription("Empty all stream buffers to free memory. Buffers stay registered and streaming continues if active."),
	), h.ClearBuffers)

	s.AddTool(mcp.NewTool("stream_aware_price_monitor",
		mcp.WithDescription("Derive current price, spread, and volume statistics for a symbol from recent buffered stream data."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol"),
		),
		mcp.WithNumber("analysis_window_seconds",
			mcp.Description("Lookback window in seconds (default 10)"),
		),
	), h.PriceMonitor)

	s.AddTool(mcp.NewTool("stream_optimized_order_placement",
		mcp.WithDescription("Place an immediate-or-cancel order priced from live stream quotes: buys at the bid, sells at the ask."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol"),
		),
		mcp.WithString("side",
			mcp.Required(),
			mcp.Description("buy or sell"),
		),
		mcp.WithNumber("quantity",
			mcp.Required(),
			mcp.Description("Number of shares"),
		),
		mcp.WithString("order_type",
			mcp.Description("limit (default) or market"),
		),
	), h.PlaceOrder)

	return s
}
