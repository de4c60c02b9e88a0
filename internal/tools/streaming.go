package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"tradestream/internal/stream"
)

// Handlers binds the streaming manager to the tool surface. Every handler
// resolves to a text result; domain failures are rendered as guidance for
// the caller rather than surfaced as protocol errors.
type Handlers struct {
	manager *stream.Manager
	logger  *zap.Logger
}

func NewHandlers(manager *stream.Manager, logger *zap.Logger) *Handlers {
	return &Handlers{manager: manager, logger: logger}
}

func textError(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("Error: "+format, args...))
}

func (h *Handlers) StartStream(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	symbols := argStringSlice(args, "symbols")
	if len(symbols) == 0 {
		return textError("at least one symbol is required"), nil
	}

	kinds, err := stream.ParseKinds(argStringSlice(args, "data_types"))
	if err != nil {
		return textError("%v", err), nil
	}

	opts := stream.StartOptions{
		Symbols:        symbols,
		Kinds:          kinds,
		Feed:           argString(args, "feed", ""),
		Duration:       time.Duration(argInt(args, "duration_seconds", 0)) * time.Second,
		BufferCapacity: argInt(args, "buffer_size_per_symbol", 0),
		Replace:        argBool(args, "replace_existing", false),
	}

	result, err := h.manager.Start(ctx, opts)
	if err != nil {
		if errors.Is(err, stream.ErrAlreadyActive) {
			status, statusErr := h.manager.Status()
			if statusErr != nil {
				status = nil
			}
			return mcp.NewToolResultText(formatAlreadyActive(status)), nil
		}
		h.logger.Warn("stream start failed", zap.Error(err))
		return textError("failed to start stream: %v", err), nil
	}

	return mcp.NewToolResultText(formatStartResult(result)), nil
}

func (h *Handlers) StopStream(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.manager.Stop()
	if err != nil {
		if errors.Is(err, stream.ErrNoActiveSession) {
			return mcp.NewToolResultText("No active stock stream to stop."), nil
		}
		h.logger.Warn("stream stop failed", zap.Error(err))
		return textError("failed to stop stream: %v", err), nil
	}
	return mcp.NewToolResultText(formatStopResult(result)), nil
}

func (h *Handlers) AddSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	symbols := argStringSlice(args, "symbols")
	if len(symbols) == 0 {
		return textError("at least one symbol is required"), nil
	}

	kinds, err := stream.ParseKinds(argStringSlice(args, "data_types"))
	if err != nil {
		return textError("%v", err), nil
	}

	result, err := h.manager.AddSymbols(symbols, kinds)
	if err != nil {
		if errors.Is(err, stream.ErrNoActiveSession) {
			return mcp.NewToolResultText("No active stock stream. Use start_global_stock_stream first."), nil
		}
		return textError("failed to add symbols: %v", err), nil
	}
	return mcp.NewToolResultText(formatAddResult(result)), nil
}

func (h *Handlers) GetData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	symbol := argString(args, "symbol", "")
	if symbol == "" {
		return textError("symbol is required"), nil
	}

	kind, err := stream.ParseKind(argString(args, "data_type", string(stream.KindTrades)))
	if err != nil {
		return textError("%v", err), nil
	}

	req := stream.DataRequest{
		Symbol: symbol,
		Kind:   kind,
		Window: time.Duration(argInt(args, "recent_seconds", 0)) * time.Second,
		Limit:  argInt(args, "limit", 0),
	}

	result, err := h.manager.GetData(req)
	if err != nil {
		switch {
		case errors.Is(err, stream.ErrNoActiveSession):
			return mcp.NewToolResultText("No active stock stream. Use start_global_stock_stream first."), nil
		case errors.Is(err, stream.ErrUnknownBuffer):
			return mcp.NewToolResultText(fmt.Sprintf(
				"No %s buffer for %s. The symbol may not be subscribed for that data type; "+
					"use add_symbols_to_stock_stream to subscribe it.", req.Kind, symbol)), nil
		}
		return textError("failed to read stream data: %v", err), nil
	}
	return mcp.NewToolResultText(formatDataResult(result)), nil
}

func (h *Handlers) ListStreams(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.manager.Status()
	if err != nil {
		if errors.Is(err, stream.ErrNoActiveSession) {
			return mcp.NewToolResultText("No active stock streams.\n\nUse start_global_stock_stream to begin streaming."), nil
		}
		return textError("failed to read stream status: %v", err), nil
	}
	return mcp.NewToolResultText(formatStatus(status)), nil
}

func (h *Handlers) BufferStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := h.manager.BufferStatsReport()
	if err != nil {
		if errors.Is(err, stream.ErrNoBuffers) {
			return mcp.NewToolResultText("No stream buffers found. Start a stream first."), nil
		}
		return textError("failed to collect buffer stats: %v", err), nil
	}
	return mcp.NewToolResultText(formatRegistryReport(report)), nil
}

func (h *Handlers) ClearBuffers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := h.manager.ClearBuffers()
	return mcp.NewToolResultText(formatClearResult(result)), nil
}

func (h *Handlers) PriceMonitor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	symbol := argString(args, "symbol", "")
	if symbol == "" {
		return textError("symbol is required"), nil
	}
	window := time.Duration(argInt(args, "analysis_window_seconds", 0)) * time.Second

	report, err := h.manager.PriceMonitor(ctx, symbol, window)
	if err != nil {
		if errors.Is(err, stream.ErrNoActiveSession) {
			return mcp.NewToolResultText("No active stock stream. Use start_global_stock_stream first."), nil
		}
		return textError("price monitoring failed: %v", err), nil
	}
	return mcp.NewToolResultText(formatMonitorReport(report)), nil
}

func (h *Handlers) PlaceOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := stream.OrderRequest{
		Symbol:    argString(args, "symbol", ""),
		Side:      argString(args, "side", ""),
		Quantity:  argFloat(args, "quantity", 0),
		OrderType: argString(args, "order_type", ""),
	}
	if req.Symbol == "" {
		return textError("symbol is required"), nil
	}

	result, err := h.manager.PlaceStreamOrder(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, stream.ErrNoActiveSession):
			return mcp.NewToolResultText("No active stock stream. Start one with quotes for " +
				req.Symbol + " to enable stream-priced orders."), nil
		case errors.Is(err, stream.ErrNoPriceAvailable):
			return mcp.NewToolResultText(fmt.Sprintf(
				"No recent quote data for %s. Ensure the symbol is subscribed for quotes and retry.", req.Symbol)), nil
		}
		h.logger.Warn("stream order failed", zap.String("symbol", req.Symbol), zap.Error(err))
		return textError("order placement failed: %v", err), nil
	}
	return mcp.NewToolResultText(formatOrderResult(result)), nil
}
